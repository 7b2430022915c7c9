package interp

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/apirecord/vm"
)

func requireResult(t *testing.T, code string, expected vm.Value) {
	t.Helper()
	mod := runLiteral(t, code)
	result, ok := mod.Members["result"]
	require.True(t, ok, "result not set")
	require.True(t, vm.Equal(expected, result), "expected %s, got %s", vm.Repr(expected), vm.Repr(result))
}

func TestModuloOperator(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected vm.Value
	}{
		{"positive modulo", "result = 10 % 3", vm.IntValue(1)},
		{"zero remainder", "result = 8 % 4", vm.IntValue(0)},
		{"small mod large", "result = 3 % 10", vm.IntValue(3)},
		{"modulo in expression", "result = (7 + 3) % 4", vm.IntValue(2)},
		{"negative dividend floors", "result = -7 % 3", vm.IntValue(2)},
		{"negative divisor floors", "result = 7 % -3", vm.IntValue(-2)},
		{"circular index", "N = 3\ncurrent = 2\nresult = (current + 1) % N", vm.IntValue(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireResult(t, tt.code, tt.expected)
		})
	}
}

func TestFloorDivisionOperator(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected vm.Value
	}{
		{"basic floor division", "result = 10 // 3", vm.IntValue(3)},
		{"exact division", "result = 12 // 4", vm.IntValue(3)},
		{"small by large", "result = 3 // 10", vm.IntValue(0)},
		{"negative floors down", "result = -7 // 2", vm.IntValue(-4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireResult(t, tt.code, tt.expected)
		})
	}
}

func TestInOperator(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected vm.Value
	}{
		{"element in list", "arr = [1, 2, 3, 4, 5]\nresult = 3 in arr", vm.BoolTrue},
		{"element missing from list", "arr = [1, 2, 3]\nresult = 9 in arr", vm.BoolFalse},
		{"element in empty list", "result = 1 in []", vm.BoolFalse},
		{"substring", `text = "hello world"` + "\n" + `result = "world" in text`, vm.BoolTrue},
		{"missing substring", `result = "xyz" in "hello"`, vm.BoolFalse},
		{"key in dict", `d = {"a": 1, "b": 2}` + "\n" + `result = "a" in d`, vm.BoolTrue},
		{"value is not a key", `d = {"a": 1}` + "\n" + `result = 1 in d`, vm.BoolFalse},
		{"not in", "arr = [1, 2, 3]\nresult = 5 not in arr", vm.BoolTrue},
		{"not in when present", "arr = [1, 2, 3]\nresult = 2 not in arr", vm.BoolFalse},
		{"in as a condition", "arr = [1, 2, 3]\nif 2 in arr:\n    result = 10\nelse:\n    result = 20", vm.IntValue(10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireResult(t, tt.code, tt.expected)
		})
	}
}

func TestWhileLoopCounter(t *testing.T) {
	requireResult(t, `
result = 0
def count():
    n = 0
    while n < 10:
        n += 1
    return n
result = count()
`, vm.IntValue(10))
}

func TestListAppendFromFunction(t *testing.T) {
	mod := runLiteral(t, `
queue = []

def push():
    queue.append("msg")

push()
push()
`)
	q := mod.Members["queue"].(*vm.ListValue)
	require.Equal(t, []vm.Value{vm.StrValue("msg"), vm.StrValue("msg")}, q.Items)
}
