package stdlib

import (
	"github.com/timewinder-dev/apirecord/interp"
	"github.com/timewinder-dev/apirecord/vm"
)

// Modules lists every native module in this package.
func Modules() []*vm.Module {
	return []*vm.Module{ArrayModule}
}

// NewLoader returns a loader over path with the native modules registered.
func NewLoader(path ...string) *interp.Loader {
	l := interp.NewLoader(path...)
	for _, m := range Modules() {
		l.Register(m)
	}
	return l
}
