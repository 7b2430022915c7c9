package vm

import (
	"errors"
	"fmt"
	"math/big"

	"go.starlark.net/syntax"
)

func (cc *compileContext) statement(s syntax.Stmt) error {
	cc.setLine(s)

	switch v := s.(type) {
	case *syntax.AssignStmt:
		return cc.assign(v.Op, v.LHS, v.RHS)
	case *syntax.BranchStmt:
		return cc.branch(v)
	case *syntax.DefStmt:
		if !cc.topLevel {
			return errors.New("Nested defs are unsupported")
		}
		name := v.Name.Name
		sub := newCompileContext(name, cc.module, cc.filename)
		sub.line = cc.line
		var err error
		sub.params, err = getFunctionParams(v.Params)
		if err != nil {
			return fmt.Errorf("def %s: %w", name, err)
		}
		err = sub.buildFromStatements(v.Body)
		if err != nil {
			return err
		}
		// Implicit return at the end of the body
		if len(sub.ops) == 0 || sub.ops[len(sub.ops)-1].Code != RETURN {
			sub.emitConst(None)
			sub.emit(RETURN)
		}
		cc.subContext[name] = sub
	case *syntax.ExprStmt:
		if _, ok := v.X.(*syntax.Literal); ok {
			// Opt: don't compile literals only to pop them.
			return nil
		}
		err := cc.expr(v.X)
		if err != nil {
			return err
		}
		cc.emit(POP)
	case *syntax.ForStmt:
		err := cc.expr(v.X)
		if err != nil {
			return err
		}
		cc.emit(GET_ITER)
		startLabel := cc.newLabel()
		endLabel := cc.newLabel()
		cc.emitLabel(startLabel)
		cc.emitJump(FOR_ITER, endLabel)
		err = cc.storeTarget(v.Vars)
		if err != nil {
			return err
		}
		cc.loops = append(cc.loops, loopLabels{cont: startLabel, brk: endLabel, forLoop: true})
		err = cc.buildFromStatements(v.Body)
		cc.loops = cc.loops[:len(cc.loops)-1]
		if err != nil {
			return err
		}
		cc.emitJump(JMP, startLabel)
		cc.emitLabel(endLabel)
	case *syntax.WhileStmt:
		// start_label:
		//   <condition>
		//   JFALSE end_label
		//   <body>
		//   JMP start_label
		// end_label:
		startLabel := cc.newLabel()
		endLabel := cc.newLabel()
		cc.emitLabel(startLabel)
		err := cc.expr(v.Cond)
		if err != nil {
			return err
		}
		cc.emitJump(JFALSE, endLabel)
		cc.loops = append(cc.loops, loopLabels{cont: startLabel, brk: endLabel})
		err = cc.buildFromStatements(v.Body)
		cc.loops = cc.loops[:len(cc.loops)-1]
		if err != nil {
			return err
		}
		cc.emitJump(JMP, startLabel)
		cc.emitLabel(endLabel)
	case *syntax.IfStmt:
		err := cc.expr(v.Cond)
		if err != nil {
			return err
		}
		label := cc.newLabel()
		cc.emitJump(JFALSE, label)
		err = cc.buildFromStatements(v.True)
		if err != nil {
			return err
		}
		if len(v.False) == 0 {
			cc.emitLabel(label)
			return nil
		}
		endLabel := cc.newLabel()
		cc.emitJump(JMP, endLabel)
		cc.emitLabel(label)
		err = cc.buildFromStatements(v.False)
		if err != nil {
			return err
		}
		cc.emitLabel(endLabel)
	case *syntax.LoadStmt:
		// load("mod", "a", b="c") binds members; load("mod", m="*") binds the
		// module itself.
		mod, ok := v.Module.Value.(string)
		if !ok {
			return errors.New("load: module name must be a string")
		}
		cc.emitName(IMPORT, mod)
		for i := range v.From {
			if v.From[i].Name == "*" {
				cc.emit(DUP)
			} else {
				cc.emitName(IMPORT_FROM, v.From[i].Name)
			}
			cc.emitName(SETVAL, v.To[i].Name)
		}
		cc.emit(POP)
	case *syntax.ReturnStmt:
		if v.Result == nil {
			cc.emitConst(None)
		} else {
			err := cc.expr(v.Result)
			if err != nil {
				return err
			}
		}
		cc.emit(RETURN)
	default:
		return fmt.Errorf("Unhandled statment type %T", s)
	}
	return nil
}

func (cc *compileContext) branch(b *syntax.BranchStmt) error {
	if b.Token == syntax.PASS {
		return nil
	}
	if len(cc.loops) == 0 {
		return fmt.Errorf("%s outside of a loop", b.Token)
	}
	l := cc.loops[len(cc.loops)-1]
	switch b.Token {
	case syntax.BREAK:
		if l.forLoop {
			// Drop the loop's iterator
			cc.emit(POP)
		}
		cc.emitJump(JMP, l.brk)
	case syntax.CONTINUE:
		cc.emitJump(JMP, l.cont)
	default:
		return fmt.Errorf("Unhandled branch %s", b.Token)
	}
	return nil
}

func (cc *compileContext) expr(e syntax.Expr) error {
	cc.setLine(e)

	switch v := e.(type) {
	case *syntax.BinaryExpr:
		if v.Op == syntax.AND || v.Op == syntax.OR {
			return cc.shortCircuitBinOp(v)
		}
		err := cc.expr(v.X)
		if err != nil {
			return err
		}
		err = cc.expr(v.Y)
		if err != nil {
			return err
		}
		return cc.binOp(v.Op)
	case *syntax.CallExpr:
		return cc.call(v)
	case *syntax.Comprehension:
		return cc.comprehension(v)
	case *syntax.CondExpr:
		err := cc.expr(v.Cond)
		if err != nil {
			return err
		}
		label := cc.newLabel()
		cc.emitJump(JFALSE, label)
		err = cc.expr(v.True)
		if err != nil {
			return err
		}
		endLabel := cc.newLabel()
		cc.emitJump(JMP, endLabel)
		cc.emitLabel(label)
		err = cc.expr(v.False)
		if err != nil {
			return err
		}
		cc.emitLabel(endLabel)
	case *syntax.DictExpr:
		for _, x := range v.List {
			entry, ok := x.(*syntax.DictEntry)
			if !ok {
				return fmt.Errorf("Unexpected dict element %T", x)
			}
			err := cc.expr(entry.Key)
			if err != nil {
				return err
			}
			err = cc.expr(entry.Value)
			if err != nil {
				return err
			}
		}
		cc.emitArg(BUILD_DICT, len(v.List))
	case *syntax.DotExpr:
		err := cc.expr(v.X)
		if err != nil {
			return err
		}
		cc.emitName(GETATTR, v.Name.Name)
	case *syntax.Ident:
		switch v.Name {
		case "True":
			cc.emitConst(BoolTrue)
		case "False":
			cc.emitConst(BoolFalse)
		case "None":
			cc.emitConst(None)
		default:
			cc.emitName(GETVAL, v.Name)
		}
	case *syntax.IndexExpr:
		err := cc.expr(v.X)
		if err != nil {
			return err
		}
		err = cc.expr(v.Y)
		if err != nil {
			return err
		}
		cc.emit(GETITEM)
	case *syntax.LambdaExpr:
		return errors.New("Lambda expressions are unsupported")
	case *syntax.ListExpr:
		for _, exp := range v.List {
			err := cc.expr(exp)
			if err != nil {
				return err
			}
		}
		cc.emitArg(BUILD_LIST, len(v.List))
	case *syntax.Literal:
		val, err := litToValue(v.Value)
		if err != nil {
			return err
		}
		cc.emitConst(val)
	case *syntax.ParenExpr:
		return cc.expr(unparen(v))
	case *syntax.SliceExpr:
		err := cc.expr(v.X)
		if err != nil {
			return err
		}
		n := 2
		bounds := []syntax.Expr{v.Lo, v.Hi}
		if v.Step != nil {
			bounds = append(bounds, v.Step)
			n = 3
		}
		for _, b := range bounds {
			if b == nil {
				cc.emitConst(None)
				continue
			}
			err = cc.expr(b)
			if err != nil {
				return err
			}
		}
		cc.emitArg(BUILD_SLICE, n)
		cc.emit(GETITEM)
	case *syntax.TupleExpr:
		for _, exp := range v.List {
			err := cc.expr(exp)
			if err != nil {
				return err
			}
		}
		cc.emitArg(BUILD_TUPLE, len(v.List))
	case *syntax.UnaryExpr:
		return cc.unary(v)
	default:
		return fmt.Errorf("Unhandled expr type %T", e)
	}
	return nil
}

// shortCircuitBinOp leaves the deciding operand on the stack.
func (cc *compileContext) shortCircuitBinOp(e *syntax.BinaryExpr) error {
	err := cc.expr(e.X)
	if err != nil {
		return err
	}
	switch e.Op {
	case syntax.AND:
		//   DUP
		//   JFALSE end_label
		//   POP
		//   <right>
		// end_label:
		endLabel := cc.newLabel()
		cc.emit(DUP)
		cc.emitJump(JFALSE, endLabel)
		cc.emit(POP)
		err = cc.expr(e.Y)
		if err != nil {
			return err
		}
		cc.emitLabel(endLabel)
	case syntax.OR:
		//   DUP
		//   JFALSE else_label
		//   JMP end_label
		// else_label:
		//   POP
		//   <right>
		// end_label:
		elseLabel := cc.newLabel()
		endLabel := cc.newLabel()
		cc.emit(DUP)
		cc.emitJump(JFALSE, elseLabel)
		cc.emitJump(JMP, endLabel)
		cc.emitLabel(elseLabel)
		cc.emit(POP)
		err = cc.expr(e.Y)
		if err != nil {
			return err
		}
		cc.emitLabel(endLabel)
	default:
		return fmt.Errorf("shortCircuitBinOp: unexpected op %v", e.Op)
	}
	return nil
}

var binaryOps = map[syntax.Token]Opcode{
	syntax.PLUS:       ADD,
	syntax.MINUS:      SUBTRACT,
	syntax.STAR:       MULTIPLY,
	syntax.SLASH:      DIVIDE,
	syntax.SLASHSLASH: FLOOR_DIVIDE,
	syntax.PERCENT:    MODULO,
	syntax.AMP:        BIT_AND,
	syntax.PIPE:       BIT_OR,
	syntax.CIRCUMFLEX: BIT_XOR,
	syntax.LTLT:       LSHIFT,
	syntax.GTGT:       RSHIFT,
}

var inplaceOps = map[syntax.Token]Opcode{
	syntax.PLUS_EQ:       INPLACE_ADD,
	syntax.MINUS_EQ:      INPLACE_SUBTRACT,
	syntax.STAR_EQ:       INPLACE_MULTIPLY,
	syntax.SLASH_EQ:      INPLACE_DIVIDE,
	syntax.SLASHSLASH_EQ: INPLACE_FLOOR_DIVIDE,
	syntax.PERCENT_EQ:    INPLACE_MODULO,
	syntax.AMP_EQ:        INPLACE_AND,
	syntax.PIPE_EQ:       INPLACE_OR,
	syntax.CIRCUMFLEX_EQ: INPLACE_XOR,
	syntax.LTLT_EQ:       INPLACE_LSHIFT,
	syntax.GTGT_EQ:       INPLACE_RSHIFT,
}

var compareOps = map[syntax.Token]int{
	syntax.LT:     CmpLT,
	syntax.LE:     CmpLE,
	syntax.EQL:    CmpEQ,
	syntax.NEQ:    CmpNE,
	syntax.GT:     CmpGT,
	syntax.GE:     CmpGE,
	syntax.IN:     CmpIn,
	syntax.NOT_IN: CmpNotIn,
}

func (cc *compileContext) binOp(op syntax.Token) error {
	if code, ok := binaryOps[op]; ok {
		cc.emit(code)
		return nil
	}
	if c, ok := compareOps[op]; ok {
		cc.emitArg(COMPARE, c)
		return nil
	}
	return fmt.Errorf("compileContext: Unhandled binary operation %s", op)
}

func (cc *compileContext) unary(e *syntax.UnaryExpr) error {
	if e.Op == syntax.STAR || e.Op == syntax.STARSTAR {
		return fmt.Errorf("%s is only allowed in call arguments", e.Op)
	}
	err := cc.expr(e.X)
	if err != nil {
		return err
	}
	switch e.Op {
	case syntax.NOT:
		cc.emit(NOT)
	case syntax.MINUS:
		cc.emit(NEGATE)
	case syntax.PLUS:
		cc.emit(POSITIVE)
	case syntax.TILDE:
		cc.emit(INVERT)
	default:
		return fmt.Errorf("compileContext: Unhandled unary operation %s", e.Op)
	}
	return nil
}

func keywordArg(arg syntax.Expr) (*syntax.Ident, syntax.Expr, bool) {
	b, ok := arg.(*syntax.BinaryExpr)
	if !ok || b.Op != syntax.EQ {
		return nil, nil, false
	}
	id, ok := b.X.(*syntax.Ident)
	if !ok {
		return nil, nil, false
	}
	return id, b.Y, true
}

func splatArg(arg syntax.Expr) (syntax.Token, syntax.Expr, bool) {
	u, ok := arg.(*syntax.UnaryExpr)
	if !ok || (u.Op != syntax.STAR && u.Op != syntax.STARSTAR) {
		return 0, nil, false
	}
	return u.Op, u.X, true
}

// call picks the calling convention:
//   - obj.m(a, b)          LOAD_METHOD m; CALL_METHOD 2
//   - f(a, b)              CALL 2
//   - f(a, k=b)            CALL_KW 2 with the keyword names as a constant tuple
//   - f(a, *xs, **kw)      argument tuples joined by BUILD_TUPLE_UNPACK_WITH_CALL, then CALL_EX
func (cc *compileContext) call(v *syntax.CallExpr) error {
	if ok, err := cc.specialCall(v); ok {
		return err
	}
	var positional []syntax.Expr
	var kwNames TupleValue
	var kwValues []syntax.Expr
	splats := false
	for _, a := range v.Args {
		if _, _, ok := splatArg(a); ok {
			splats = true
			continue
		}
		if id, val, ok := keywordArg(a); ok {
			kwNames = append(kwNames, StrValue(id.Name))
			kwValues = append(kwValues, val)
			continue
		}
		if b, ok := a.(*syntax.BinaryExpr); ok && b.Op == syntax.EQ {
			return fmt.Errorf("Only identifiers are allowed on the left-hand side of a function call argument")
		}
		positional = append(positional, a)
	}
	if splats {
		return cc.callEx(v)
	}

	if dot, ok := v.Fn.(*syntax.DotExpr); ok && len(kwNames) == 0 {
		err := cc.expr(dot.X)
		if err != nil {
			return err
		}
		cc.emitName(LOAD_METHOD, dot.Name.Name)
		err = cc.exprs(positional)
		if err != nil {
			return err
		}
		cc.emitArg(CALL_METHOD, len(positional))
		return nil
	}

	err := cc.expr(v.Fn)
	if err != nil {
		return err
	}
	err = cc.exprs(positional)
	if err != nil {
		return err
	}
	if len(kwNames) == 0 {
		cc.emitArg(CALL, len(positional))
		return nil
	}
	err = cc.exprs(kwValues)
	if err != nil {
		return err
	}
	cc.emitConst(kwNames)
	cc.emitArg(CALL_KW, len(positional)+len(kwValues))
	return nil
}

func (cc *compileContext) callEx(v *syntax.CallExpr) error {
	err := cc.expr(v.Fn)
	if err != nil {
		return err
	}
	groups := 0
	var pending []syntax.Expr
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		err := cc.exprs(pending)
		if err != nil {
			return err
		}
		cc.emitArg(BUILD_TUPLE, len(pending))
		pending = nil
		groups++
		return nil
	}
	var kwNames []string
	var kwValues []syntax.Expr
	var kwargs syntax.Expr
	for _, a := range v.Args {
		if tok, x, ok := splatArg(a); ok {
			if tok == syntax.STARSTAR {
				if kwargs != nil {
					return errors.New("Only one ** argument is supported")
				}
				kwargs = x
				continue
			}
			err := flush()
			if err != nil {
				return err
			}
			err = cc.expr(x)
			if err != nil {
				return err
			}
			groups++
			continue
		}
		if id, val, ok := keywordArg(a); ok {
			kwNames = append(kwNames, id.Name)
			kwValues = append(kwValues, val)
			continue
		}
		pending = append(pending, a)
	}
	err = flush()
	if err != nil {
		return err
	}
	switch groups {
	case 0:
		cc.emitConst(TupleValue{})
	case 1:
	default:
		cc.emitArg(BUILD_TUPLE_UNPACK_WITH_CALL, groups)
	}

	flags := 0
	if len(kwNames) != 0 && kwargs != nil {
		return errors.New("Keyword arguments combined with ** are unsupported")
	}
	if len(kwNames) != 0 {
		for i, name := range kwNames {
			cc.emitConst(StrValue(name))
			err := cc.expr(kwValues[i])
			if err != nil {
				return err
			}
		}
		cc.emitArg(BUILD_DICT, len(kwNames))
		flags |= CallExHasKwargs
	}
	if kwargs != nil {
		err := cc.expr(kwargs)
		if err != nil {
			return err
		}
		flags |= CallExHasKwargs
	}
	cc.emitArg(CALL_EX, flags)
	return nil
}

func (cc *compileContext) exprs(list []syntax.Expr) error {
	for _, e := range list {
		err := cc.expr(e)
		if err != nil {
			return err
		}
	}
	return nil
}

// comprehension builds the list in place: the list sits below one iterator
// per for clause and LIST_APPEND reaches down past them.
func (cc *compileContext) comprehension(v *syntax.Comprehension) error {
	if v.Curly {
		return errors.New("Dict and set comprehensions are unsupported")
	}
	cc.emitArg(BUILD_LIST, 0)
	return cc.comprehensionClauses(v, 0, 0)
}

func (cc *compileContext) comprehensionClauses(v *syntax.Comprehension, i int, depth int) error {
	if i == len(v.Clauses) {
		err := cc.expr(v.Body)
		if err != nil {
			return err
		}
		cc.emitArg(LIST_APPEND, depth+1)
		return nil
	}
	switch c := v.Clauses[i].(type) {
	case *syntax.ForClause:
		err := cc.expr(c.X)
		if err != nil {
			return err
		}
		cc.emit(GET_ITER)
		startLabel := cc.newLabel()
		endLabel := cc.newLabel()
		cc.emitLabel(startLabel)
		cc.emitJump(FOR_ITER, endLabel)
		err = cc.storeTarget(c.Vars)
		if err != nil {
			return err
		}
		err = cc.comprehensionClauses(v, i+1, depth+1)
		if err != nil {
			return err
		}
		cc.emitJump(JMP, startLabel)
		cc.emitLabel(endLabel)
	case *syntax.IfClause:
		err := cc.expr(c.Cond)
		if err != nil {
			return err
		}
		skip := cc.newLabel()
		cc.emitJump(JFALSE, skip)
		err = cc.comprehensionClauses(v, i+1, depth)
		if err != nil {
			return err
		}
		cc.emitLabel(skip)
	default:
		return fmt.Errorf("Unhandled comprehension clause %T", c)
	}
	return nil
}

func (cc *compileContext) assign(op syntax.Token, lhs syntax.Expr, rhs syntax.Expr) error {
	if op != syntax.EQ {
		return cc.augmentedAssign(op, lhs, rhs)
	}
	err := cc.expr(rhs)
	if err != nil {
		return err
	}
	return cc.storeTarget(lhs)
}

// storeTarget consumes the value on top of the stack.
func (cc *compileContext) storeTarget(lhs syntax.Expr) error {
	switch v := unparen(lhs).(type) {
	case *syntax.Ident:
		switch v.Name {
		case "True", "False", "None":
			return fmt.Errorf("Reassigning `%s` is not allowed", v.Name)
		}
		cc.emitName(SETVAL, v.Name)
	case *syntax.IndexExpr:
		err := cc.expr(v.X)
		if err != nil {
			return err
		}
		err = cc.expr(v.Y)
		if err != nil {
			return err
		}
		cc.emit(SETITEM)
	case *syntax.DotExpr:
		err := cc.expr(v.X)
		if err != nil {
			return err
		}
		cc.emitName(SETATTR, v.Name.Name)
	case *syntax.TupleExpr:
		return cc.unpackTargets(v.List)
	case *syntax.ListExpr:
		return cc.unpackTargets(v.List)
	default:
		return fmt.Errorf("assign: Unhandled LHS expr type %T", lhs)
	}
	return nil
}

func (cc *compileContext) unpackTargets(targets []syntax.Expr) error {
	cc.emitArg(UNPACK_SEQUENCE, len(targets))
	for _, t := range targets {
		err := cc.storeTarget(t)
		if err != nil {
			return err
		}
	}
	return nil
}

func (cc *compileContext) augmentedAssign(op syntax.Token, lhs syntax.Expr, rhs syntax.Expr) error {
	code, ok := inplaceOps[op]
	if !ok {
		return fmt.Errorf("%s assignments unimplemented", op)
	}
	switch v := unparen(lhs).(type) {
	case *syntax.Ident:
		err := cc.expr(v)
		if err != nil {
			return err
		}
		err = cc.expr(rhs)
		if err != nil {
			return err
		}
		cc.emit(code)
		return cc.storeTarget(v)
	case *syntax.DotExpr:
		err := cc.expr(v.X)
		if err != nil {
			return err
		}
		cc.emit(DUP)
		cc.emitName(GETATTR, v.Name.Name)
		err = cc.expr(rhs)
		if err != nil {
			return err
		}
		cc.emit(code)
		cc.emit(SWAP)
		cc.emitName(SETATTR, v.Name.Name)
	case *syntax.IndexExpr:
		err := cc.expr(v.X)
		if err != nil {
			return err
		}
		err = cc.expr(v.Y)
		if err != nil {
			return err
		}
		cc.emit(DUP2)
		cc.emit(GETITEM)
		err = cc.expr(rhs)
		if err != nil {
			return err
		}
		cc.emit(code)
		cc.emit(ROT3)
		cc.emit(SETITEM)
	default:
		return fmt.Errorf("Unhandled augmented assignment target %T", lhs)
	}
	return nil
}

func getFunctionParams(e []syntax.Expr) ([]FunctionParam, error) {
	var out []FunctionParam
	kwOnly := false
	for _, x := range e {
		switch v := x.(type) {
		case *syntax.Ident:
			out = append(out, FunctionParam{Name: v.Name, KeywordOnly: kwOnly})
		case *syntax.BinaryExpr:
			if v.Op != syntax.EQ {
				return nil, fmt.Errorf("Only assignments are allowed within a function parameter")
			}
			arg, ok := v.X.(*syntax.Ident)
			if !ok {
				return nil, fmt.Errorf("Parameter name must be an identifier")
			}
			val, err := constValue(v.Y)
			if err != nil {
				return nil, fmt.Errorf("default for %s: %w", arg.Name, err)
			}
			out = append(out, FunctionParam{Name: arg.Name, Default: val, KeywordOnly: kwOnly})
		case *syntax.UnaryExpr:
			switch v.Op {
			case syntax.STAR:
				kwOnly = true
				if v.X == nil {
					continue
				}
				out = append(out, FunctionParam{Name: v.X.(*syntax.Ident).Name, ArgList: true})
			case syntax.STARSTAR:
				out = append(out, FunctionParam{Name: v.X.(*syntax.Ident).Name, ArgMap: true})
			default:
				return nil, fmt.Errorf("Unhandled parameter operator %s", v.Op)
			}
		default:
			return nil, fmt.Errorf("Unhandled function param expr type %T", x)
		}
	}
	return out, nil
}

// constValue evaluates the constant expressions allowed as parameter defaults.
func constValue(e syntax.Expr) (Value, error) {
	switch v := unparen(e).(type) {
	case *syntax.Literal:
		return litToValue(v.Value)
	case *syntax.Ident:
		switch v.Name {
		case "True":
			return BoolTrue, nil
		case "False":
			return BoolFalse, nil
		case "None":
			return None, nil
		}
	case *syntax.UnaryExpr:
		if v.Op == syntax.MINUS {
			x, err := constValue(v.X)
			if err != nil {
				return nil, err
			}
			return Negate(x)
		}
	case *syntax.TupleExpr:
		out := make(TupleValue, 0, len(v.List))
		for _, el := range v.List {
			x, err := constValue(el)
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, nil
	}
	return nil, fmt.Errorf("Only constants are supported as default arguments to functions")
}

func unparen(e syntax.Expr) syntax.Expr {
	if p, ok := e.(*syntax.ParenExpr); ok {
		return unparen(p.X)
	}
	return e
}

func litToValue(l any) (Value, error) {
	switch t := l.(type) {
	case int64:
		return IntValue(int(t)), nil
	case *big.Int:
		return nil, fmt.Errorf("litToValue: integer literal %s is too large", t)
	case string:
		return StrValue(t), nil
	case float64:
		return FloatValue(t), nil
	}
	return nil, fmt.Errorf("litToValue: Unsupported literal value type %T", l)
}
