package codegen

import "github.com/anistark/waspy/pkg/ir"

// emitBuiltinCall lowers one of the fixed builtin names (spec §4.3):
// len, print, min, max, sum, int, float, str, bool, abs. range() is
// handled separately as ir.RangeCall.
func (e *exprEmitter) emitBuiltinCall(n *ir.Call) error {
	switch n.Callee {
	case "len":
		return e.emitLen(n.Args[0])
	case "print":
		return e.emitPrint(n.Args[0])
	case "abs":
		return e.emitAbs(n.Args[0])
	case "min":
		return e.emitMinMax(n.Args, true)
	case "max":
		return e.emitMinMax(n.Args, false)
	case "sum":
		return e.emitSum(n.Args[0])
	case "int":
		return e.emitToInt(n.Args[0])
	case "float":
		return e.emitToFloat(n.Args[0])
	case "bool":
		return e.emitToBool(n.Args[0])
	case "str":
		return e.emitExpr(n.Args[0]) // str() of an already-str expr is identity; numeric formatting is a host-side concern
	default:
		return &CompileErrorLike{Kind: "UnsupportedOperation", Message: "unknown builtin " + n.Callee}
	}
}

// emitLen reads the shared length cell every container layout starts
// with (spec §3.5), or unpacks the low 32 bits of a packed string
// descriptor.
func (e *exprEmitter) emitLen(arg ir.Expr) error {
	if e.exprIsStr(arg) {
		if err := e.emitExpr(arg); err != nil {
			return err
		}
		e.f.emit(opI32WrapI64)
		return nil
	}
	if err := e.emitExpr(arg); err != nil {
		return err
	}
	e.f.memLoad32()
	return nil
}

// emitPrint evaluates its argument for side effects and stack balance,
// then discards it: print() is an effectless consumer by default (spec
// §4.3/§9) since host imports are out of scope for this core. Every IR
// expression leaves exactly one WASM value, so a single opDrop always
// restores the stack regardless of the argument's source type.
func (e *exprEmitter) emitPrint(arg ir.Expr) error {
	if err := e.emitExpr(arg); err != nil {
		return err
	}
	e.f.emit(opDrop)
	e.f.emitI32Const(0) // print() has no return value; IR calls always produce a result slot
	return nil
}

func (e *exprEmitter) emitAbs(arg ir.Expr) error {
	if e.exprIsFloat(arg) {
		if err := e.emitExpr(arg); err != nil {
			return err
		}
		e.f.emit(opF64Abs)
		return nil
	}
	// branchless integer abs: (x ^ (x >> 31)) - (x >> 31)
	tmp := e.f.newScratch(valI32)
	if err := e.emitExpr(arg); err != nil {
		return err
	}
	e.f.localSet(tmp)
	e.f.localGet(tmp)
	e.f.localGet(tmp)
	e.f.emitI32Const(31)
	e.f.emit(opI32ShrS)
	e.f.emit(opI32Xor)
	e.f.localGet(tmp)
	e.f.emitI32Const(31)
	e.f.emit(opI32ShrS)
	e.f.emit(opI32Sub)
	return nil
}

// emitMinMax implements the two-argument form with a select-free
// compare-and-branch sequence so it works uniformly for int and float.
func (e *exprEmitter) emitMinMax(args []ir.Expr, wantMin bool) error {
	if len(args) != 2 {
		return &CompileErrorLike{Kind: "UnsupportedOperation", Message: "min/max currently support exactly two arguments"}
	}
	floaty := e.exprIsFloat(args[0]) || e.exprIsFloat(args[1])
	vt := valI32
	if floaty {
		vt = valF64
	}
	a := e.f.newScratch(vt)
	b := e.f.newScratch(vt)
	if err := e.emitExpr(args[0]); err != nil {
		return err
	}
	e.f.localSet(a)
	if err := e.emitExpr(args[1]); err != nil {
		return err
	}
	e.f.localSet(b)

	e.f.localGet(a)
	e.f.localGet(b)
	if floaty {
		if wantMin {
			e.f.emit(opF64Lt)
		} else {
			e.f.emit(opF64Gt)
		}
	} else {
		if wantMin {
			e.f.emit(opI32LtS)
		} else {
			e.f.emit(opI32GtS)
		}
	}
	e.f.emit(opIf)
	e.f.emit(byte(vt))
	e.f.localGet(a)
	e.f.emit(opElse)
	e.f.localGet(b)
	e.f.emit(opEnd)
	return nil
}

// emitSum walks a list's cells with a runtime loop, accumulating into a
// scratch local (spec §3.5 list layout: [length][elems...]).
func (e *exprEmitter) emitSum(arg ir.Expr) error {
	floaty := false // element type isn't tracked by the backend, so sum() always accumulates i32 cells, float lists included
	vt := valI32
	if floaty {
		vt = valF64
	}
	base := e.f.newScratch(valI32)
	i := e.f.newScratch(valI32)
	acc := e.f.newScratch(vt)

	if err := e.emitExpr(arg); err != nil {
		return err
	}
	e.f.localSet(base)
	e.f.emitI32Const(0)
	e.f.localSet(i)
	e.f.emitI32Const(0)
	e.f.localSet(acc)

	e.f.enterBlock()
	e.f.enterLoop()

	e.f.localGet(i)
	e.f.localGet(base)
	e.f.memLoad32()
	e.f.emit(opI32GeS)
	e.f.emitU32(opBrIf, 1)

	e.f.localGet(acc)
	e.f.localGet(base)
	e.f.emitI32Const(4)
	e.f.emit(opI32Add)
	e.f.localGet(i)
	e.f.emitI32Const(4)
	e.f.emit(opI32Mul)
	e.f.emit(opI32Add)
	e.f.memLoad32()
	e.f.emit(opI32Add)
	e.f.localSet(acc)

	e.f.localGet(i)
	e.f.emitI32Const(1)
	e.f.emit(opI32Add)
	e.f.localSet(i)
	e.f.emitU32(opBr, 0)

	e.f.exitBlock()
	e.f.exitBlock()

	e.f.localGet(acc)
	return nil
}

func (e *exprEmitter) emitToInt(arg ir.Expr) error {
	if err := e.emitExpr(arg); err != nil {
		return err
	}
	if e.exprIsFloat(arg) {
		e.f.emit(opI32TruncF64S)
	}
	return nil
}

func (e *exprEmitter) emitToFloat(arg ir.Expr) error {
	if err := e.emitExpr(arg); err != nil {
		return err
	}
	if !e.exprIsFloat(arg) {
		e.f.emit(opF64ConvertI32S)
	}
	return nil
}

func (e *exprEmitter) emitToBool(arg ir.Expr) error {
	if err := e.emitExpr(arg); err != nil {
		return err
	}
	if e.exprIsFloat(arg) {
		e.f.emitF64Const(0)
		e.f.emit(opF64Ne)
		return nil
	}
	e.f.emit(opI32Eqz)
	e.f.emit(opI32Eqz) // bool(x) is x != 0; two Eqz avoids a dedicated "ne zero" opcode
	return nil
}

// exprIsStr mirrors exprIsFloat's approach for the packed-(offset,length)
// string representation (spec §3.5): a `*ir.Var` is str-typed when its
// declared local slot is i64, via the same lookupLocal table
// wasmTypeOfExpr already consults.
func (e *exprEmitter) exprIsStr(expr ir.Expr) bool {
	switch n := expr.(type) {
	case *ir.StrConst:
		return true
	case *ir.Var:
		_, vt, ok := e.f.lookupLocal(n.Name)
		return ok && vt == valI64
	default:
		return false
	}
}
