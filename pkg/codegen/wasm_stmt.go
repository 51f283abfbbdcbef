package codegen

import "github.com/anistark/waspy/pkg/ir"

// exceptionTags is the fixed injective tag table spec §4.2 defines.
// Unrecognized exception type names fall back to RuntimeError's tag
// rather than failing compilation, since user-defined exception
// classes aren't distinguished from built-ins at this layer.
var exceptionTags = map[string]int32{
	"ZeroDivisionError": 1,
	"ValueError":         2,
	"TypeError":          3,
	"KeyError":           4,
	"IndexError":         5,
	"AttributeError":     6,
	"RuntimeError":       7,
}

func tagOf(typeName string) int32 {
	if t, ok := exceptionTags[typeName]; ok {
		return t
	}
	return exceptionTags["RuntimeError"]
}

// emitBlock emits a statement list wrapped in its own block, checking
// exc_flag after every statement and branching out of the remaining
// statements once it's set (spec §4.4: "after each statement ... that
// may raise, emit a check"). Checking after every statement rather than
// only raise-capable ones is a deliberate simplification: it is always
// correct, just occasionally redundant.
func (e *exprEmitter) emitBlock(stmts []ir.Stmt) error {
	e.f.enterBlock()
	depth := e.f.labelDepth
	for _, s := range stmts {
		if err := e.emitStmt(s); err != nil {
			return err
		}
		e.f.localGet(e.f.excFlagIdx)
		e.f.branchTo(depth, true)
	}
	e.f.exitBlock()
	return nil
}

func (e *exprEmitter) emitStmt(s ir.Stmt) error {
	switch n := s.(type) {
	case *ir.Assign:
		return e.emitAssign(n)
	case *ir.AugAssign:
		return e.emitAugAssign(n)
	case *ir.IndexAssign:
		return e.emitIndexAssign(n)
	case *ir.AttrAssign:
		return e.emitAttrAssign(n)
	case *ir.If:
		return e.emitIf(n)
	case *ir.While:
		return e.emitWhile(n)
	case *ir.For:
		return e.emitFor(n)
	case *ir.Return:
		return e.emitReturn(n)
	case *ir.ExprStmt:
		if err := e.emitExpr(n.Value); err != nil {
			return err
		}
		e.f.emit(opDrop)
		return nil
	case *ir.Raise:
		return e.emitRaise(n)
	case *ir.Try:
		return e.emitTry(n)
	case *ir.With:
		return e.emitWith(n)
	case *ir.ImportModule:
		return nil // resolved by the external name-binding collaborator, not codegen
	case *ir.Break:
		return e.emitBreak()
	case *ir.Continue:
		return e.emitContinue()
	case *ir.Pass:
		return nil
	default:
		return &CompileErrorLike{Kind: "UnsupportedConstruct", Message: "statement not supported by the WASM backend"}
	}
}

func (e *exprEmitter) emitAssign(n *ir.Assign) error {
	v, ok := n.Target.(*ir.Var)
	if !ok {
		return &CompileErrorLike{Kind: "UnsupportedConstruct", Message: "assignment target"}
	}
	vt := e.wasmTypeOfExpr(n.Value)
	idx := e.f.declareLocal(v.Name, vt)
	if err := e.emitExpr(n.Value); err != nil {
		return err
	}
	e.f.localSet(idx)
	return nil
}

func (e *exprEmitter) emitAugAssign(n *ir.AugAssign) error {
	v, ok := n.Target.(*ir.Var)
	if !ok {
		return &CompileErrorLike{Kind: "UnsupportedConstruct", Message: "augmented assignment target"}
	}
	idx, _, ok := e.f.lookupLocal(v.Name)
	if !ok {
		return &CompileErrorLike{Kind: "UnknownVariable", Message: v.Name}
	}
	if err := e.emitBinOp(&ir.BinOp{Op: n.Op, L: n.Target, R: n.Value}); err != nil {
		return err
	}
	e.f.localSet(idx)
	return nil
}

// emitIndexAssign mirrors emitIndex's address arithmetic: the target
// cell lives at container+4+4*key (spec §3.5: "[length][elems...]").
func (e *exprEmitter) emitIndexAssign(n *ir.IndexAssign) error {
	if err := e.emitExpr(n.Container); err != nil {
		return err
	}
	e.f.emitI32Const(4)
	e.f.emit(opI32Add)
	if err := e.emitExpr(n.Key); err != nil {
		return err
	}
	e.f.emitI32Const(4)
	e.f.emit(opI32Mul)
	e.f.emit(opI32Add)
	if err := e.emitExpr(n.Value); err != nil {
		return err
	}
	e.f.memStore32()
	return nil
}

func (e *exprEmitter) emitAttrAssign(n *ir.AttrAssign) error {
	if err := e.emitExpr(n.Object); err != nil {
		return err
	}
	offset, err := e.resolveFieldOffset(n.Name)
	if err != nil {
		return err
	}
	if offset != 0 {
		e.f.emitI32Const(int32(offset) * 4)
		e.f.emit(opI32Add)
	}
	if err := e.emitExpr(n.Value); err != nil {
		return err
	}
	e.f.memStore32()
	return nil
}

func (e *exprEmitter) emitIf(n *ir.If) error {
	if err := e.emitExpr(n.Cond); err != nil {
		return err
	}
	e.f.enterIf()
	if err := e.emitBlock(n.Then); err != nil {
		return err
	}
	if len(n.Else) > 0 {
		e.f.elseBranch()
		if err := e.emitBlock(n.Else); err != nil {
			return err
		}
	}
	e.f.exitBlock()
	return nil
}

// emitWhile lowers to `block (loop (br_if cond-false loop (body) br 0))`
// (spec §4.4), with break/continue bound to the block/loop labels.
func (e *exprEmitter) emitWhile(n *ir.While) error {
	e.f.enterBlock()
	breakDepth := e.f.labelDepth
	e.f.enterLoop()
	contDepth := e.f.labelDepth
	e.f.breakLabels = append(e.f.breakLabels, breakDepth)
	e.f.continueLabels = append(e.f.continueLabels, contDepth)

	if err := e.emitExpr(n.Cond); err != nil {
		return err
	}
	e.f.emit(opI32Eqz)
	e.f.branchTo(breakDepth, true)

	if err := e.emitBlock(n.Body); err != nil {
		return err
	}
	e.f.branchTo(contDepth, false)
	e.f.exitBlock() // loop
	e.f.exitBlock() // block

	e.f.breakLabels = e.f.breakLabels[:len(e.f.breakLabels)-1]
	e.f.continueLabels = e.f.continueLabels[:len(e.f.continueLabels)-1]
	return nil
}

// emitFor dispatches on the iterable's static shape (spec §4.4's three
// strategies). A literal range() drives a counting loop directly from
// its start/stop/step expressions; anything else is treated as a
// length-prefixed list of 4-byte cells and walked by index. Bytes and
// dict objects are not distinguished from lists at this layer: a bytes
// object is read as 4-byte cells, not one element per byte, and a dict
// is read as its flat key/value cells.
func (e *exprEmitter) emitFor(n *ir.For) error {
	if rc, ok := n.Iterable.(*ir.RangeCall); ok {
		return e.emitForRange(n, rc)
	}
	return e.emitForContainer(n)
}

func (e *exprEmitter) emitForRange(n *ir.For, rc *ir.RangeCall) error {
	startL := e.f.newScratch(valI32)
	stopL := e.f.newScratch(valI32)
	stepL := e.f.newScratch(valI32)
	cur := e.f.newScratch(valI32)

	if err := e.emitExpr(rc.Start); err != nil {
		return err
	}
	e.f.localSet(startL)
	if err := e.emitExpr(rc.Stop); err != nil {
		return err
	}
	e.f.localSet(stopL)
	if err := e.emitExpr(rc.Step); err != nil {
		return err
	}
	e.f.localSet(stepL)
	e.f.localGet(startL)
	e.f.localSet(cur)

	idx := e.f.declareLocal(n.Var, valI32)

	e.f.enterBlock()
	breakDepth := e.f.labelDepth
	e.f.enterLoop()
	contDepth := e.f.labelDepth
	e.f.breakLabels = append(e.f.breakLabels, breakDepth)
	e.f.continueLabels = append(e.f.continueLabels, contDepth)

	// continues while (step > 0 ? cur < stop : cur > stop)
	e.f.localGet(stepL)
	e.f.emitI32Const(0)
	e.f.emit(opI32GtS)
	e.f.emit(opIf)
	e.f.emit(byte(valI32))
	e.f.localGet(cur)
	e.f.localGet(stopL)
	e.f.emit(opI32LtS)
	e.f.emit(opElse)
	e.f.localGet(cur)
	e.f.localGet(stopL)
	e.f.emit(opI32GtS)
	e.f.emit(opEnd)
	e.f.emit(opI32Eqz)
	e.f.branchTo(breakDepth, true)

	e.f.localGet(cur)
	e.f.localSet(idx)

	if err := e.emitBlock(n.Body); err != nil {
		return err
	}

	e.f.localGet(cur)
	e.f.localGet(stepL)
	e.f.emit(opI32Add)
	e.f.localSet(cur)
	e.f.branchTo(contDepth, false)
	e.f.exitBlock()
	e.f.exitBlock()

	e.f.breakLabels = e.f.breakLabels[:len(e.f.breakLabels)-1]
	e.f.continueLabels = e.f.continueLabels[:len(e.f.continueLabels)-1]
	return nil
}

func (e *exprEmitter) emitForContainer(n *ir.For) error {
	base := e.f.newScratch(valI32)
	if err := e.emitExpr(n.Iterable); err != nil {
		return err
	}
	e.f.localSet(base)
	length := e.f.newScratch(valI32)
	e.f.localGet(base)
	e.f.memLoad32()
	e.f.localSet(length)
	i := e.f.newScratch(valI32)
	e.f.emitI32Const(0)
	e.f.localSet(i)

	idx := e.f.declareLocal(n.Var, valI32)

	e.f.enterBlock()
	breakDepth := e.f.labelDepth
	e.f.enterLoop()
	contDepth := e.f.labelDepth
	e.f.breakLabels = append(e.f.breakLabels, breakDepth)
	e.f.continueLabels = append(e.f.continueLabels, contDepth)

	e.f.localGet(i)
	e.f.localGet(length)
	e.f.emit(opI32GeS)
	e.f.branchTo(breakDepth, true)

	e.f.localGet(base)
	e.f.emitI32Const(4)
	e.f.emit(opI32Add)
	e.f.localGet(i)
	e.f.emitI32Const(4)
	e.f.emit(opI32Mul)
	e.f.emit(opI32Add)
	e.f.memLoad32()
	e.f.localSet(idx)

	if err := e.emitBlock(n.Body); err != nil {
		return err
	}

	e.f.localGet(i)
	e.f.emitI32Const(1)
	e.f.emit(opI32Add)
	e.f.localSet(i)
	e.f.branchTo(contDepth, false)
	e.f.exitBlock()
	e.f.exitBlock()

	e.f.breakLabels = e.f.breakLabels[:len(e.f.breakLabels)-1]
	e.f.continueLabels = e.f.continueLabels[:len(e.f.continueLabels)-1]
	return nil
}

// emitReturn evaluates the return value into a scratch local first rather
// than returning straight off the expression stack, so it can check
// exc_flag before actually leaving the function. Without that check, an
// exception raised while evaluating the value (e.g. the zero-divisor
// guard in emitCheckedIntDivMod) would hand the caller a placeholder
// result instead of letting the enclosing block's post-statement check
// (spec §4.4) route to the nearest try/except handler.
func (e *exprEmitter) emitReturn(n *ir.Return) error {
	if n.Value == nil {
		e.f.emit(opReturn)
		return nil
	}
	ret := e.f.newScratch(e.wasmTypeOfExpr(n.Value))
	if err := e.emitExpr(n.Value); err != nil {
		return err
	}
	e.f.localSet(ret)

	e.f.localGet(e.f.excFlagIdx)
	e.f.emit(opI32Eqz)
	e.f.enterIf()
	e.f.localGet(ret)
	e.f.emit(opReturn)
	e.f.exitBlock()
	return nil
}

// emitRaise sets the two exception-state locals (spec §4.2); the
// enclosing emitBlock's post-statement check propagates the flag to the
// nearest handler dispatch, or to the function's end if none is active.
// A bare `raise` (re-raise) leaves exc_type_tag untouched and only
// re-asserts the flag: entering a handler clears exc_flag but not
// exc_type_tag, so the tag still names the exception being handled.
func (e *exprEmitter) emitRaise(n *ir.Raise) error {
	if n.Expr == nil {
		e.f.emitI32Const(1)
		e.f.localSet(e.f.excFlagIdx)
		return nil
	}
	call, ok := n.Expr.(*ir.Call)
	typeName := "RuntimeError"
	if ok {
		typeName = call.Callee
	}
	e.f.emitI32Const(1)
	e.f.localSet(e.f.excFlagIdx)
	e.f.emitI32Const(tagOf(typeName))
	e.f.localSet(e.f.excTypeTagIdx)
	return nil
}

// emitTry implements the handler-dispatch model of spec §4.4: the body
// runs inside emitBlock's short-circuiting wrapper, then — if exc_flag
// is set — each handler's type tag is tested in source order, the first
// match clears the flag and runs its body, and an unmatched exception
// is left set (propagating to the enclosing block). finally always runs.
func (e *exprEmitter) emitTry(n *ir.Try) error {
	if err := e.emitBlock(n.Body); err != nil {
		return err
	}

	e.f.localGet(e.f.excFlagIdx)
	e.f.enterIf()
	if err := e.emitHandlerChain(n.Handlers, 0); err != nil {
		return err
	}
	e.f.exitBlock()

	if len(n.Finally) > 0 {
		if err := e.emitBlock(n.Finally); err != nil {
			return err
		}
	}
	return nil
}

func (e *exprEmitter) emitHandlerChain(handlers []ir.Handler, i int) error {
	if i >= len(handlers) {
		return nil // unmatched: exc_flag stays set, propagates outward
	}
	h := handlers[i]
	if h.TypeName == "" {
		return e.emitHandlerBody(h)
	}
	e.f.localGet(e.f.excTypeTagIdx)
	e.f.emitI32Const(tagOf(h.TypeName))
	e.f.emit(opI32Eq)
	e.f.enterIf()
	if err := e.emitHandlerBody(h); err != nil {
		return err
	}
	e.f.elseBranch()
	if err := e.emitHandlerChain(handlers, i+1); err != nil {
		return err
	}
	e.f.exitBlock()
	return nil
}

func (e *exprEmitter) emitHandlerBody(h ir.Handler) error {
	if h.Var != "" {
		idx := e.f.declareLocal(h.Var, valI32)
		e.f.localGet(e.f.excTypeTagIdx)
		e.f.localSet(idx)
	}
	e.f.emitI32Const(0)
	e.f.localSet(e.f.excFlagIdx)
	return e.emitBlock(h.Body)
}

// emitWith snapshots exc_flag, runs the body, and restores the snapshot
// only if no exception is pending afterward — an exception raised
// inside the body still propagates (spec §4.4).
func (e *exprEmitter) emitWith(n *ir.With) error {
	vt := e.wasmTypeOfExpr(n.CtxExpr)
	if err := e.emitExpr(n.CtxExpr); err != nil {
		return err
	}
	if n.AsVar != "" {
		idx := e.f.declareLocal(n.AsVar, vt)
		e.f.localSet(idx)
	} else {
		e.f.emit(opDrop)
	}

	snapshot := e.f.newScratch(valI32)
	e.f.localGet(e.f.excFlagIdx)
	e.f.localSet(snapshot)

	if err := e.emitBlock(n.Body); err != nil {
		return err
	}

	e.f.localGet(e.f.excFlagIdx)
	e.f.emitI32Const(0)
	e.f.emit(opI32Eq)
	e.f.enterIf()
	e.f.localGet(snapshot)
	e.f.localSet(e.f.excFlagIdx)
	e.f.exitBlock()
	return nil
}

func (e *exprEmitter) emitBreak() error {
	if len(e.f.breakLabels) == 0 {
		return &CompileErrorLike{Kind: "UnsupportedConstruct", Message: "break outside a loop"}
	}
	e.f.branchTo(e.f.breakLabels[len(e.f.breakLabels)-1], false)
	return nil
}

func (e *exprEmitter) emitContinue() error {
	if len(e.f.continueLabels) == 0 {
		return &CompileErrorLike{Kind: "UnsupportedConstruct", Message: "continue outside a loop"}
	}
	e.f.branchTo(e.f.continueLabels[len(e.f.continueLabels)-1], false)
	return nil
}
