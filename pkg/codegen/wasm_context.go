package codegen

import "github.com/anistark/waspy/pkg/ir"

// localSlot records one function-local's WASM value type, in
// declaration order, matching the order the code section must list them.
type localSlot struct {
	vt valType
}

// funcContext is C3: the per-function emission state. Grounded on the
// teacher's codegen register-allocation context, reworked from Z80
// physical registers to WASM's flat local-index space. exc_flag/
// exc_type_tag are the two always-present locals spec §5.2 describes for
// the non-unwinding exception model.
type funcContext struct {
	mod    *moduleBuilder
	class  string // "" unless this is a method
	locals []localSlot
	names  map[string]int // variable name -> local index (most recent binding)

	excFlagIdx    int
	excTypeTagIdx int

	code []byte

	// labels names the enclosing loop targets, innermost last, for
	// break/continue resolution (spec §5.1's structured-control-flow
	// strategies).
	breakLabels    []uint32
	continueLabels []uint32
	labelDepth     uint32
}

func newFuncContext(mod *moduleBuilder, class string, params []ir.Param) *funcContext {
	f := &funcContext{mod: mod, class: class, names: make(map[string]int)}
	for _, p := range params {
		f.declareLocal(p.Name, wasmValType(p.Type))
	}
	f.excFlagIdx = f.newScratch(valI32)
	f.excTypeTagIdx = f.newScratch(valI32)
	return f
}

// declareLocal binds name to a fresh local slot of type vt, or returns
// the existing slot if name is already bound (repeated assignment to a
// name reuses its slot rather than shadowing, matching this language's
// Python-like rebinding semantics).
func (f *funcContext) declareLocal(name string, vt valType) int {
	if idx, ok := f.names[name]; ok {
		return idx
	}
	idx := len(f.locals)
	f.locals = append(f.locals, localSlot{vt: vt})
	f.names[name] = idx
	return idx
}

func (f *funcContext) lookupLocal(name string) (int, valType, bool) {
	idx, ok := f.names[name]
	if !ok {
		return 0, 0, false
	}
	return idx, f.locals[idx].vt, true
}

// newScratch allocates an unnamed local the emitter can use as
// temporary storage (e.g. holding an index-assignment's value expression
// while the container/key are evaluated).
func (f *funcContext) newScratch(vt valType) int {
	idx := len(f.locals)
	f.locals = append(f.locals, localSlot{vt: vt})
	return idx
}

func (f *funcContext) paramCount() int {
	return len(f.locals)
}

// --- raw emission helpers ---

func (f *funcContext) emit(b byte) { f.code = append(f.code, b) }

func (f *funcContext) emitU32(b byte, v uint32) {
	f.code = append(f.code, b)
	f.code = putULEB128(f.code, uint64(v))
}

func (f *funcContext) emitI32Const(v int32) {
	f.code = append(f.code, opI32Const)
	f.code = putSLEB128(f.code, int64(v))
}

func (f *funcContext) emitI64Const(v int64) {
	f.code = append(f.code, opI64Const)
	f.code = putSLEB128(f.code, v)
}

func (f *funcContext) emitF64Const(v float64) {
	f.code = append(f.code, opF64Const)
	f.code = putF64(f.code, v)
}

func (f *funcContext) localGet(idx int)  { f.emitU32(opLocalGet, uint32(idx)) }
func (f *funcContext) localSet(idx int)  { f.emitU32(opLocalSet, uint32(idx)) }
func (f *funcContext) localTee(idx int)  { f.emitU32(opLocalTee, uint32(idx)) }
func (f *funcContext) globalGet(idx int) { f.emitU32(opGlobalGet, uint32(idx)) }
func (f *funcContext) globalSet(idx int) { f.emitU32(opGlobalSet, uint32(idx)) }

// enterBlock/enterLoop/enterIf open a structured control construct and
// bump labelDepth; exitBlock closes the innermost open construct. Every
// br/br_if targeting a construct opened this way computes its relative
// depth as the current labelDepth minus the depth recorded when that
// construct was entered (spec §4.2's label stack).
func (f *funcContext) enterBlock() {
	f.emit(opBlock)
	f.emit(blockTypeVoidByte)
	f.labelDepth++
}

func (f *funcContext) enterLoop() {
	f.emit(opLoop)
	f.emit(blockTypeVoidByte)
	f.labelDepth++
}

func (f *funcContext) enterIf() {
	f.emit(opIf)
	f.emit(blockTypeVoidByte)
	f.labelDepth++
}

func (f *funcContext) elseBranch() { f.emit(opElse) }

func (f *funcContext) exitBlock() {
	f.emit(opEnd)
	f.labelDepth--
}

// branchTo emits br (or br_if when cond is true) to the construct whose
// entry depth was recorded as target.
func (f *funcContext) branchTo(target uint32, conditional bool) {
	rel := f.labelDepth - target
	if conditional {
		f.emitU32(opBrIf, rel)
		return
	}
	f.emitU32(opBr, rel)
}

// memLoad32/memStore32 address 32-bit-aligned cells in linear memory —
// the uniform cell width every heap layout in spec §3.5 is built from.
func (f *funcContext) memLoad32() {
	f.emit(opI32Load)
	f.code = putULEB128(f.code, 2) // align = 4 bytes
	f.code = putULEB128(f.code, 0) // offset
}

func (f *funcContext) memStore32() {
	f.emit(opI32Store)
	f.code = putULEB128(f.code, 2)
	f.code = putULEB128(f.code, 0)
}
