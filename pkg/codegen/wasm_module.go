package codegen

import "github.com/anistark/waspy/pkg/ir"

// funcSig is a WASM function type (spec §6.2's type section entries).
type funcSig struct {
	params  []valType
	results []valType
}

func (s funcSig) equal(o funcSig) bool {
	if len(s.params) != len(o.params) || len(s.results) != len(o.results) {
		return false
	}
	for i := range s.params {
		if s.params[i] != o.params[i] {
			return false
		}
	}
	for i := range s.results {
		if s.results[i] != o.results[i] {
			return false
		}
	}
	return true
}

// classLayout records cell indices for each field of a class (spec
// §3.5: "Class instance [field_0][field_1]... (no header)").
type classLayout struct {
	fieldIndex map[string]int
	fieldCount int
}

// moduleBuilder is C6: the assembler that turns a converted ir.Module
// into a WASM binary image. Grounded on the teacher's single-pass
// section-by-section code generator shape (pkg/codegen/wasm_backend.go),
// generalized from WAT text emission to real binary sections.
type moduleBuilder struct {
	imports   []importFunc
	funcNames []string
	funcIndex map[string]int
	sigs      []funcSig    // parallel to funcNames
	bodies    [][]byte     // parallel to funcNames, filled during emission
	types     []funcSig
	typeIndex map[string]int

	classes map[string]*classLayout

	data *dataLayout

	heapNextGlobal int // global index holding the bump-allocator cursor
}

// importFunc is a host function the module imports. Host imports are an
// explicit non-goal (spec.md §1): the builder keeps the slice and
// encodeImportSection for structural completeness, but nothing in this
// backend calls declareImport today — print() is lowered to an
// effectless stack-consumer instead (spec.md §4.3/§9), not a host call.
type importFunc struct {
	name string
	sig  funcSig
}

func newModuleBuilder() *moduleBuilder {
	return &moduleBuilder{
		funcIndex:      make(map[string]int),
		typeIndex:      make(map[string]int),
		classes:        make(map[string]*classLayout),
		data:           newDataLayout(),
		heapNextGlobal: 0, // the only global this module declares (encodeGlobalSection)
	}
}

func (m *moduleBuilder) declareImport(name string, sig funcSig) {
	idx := len(m.imports)
	m.imports = append(m.imports, importFunc{name: name, sig: sig})
	m.funcIndex[name] = idx
	m.typeIndexOf(sig)
}

// orderedFunctions lists every function the module exports, in the
// deterministic order spec §6.2 requires: module-level functions in
// declaration order, then each class's __init__ followed by its other
// methods in declaration order, classes themselves in declaration order.
func orderedFunctions(mod *ir.Module) []*ir.Function {
	var out []*ir.Function
	out = append(out, mod.Functions...)
	for _, cls := range mod.Classes {
		if cls.Init != nil {
			out = append(out, cls.Init)
		}
		out = append(out, cls.Methods...)
	}
	return out
}

func exportNameOf(fn *ir.Function) string {
	if fn.IsMethod {
		return ir.MangledMethodName(fn.OwnerClass, fn.Name)
	}
	return fn.Name
}

// registerFunction reserves a function index and WASM type for fn
// without emitting its body yet, so mutually-recursive/forward calls
// resolve during the expression emission pass.
func (m *moduleBuilder) registerFunction(fn *ir.Function) int {
	sig := funcSig{}
	for _, p := range fn.Params {
		sig.params = append(sig.params, wasmValType(p.Type))
	}
	if fn.ReturnType != nil && !isNoneType(fn.ReturnType) {
		sig.results = []valType{wasmValType(fn.ReturnType)}
	}
	idx := len(m.imports) + len(m.funcNames)
	name := exportNameOf(fn)
	m.funcNames = append(m.funcNames, name)
	m.sigs = append(m.sigs, sig)
	m.bodies = append(m.bodies, nil)
	m.funcIndex[name] = idx
	m.typeIndexOf(sig)
	return idx
}

func (m *moduleBuilder) typeIndexOf(sig funcSig) int {
	key := sigKey(sig)
	if idx, ok := m.typeIndex[key]; ok {
		return idx
	}
	idx := len(m.types)
	m.types = append(m.types, sig)
	m.typeIndex[key] = idx
	return idx
}

func sigKey(sig funcSig) string {
	b := make([]byte, 0, len(sig.params)+len(sig.results)+1)
	for _, p := range sig.params {
		b = append(b, byte(p))
	}
	b = append(b, '|')
	for _, r := range sig.results {
		b = append(b, byte(r))
	}
	return string(b)
}

func isNoneType(t ir.Type) bool {
	bt, ok := t.(*ir.BasicType)
	return ok && bt.Kind == ir.KindNone
}

// registerClassLayout assigns cell indices to a class's fields in
// declaration order.
func (m *moduleBuilder) registerClassLayout(cls *ir.Class) {
	layout := &classLayout{fieldIndex: make(map[string]int), fieldCount: len(cls.Fields)}
	for i, f := range cls.Fields {
		layout.fieldIndex[f.Name] = i
	}
	m.classes[cls.Name] = layout
}

// assemble emits the complete binary module: magic, version, then every
// section in ascending ID order (spec §6.2).
func (m *moduleBuilder) assemble() []byte {
	out := make([]byte, 0, 4096)
	out = appendU32LE(out, wasmMagic)
	out = appendU32LE(out, wasmVersion)

	out = section(out, secType, m.encodeTypeSection())
	if len(m.imports) > 0 {
		out = section(out, secImport, m.encodeImportSection())
	}
	out = section(out, secFunction, m.encodeFunctionSection())
	out = section(out, secMemory, m.encodeMemorySection())
	out = section(out, secGlobal, m.encodeGlobalSection())
	out = section(out, secExport, m.encodeExportSection())
	out = section(out, secCode, m.encodeCodeSection())
	if len(m.data.buf) > 0 {
		out = section(out, secData, m.encodeDataSection())
	}
	return out
}

func appendU32LE(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func (m *moduleBuilder) encodeImportSection() []byte {
	var body []byte
	for _, imp := range m.imports {
		body = putName(body, "env")
		body = putName(body, imp.name)
		body = append(body, kindFunc)
		body = putULEB128(body, uint64(m.typeIndexOf(imp.sig)))
	}
	return putVec(nil, len(m.imports), body)
}

func (m *moduleBuilder) encodeTypeSection() []byte {
	var body []byte
	for _, t := range m.types {
		var entry []byte
		entry = append(entry, funcTypeTag)
		entry = putULEB128(entry, uint64(len(t.params)))
		for _, p := range t.params {
			entry = append(entry, byte(p))
		}
		entry = putULEB128(entry, uint64(len(t.results)))
		for _, r := range t.results {
			entry = append(entry, byte(r))
		}
		body = append(body, entry...)
	}
	return putVec(nil, len(m.types), body)
}

func (m *moduleBuilder) encodeFunctionSection() []byte {
	var body []byte
	for _, sig := range m.sigs {
		body = putULEB128(body, uint64(m.typeIndexOf(sig)))
	}
	return putVec(nil, len(m.sigs), body)
}

// encodeMemorySection declares exactly one memory, min=1 page, no max
// (spec §6.2). heapBase sits at the very end of that page, so every heap
// allocation first grows memory to cover its bytes (see growMemoryFor in
// wasm_expr.go).
func (m *moduleBuilder) encodeMemorySection() []byte {
	var body []byte
	body = append(body, 0x00) // limits flag: min only, no max
	body = putULEB128(body, 1)
	return putVec(nil, 1, body)
}

func (m *moduleBuilder) encodeGlobalSection() []byte {
	var body []byte
	body = append(body, byte(valI32), 0x01 /* mutable */)
	body = append(body, opI32Const)
	body = putSLEB128(body, int64(heapBase))
	body = append(body, opEnd)
	return putVec(nil, 1, body)
}

func (m *moduleBuilder) encodeExportSection() []byte {
	var body []byte
	count := 0
	for _, name := range m.funcNames {
		body = putName(body, name)
		body = append(body, kindFunc)
		body = putULEB128(body, uint64(m.funcIndex[name]))
		count++
	}
	body = putName(body, "memory")
	body = append(body, kindMemory)
	body = putULEB128(body, 0)
	count++
	return putVec(nil, count, body)
}

func (m *moduleBuilder) encodeCodeSection() []byte {
	var body []byte
	for _, b := range m.bodies {
		body = putULEB128(body, uint64(len(b)))
		body = append(body, b...)
	}
	return putVec(nil, len(m.bodies), body)
}

func (m *moduleBuilder) encodeDataSection() []byte {
	var entry []byte
	entry = append(entry, 0x00) // memory index 0, active, offset expr follows
	entry = append(entry, opI32Const)
	entry = putSLEB128(entry, 0)
	entry = append(entry, opEnd)
	entry = putULEB128(entry, uint64(len(m.data.buf)))
	entry = append(entry, m.data.buf...)
	return putVec(nil, 1, entry)
}

// encodeFuncBody wraps a function's compiled instruction stream with its
// local-declarations vector (spec §6.2: locals listed as run-length
// groups by type, beyond the parameter locals which need no redeclaration).
func encodeFuncBody(locals []localSlot, paramCount int, code []byte) []byte {
	var groups []struct {
		vt    valType
		count int
	}
	for _, l := range locals[paramCount:] {
		if len(groups) > 0 && groups[len(groups)-1].vt == l.vt {
			groups[len(groups)-1].count++
			continue
		}
		groups = append(groups, struct {
			vt    valType
			count int
		}{l.vt, 1})
	}
	var body []byte
	body = putULEB128(body, uint64(len(groups)))
	for _, g := range groups {
		body = putULEB128(body, uint64(g.count))
		body = append(body, byte(g.vt))
	}
	body = append(body, code...)
	body = append(body, opEnd)
	return body
}
