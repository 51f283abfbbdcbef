package codegen

import (
	"encoding/binary"
	"testing"

	"github.com/anistark/waspy/pkg/ir"
	"github.com/stretchr/testify/require"
)

func addFunc(a, b ir.Param) *ir.Function {
	return &ir.Function{
		Name:       "add",
		Params:     []ir.Param{a, b},
		ReturnType: ir.Int,
		Body: []ir.Stmt{
			&ir.Return{Value: &ir.BinOp{Op: ir.OpAdd, L: &ir.Var{Name: "a"}, R: &ir.Var{Name: "b"}}},
		},
	}
}

func TestGenerateProducesValidMagicAndVersion(t *testing.T) {
	mod := ir.NewModule()
	mod.Functions = append(mod.Functions, addFunc(ir.Param{Name: "a", Type: ir.Int}, ir.Param{Name: "b", Type: ir.Int}))

	backend := NewWASMBackend(&BackendOptions{})
	out, err := backend.Generate(mod)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(out), 8)
	require.Equal(t, wasmMagic, binary.LittleEndian.Uint32(out[0:4]))
	require.Equal(t, wasmVersion, binary.LittleEndian.Uint32(out[4:8]))
}

func TestGenerateIsDeterministic(t *testing.T) {
	mod := ir.NewModule()
	mod.Functions = append(mod.Functions, addFunc(ir.Param{Name: "a", Type: ir.Int}, ir.Param{Name: "b", Type: ir.Int}))

	out1, err := NewWASMBackend(&BackendOptions{}).Generate(mod)
	require.NoError(t, err)
	out2, err := NewWASMBackend(&BackendOptions{}).Generate(mod)
	require.NoError(t, err)
	require.Equal(t, out1, out2)
}

func TestGenerateExportsEveryFunctionAndClassMethod(t *testing.T) {
	mod := ir.NewModule()
	mod.Functions = append(mod.Functions, addFunc(ir.Param{Name: "a", Type: ir.Int}, ir.Param{Name: "b", Type: ir.Int}))
	mod.Classes = append(mod.Classes, &ir.Class{
		Name:   "Point",
		Fields: []ir.Field{{Name: "x", Type: ir.Int}, {Name: "y", Type: ir.Int}},
		Init: &ir.Function{
			Name:       "__init__",
			Params:     []ir.Param{{Name: "self", Type: &ir.ClassType{Name: "Point"}}, {Name: "x", Type: ir.Int}, {Name: "y", Type: ir.Int}},
			IsMethod:   true,
			OwnerClass: "Point",
			Body: []ir.Stmt{
				&ir.AttrAssign{Object: &ir.Var{Name: "self"}, Name: "x", Value: &ir.Var{Name: "x"}},
				&ir.AttrAssign{Object: &ir.Var{Name: "self"}, Name: "y", Value: &ir.Var{Name: "y"}},
			},
		},
	})

	out, err := NewWASMBackend(&BackendOptions{}).Generate(mod)
	require.NoError(t, err)

	names := extractExportNames(t, out)
	require.Contains(t, names, "add")
	require.Contains(t, names, "Point::__init__")
	require.Contains(t, names, "memory")
}

func TestEncodeMemorySectionDeclaresSinglePage(t *testing.T) {
	mb := newModuleBuilder()
	got := mb.encodeMemorySection()
	require.Equal(t, []byte{0x01, 0x00, 0x01}, got)
}

func TestTypeSectionDedupesIdenticalSignatures(t *testing.T) {
	mb := newModuleBuilder()
	sig := funcSig{params: []valType{valI32, valI32}, results: []valType{valI32}}
	idx1 := mb.typeIndexOf(sig)
	idx2 := mb.typeIndexOf(sig)
	require.Equal(t, idx1, idx2)
	require.Len(t, mb.types, 1)
}

// extractExportNames walks the raw export-section bytes of a tiny
// binary module well enough to assert names were written, without
// reimplementing a full decoder: it scans for the section header and
// reads through the vec.
func extractExportNames(t *testing.T, module []byte) []string {
	t.Helper()
	pos := 8 // past magic+version
	var names []string
	for pos < len(module) {
		id := module[pos]
		pos++
		size, n := readULEB128(module[pos:])
		pos += n
		body := module[pos : pos+int(size)]
		if sectionID(id) == secExport {
			bp := 0
			count, n := readULEB128(body[bp:])
			bp += n
			for i := uint64(0); i < count; i++ {
				nameLen, n := readULEB128(body[bp:])
				bp += n
				names = append(names, string(body[bp:bp+int(nameLen)]))
				bp += int(nameLen)
				bp++ // kind byte
				_, n = readULEB128(body[bp:])
				bp += n
			}
		}
		pos += int(size)
	}
	return names
}

func readULEB128(b []byte) (uint64, int) {
	var result uint64
	var shift uint
	var n int
	for _, c := range b {
		n++
		result |= uint64(c&0x7F) << shift
		if c&0x80 == 0 {
			break
		}
		shift += 7
	}
	return result, n
}
