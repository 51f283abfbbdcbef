package codegen

import "github.com/anistark/waspy/pkg/ir"

// wasmValType maps a source-level type to the single WASM value it
// occupies on the stack / in a local (spec §3.5). Every IR type maps to
// exactly one WASM value:
//
//   - int, bool              -> i32
//   - float                  -> f64
//   - str                    -> i64, packed (offset<<32 | length) — the
//     "stack pair" spec §3.5 describes, implemented as one 64-bit value
//     instead of two locals so every expression keeps a 1:1 mapping to a
//     WASM value.
//   - bytes, list, dict, tuple, range, class instance, module, Any,
//     Optional, Union -> i32 (a linear-memory offset; 0 doubles as the
//     null/None sentinel for Optional per §3.5 invariant i)
func wasmValType(t ir.Type) valType {
	switch bt := t.(type) {
	case *ir.BasicType:
		switch bt.Kind {
		case ir.KindInt, ir.KindBool:
			return valI32
		case ir.KindFloat:
			return valF64
		case ir.KindStr:
			return valI64
		default:
			return valI32
		}
	default:
		return valI32
	}
}

func isFloatType(t ir.Type) bool {
	bt, ok := t.(*ir.BasicType)
	return ok && bt.Kind == ir.KindFloat
}

func isStrType(t ir.Type) bool {
	bt, ok := t.(*ir.BasicType)
	return ok && bt.Kind == ir.KindStr
}
