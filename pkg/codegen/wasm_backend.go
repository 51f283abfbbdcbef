package codegen

import (
	"github.com/anistark/waspy/pkg/ir"
)

// WASMBackend is C5/C6: it drives a moduleBuilder through every function
// and class in an ir.Module and assembles a complete WASM binary.
// Grounded on the teacher's WASMBackend shape (one backend struct
// implementing the Backend interface, registered via init()), reworked
// from WAT-text emission to real section encoding since this spec's
// output contract (§6.2) is a binary module, not text.
type WASMBackend struct {
	BaseBackend
}

// NewWASMBackend creates a new WASM backend.
func NewWASMBackend(options *BackendOptions) Backend {
	return &WASMBackend{BaseBackend: NewBaseBackend(options)}
}

func (b *WASMBackend) Name() string { return "wasm" }

// Generate walks module and returns a standards-conformant WASM 1.0
// binary (spec §6.2).
func (b *WASMBackend) Generate(module *ir.Module) ([]byte, error) {
	mb := newModuleBuilder()

	for _, cls := range module.Classes {
		mb.registerClassLayout(cls)
	}

	ordered := orderedFunctions(module)
	for _, fn := range ordered {
		mb.registerFunction(fn)
	}

	for _, fn := range ordered {
		body, err := b.emitFunction(mb, fn)
		if err != nil {
			return nil, err
		}
		name := exportNameOf(fn)
		for i, n := range mb.funcNames {
			if n == name {
				mb.bodies[i] = body
				break
			}
		}
	}

	if err := mb.data.checkFits(); err != nil {
		return nil, err
	}

	b.Logger().WithField("functions", len(ordered)).Debug("assembling wasm module")
	return mb.assemble(), nil
}

// emitFunction builds one function's local-declaration vector and
// instruction stream (spec §4.4's prologue/epilogue contract).
func (b *WASMBackend) emitFunction(mb *moduleBuilder, fn *ir.Function) ([]byte, error) {
	class := ""
	if fn.IsMethod {
		class = fn.OwnerClass
	}
	fctx := newFuncContext(mb, class, fn.Params)
	em := newExprEmitter(fctx, mb)

	if err := em.emitBlock(fn.Body); err != nil {
		return nil, err
	}

	// Every exit path — an explicit `return`, or falling off the end of
	// the wrapped body block after an unhandled exception — must leave
	// the declared result type on the stack. An explicit `return` inside
	// the body already satisfies the validator via WASM's stack-
	// polymorphic rule for code following it; this epilogue covers the
	// remaining case of a function that runs to completion (or aborts
	// via an unmatched exception) without one.
	if fn.ReturnType != nil && !isNoneType(fn.ReturnType) {
		switch wasmValType(fn.ReturnType) {
		case valF64:
			fctx.emitF64Const(0)
		case valI64:
			fctx.emitI64Const(0)
		default:
			fctx.emitI32Const(0)
		}
	}

	return encodeFuncBody(fctx.locals, len(fn.Params), fctx.code), nil
}

func (b *WASMBackend) GetFileExtension() string { return ".wasm" }

func (b *WASMBackend) SupportsFeature(feature string) bool {
	switch feature {
	case FeatureFloatingPoint:
		return true
	case FeatureBitManipulation:
		return true
	case FeatureExceptionTags:
		return true
	case FeatureIndirectCalls:
		return false
	default:
		return false
	}
}

func init() {
	RegisterBackend("wasm", func(options *BackendOptions) Backend {
		return NewWASMBackend(options)
	})
}
