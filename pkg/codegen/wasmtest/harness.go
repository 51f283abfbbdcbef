// Package wasmtest loads a compiled module into a real tetratelabs/wazero
// runtime and calls its exports, giving the binary-level section tests in
// pkg/codegen an executable check: the module is not just well-formed
// bytes, it runs the way the source says it should (spec.md §6.2's
// "Validity" and "Compatibility requirement" properties).
package wasmtest

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Instance wraps one instantiated module for the lifetime of a test.
type Instance struct {
	ctx     context.Context
	runtime wazero.Runtime
	module  api.Module
}

// Load instantiates binary under an anonymous module name and returns an
// Instance ready for CallI32/CallF64.
func Load(binary []byte) (*Instance, error) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	mod, err := rt.Instantiate(ctx, binary)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	return &Instance{ctx: ctx, runtime: rt, module: mod}, nil
}

// Close releases the runtime and every module it instantiated.
func (in *Instance) Close() {
	in.runtime.Close(in.ctx)
}

// CallI32 invokes an exported function with i32 arguments and returns its
// single i32 result.
func (in *Instance) CallI32(name string, args ...int32) (int32, error) {
	packed := make([]uint64, len(args))
	for i, a := range args {
		packed[i] = api.EncodeI32(a)
	}
	fn := in.module.ExportedFunction(name)
	results, err := fn.Call(in.ctx, packed...)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return int32(uint32(results[0])), nil
}

// CallF64 invokes an exported function with f64 arguments and returns its
// single f64 result.
func (in *Instance) CallF64(name string, args ...float64) (float64, error) {
	packed := make([]uint64, len(args))
	for i, a := range args {
		packed[i] = api.EncodeF64(a)
	}
	fn := in.module.ExportedFunction(name)
	results, err := fn.Call(in.ctx, packed...)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return api.DecodeF64(results[0]), nil
}

// CallRaw invokes an exported function with raw packed uint64 arguments,
// for calls mixing value kinds (e.g. a method receiver pointer plus
// scalar arguments).
func (in *Instance) CallRaw(name string, args ...uint64) ([]uint64, error) {
	fn := in.module.ExportedFunction(name)
	return fn.Call(in.ctx, args...)
}

// Memory exposes the instantiated module's linear memory, for tests that
// want to peek at heap contents directly (e.g. confirming two class
// instances occupy distinct regions).
func (in *Instance) Memory() api.Memory {
	return in.module.Memory()
}
