package codegen

// Optimizer models the downstream consumer spec.md §6.3 describes: "a
// binary optimizer treated as a total function whose output is not
// inspected." It operates on the assembled binary module, after Backend
// has produced it.
type Optimizer interface {
	Optimize(module []byte) ([]byte, error)
}

// IdentityOptimizer returns its input unchanged. It stands in for spec.md
// §6.3's downstream optimizer without pulling in an actual peephole pass,
// which spec.md places out of scope for this core.
type IdentityOptimizer struct{}

func (IdentityOptimizer) Optimize(module []byte) ([]byte, error) {
	return module, nil
}
