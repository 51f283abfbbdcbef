package codegen

import (
	"github.com/anistark/waspy/pkg/ir"
)

// Backend defines the interface for code generation backends. Grounded
// on the teacher's codegen.Backend registry, narrowed to this spec's
// single real target: Generate returns the assembled binary module
// (spec §6.2), not backend-specific source text, since WASM has no
// textual form in this compiler's output path.
type Backend interface {
	// Name returns the name of this backend (e.g. "wasm").
	Name() string

	// Generate assembles module into a binary module image.
	Generate(module *ir.Module) ([]byte, error)

	// GetFileExtension returns the file extension for generated output.
	GetFileExtension() string

	// SupportsFeature checks if this backend supports a specific feature.
	SupportsFeature(feature string) bool
}

// BackendOptions contains options that can be passed to backends.
type BackendOptions struct {
	// OptimizationLevel controls optimization (0 = none, 1 = basic).
	OptimizationLevel int

	// Debug enables verbose diagnostic logging during generation.
	Debug bool

	// CustomOptions carries backend-specific options.
	CustomOptions map[string]interface{}
}

// Common backend features.
const (
	FeatureFloatingPoint   = "floating_point"
	FeatureIndirectCalls   = "indirect_calls"
	FeatureBitManipulation = "bit_manipulation"
	FeatureExceptionTags   = "exception_tags"
)

// BackendFactory creates a backend instance.
type BackendFactory func(options *BackendOptions) Backend

var backends = make(map[string]BackendFactory)

// RegisterBackend registers a new backend.
func RegisterBackend(name string, factory BackendFactory) {
	backends[name] = factory
}

// GetBackend returns a backend by name.
func GetBackend(name string, options *BackendOptions) Backend {
	if factory, ok := backends[name]; ok {
		return factory(options)
	}
	return nil
}

// ListBackends returns the names of all registered backends.
func ListBackends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}
