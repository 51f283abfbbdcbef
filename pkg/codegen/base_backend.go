package codegen

import (
	"github.com/anistark/waspy/pkg/ir"
	"github.com/sirupsen/logrus"
)

// BaseBackend provides common functionality shared by every backend.
// Grounded on the teacher's codegen.BaseBackend, with the SMC-specific
// validation/preprocessing dropped since no WASM feature maps to it.
type BaseBackend struct {
	options  *BackendOptions
	features map[string]bool
	log      *logrus.Entry
}

// NewBaseBackend creates a new base backend with default feature flags.
func NewBaseBackend(options *BackendOptions) BaseBackend {
	return BaseBackend{
		options: options,
		features: map[string]bool{
			FeatureFloatingPoint:   true,
			FeatureIndirectCalls:   false,
			FeatureBitManipulation: true,
			FeatureExceptionTags:   true,
		},
		log: logrus.WithField("component", "codegen"),
	}
}

// ValidateOptions checks if the requested options are supported. No
// option combination is currently invalid for the WASM backend; kept as
// a hook so a future backend can reject unsupported combinations the
// way the teacher's SMC check did for Z80.
func (b *BaseBackend) ValidateOptions() error {
	return nil
}

// PreprocessModule applies backend-specific preprocessing to the module
// before generation. No rewrite is required today; retained as the
// extension point the teacher's PreprocessModule occupied.
func (b *BaseBackend) PreprocessModule(module *ir.Module) error {
	return nil
}

// GetOptions returns the backend options.
func (b *BaseBackend) GetOptions() *BackendOptions {
	return b.options
}

// SetFeature sets a feature support flag.
func (b *BaseBackend) SetFeature(feature string, supported bool) {
	b.features[feature] = supported
}

// CheckFeature checks if a feature is supported.
func (b *BaseBackend) CheckFeature(feature string) bool {
	return b.features[feature]
}

// Logger returns the structured logger backends should use for
// diagnostics, scoped with a "component=codegen" field.
func (b *BaseBackend) Logger() *logrus.Entry {
	return b.log
}
