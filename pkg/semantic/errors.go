package semantic

import (
	"fmt"

	"github.com/anistark/waspy/pkg/ast"
	"github.com/pkg/errors"
)

// ErrorKind is the closed set of compiler error kinds (spec §7).
type ErrorKind string

const (
	ErrParseIncomplete       ErrorKind = "ParseIncomplete"
	ErrUnsupportedConstruct  ErrorKind = "UnsupportedConstruct"
	ErrUnsupportedDecorator  ErrorKind = "UnsupportedDecorator"
	ErrTypeAnnotationInvalid ErrorKind = "TypeAnnotationInvalid"
	ErrUnknownFunction       ErrorKind = "UnknownFunction"
	ErrUnknownVariable       ErrorKind = "UnknownVariable"
	ErrUnknownAttribute      ErrorKind = "UnknownAttribute"
	ErrUnknownMethod         ErrorKind = "UnknownMethod"
	ErrTypeMismatch          ErrorKind = "TypeMismatch"
	ErrUnsupportedIteration  ErrorKind = "UnsupportedIteration"
	ErrUnsupportedOperation  ErrorKind = "UnsupportedOperation"
	ErrStaticDataOverflow    ErrorKind = "StaticDataOverflow"
	ErrEmitFailure           ErrorKind = "EmitFailure"
	ErrModuleAssemblyFailure ErrorKind = "ModuleAssemblyFailure"
)

// CompileError is the structured value every core error surfaces as
// (spec §6.4): a kind from the closed set above, a message, and an
// optional source span. Grounded on the teacher's
// semantic.ErrorWithPosition (pkg/semantic/error_position.go),
// generalized with a machine-readable Kind field.
type CompileError struct {
	Kind     ErrorKind
	Message  string
	Position *ast.Position // nil if no span is available
}

func (e *CompileError) Error() string {
	if e.Position != nil && e.Position.Line > 0 {
		return fmt.Sprintf("%s at line %d, col %d: %s", e.Kind, e.Position.Line, e.Position.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newErr(kind ErrorKind, node ast.Node, format string, args ...interface{}) *CompileError {
	e := &CompileError{Kind: kind, Message: fmt.Sprintf(format, args...)}
	if node != nil {
		pos := node.Pos()
		e.Position = &pos
	}
	return e
}

// wrapIn annotates err with the enclosing function/method name using
// github.com/pkg/errors, the wrapped-errors library the rest of the pack
// (moby-moby) depends on — the teacher only used bare fmt.Errorf.
func wrapIn(err error, context string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, context)
}
