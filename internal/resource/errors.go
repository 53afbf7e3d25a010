package resource

import (
	"fmt"

	"github.com/aether-lang/aether/internal/position"
)

// ErrorKind classifies hard verification failures. Hard failures stop
// analysis of the current function; soft findings are recorded on Results
// instead and never produce an AnalysisError.
type ErrorKind int

const (
	// ErrUndefinedBinding is reported when a release names a binding no
	// enclosing resource scope introduced.
	ErrUndefinedBinding ErrorKind = iota
	// ErrDoubleRelease is reported when an already released binding is
	// released again.
	ErrDoubleRelease
	// ErrUseAfterRelease is reported when an expression references a
	// binding after its release.
	ErrUseAfterRelease
	// ErrShadowedBinding is reported when an acquisition reuses a binding
	// name that is still live in an enclosing resource scope.
	ErrShadowedBinding
	// ErrContractViolation is reported when an acquisition exceeds a
	// contract budget under an enforcing mode.
	ErrContractViolation
	// ErrInvalidScope is reported for malformed scope declarations, such
	// as a duplicate binding within a single scope.
	ErrInvalidScope
)

func (k ErrorKind) String() string {
	switch k {
	case ErrUndefinedBinding:
		return "undefined binding"
	case ErrDoubleRelease:
		return "double release"
	case ErrUseAfterRelease:
		return "use after release"
	case ErrShadowedBinding:
		return "shadowed binding"
	case ErrContractViolation:
		return "contract violation"
	case ErrInvalidScope:
		return "invalid scope"
	default:
		return "unknown"
	}
}

// AnalysisError is a hard verification failure tied to a source location.
type AnalysisError struct {
	Kind    ErrorKind
	Binding string
	Span    position.Span
	Message string
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}

func undefinedBindingError(binding string, span position.Span) *AnalysisError {
	return &AnalysisError{
		Kind:    ErrUndefinedBinding,
		Binding: binding,
		Span:    span,
		Message: fmt.Sprintf("release of undefined resource binding %q", binding),
	}
}

func doubleReleaseError(binding string, span, first position.Span) *AnalysisError {
	return &AnalysisError{
		Kind:    ErrDoubleRelease,
		Binding: binding,
		Span:    span,
		Message: fmt.Sprintf("double release of resource %q (first released at %s)", binding, first),
	}
}

func useAfterReleaseError(binding string, span, released position.Span) *AnalysisError {
	return &AnalysisError{
		Kind:    ErrUseAfterRelease,
		Binding: binding,
		Span:    span,
		Message: fmt.Sprintf("use of resource %q after release at %s", binding, released),
	}
}

func shadowedBindingError(binding string, span, outer position.Span) *AnalysisError {
	return &AnalysisError{
		Kind:    ErrShadowedBinding,
		Binding: binding,
		Span:    span,
		Message: fmt.Sprintf("resource binding %q shadows a live resource acquired at %s", binding, outer),
	}
}

func duplicateBindingError(binding string, span position.Span) *AnalysisError {
	return &AnalysisError{
		Kind:    ErrInvalidScope,
		Binding: binding,
		Span:    span,
		Message: fmt.Sprintf("resource binding %q declared twice in the same scope", binding),
	}
}

func contractViolationError(v *ContractViolation) *AnalysisError {
	return &AnalysisError{
		Kind:    ErrContractViolation,
		Binding: v.Binding,
		Span:    v.Span,
		Message: fmt.Sprintf("function %q exceeds %s: %d held, budget %d",
			v.Function, v.Limit, v.Actual, v.Budget),
	}
}
