// Package kerr is the closed error-kind taxonomy shared by every pipeline
// stage (spec.md §7 "Error handling design"), generalizing the teacher's
// ErrorCode/Error pair (astc/errors.go) from a single flat enum to the
// compiler's closed kind set.
package kerr

import "fmt"

// Kind is a closed set of error kinds. Every public pipeline function
// returns either a nil error or an error satisfying KindOf(err) == one of
// these.
type Kind uint8

const (
	// InvalidParameter indicates a contract violation in the caller's
	// arguments (an internal bug, not a user diagnostic).
	InvalidParameter Kind = iota
	// InvalidState indicates a receiver was used in a state that does not
	// support the requested operation.
	InvalidState
	// InvalidRequest indicates the operation itself is not permitted here
	// (e.g. appending a terminator to a finalized block).
	InvalidRequest
	// InvalidChange indicates a requested mutation conflicts with already
	// recorded state (e.g. an incompatible redeclaration).
	InvalidChange
	// NotFound indicates a lookup miss; often recoverable by the caller.
	NotFound
	// MemAllocFailure indicates allocator exhaustion in a pool with a
	// configured capacity bound.
	MemAllocFailure
	// ObjAllocFailure indicates arena exhaustion for an object pool.
	ObjAllocFailure
	// AnalysisError is a user-visible semantic diagnostic with a source
	// location.
	AnalysisError
	// SyntaxError is produced only by the front-end parser; the core
	// never originates it, but propagates it verbatim if handed one.
	SyntaxError
	// NotImplemented marks a feature gate (spec.md §9 Open Questions:
	// bit-precise case labels).
	NotImplemented
	// InternalError marks an assertion failure.
	InternalError
)

func (k Kind) String() string {
	switch k {
	case InvalidParameter:
		return "InvalidParameter"
	case InvalidState:
		return "InvalidState"
	case InvalidRequest:
		return "InvalidRequest"
	case InvalidChange:
		return "InvalidChange"
	case NotFound:
		return "NotFound"
	case MemAllocFailure:
		return "MemAllocFailure"
	case ObjAllocFailure:
		return "ObjAllocFailure"
	case AnalysisError:
		return "AnalysisError"
	case SyntaxError:
		return "SyntaxError"
	case NotImplemented:
		return "NotImplemented"
	case InternalError:
		return "InternalError"
	default:
		return "UnknownKind"
	}
}

// Location is a source position, populated on user-visible diagnostics
// (spec.md §7 "each diagnostic carries {file, line, column, message}").
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Error is the single error type returned by every pipeline stage.
type Error struct {
	Kind Kind
	Msg  string
	Loc  Location // zero value for kinds that are not source-located
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if loc := e.Loc.String(); loc != "" {
		return fmt.Sprintf("%s: %s: %s", loc, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// New builds a kind-only error with no source location.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NewAt builds an AnalysisError (or any other kind) at a source location.
func NewAt(kind Kind, loc Location, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Loc: loc}
}

// KindOf classifies err, defaulting to InternalError for errors this
// package did not originate (conservative: an unrecognized error should
// not be silently treated as recoverable NotFound).
func KindOf(err error) Kind {
	if err == nil {
		return Kind(255) // sentinel: no error; callers should check err == nil first
	}
	var e *Error
	if as(err, &e) {
		return e.Kind
	}
	return InternalError
}

// as is a tiny indirection over errors.As kept local so this package does
// not need to import errors just for one call site used by KindOf, mirroring
// the teacher's habit of keeping each file's import list minimal.
func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
