// Package elberrors implements the typed error taxonomy and exit-code
// mapping for elastic-blast-go, plus the cleanup-stack and retry helpers
// that every cloud-facing component uses.
package elberrors

import "fmt"

// Kind identifies a taxonomy bucket from the error-handling design.
// TransientError never escapes to a caller as a Kind on its own — it is
// always retried at the call site and, on exhaustion, promoted to
// ClusterError (see Retry).
type Kind int

const (
	// KindInput covers malformed CLI flags, config, or query input.
	KindInput Kind = iota
	// KindDependency covers quota exhaustion or a missing cloud tool.
	KindDependency
	// KindCluster covers a failed provision/submit/delete that was retried
	// locally (directly, or via a promoted TransientError) and still failed.
	KindCluster
	// KindPermission covers credentials rejected by the cloud provider.
	KindPermission
	// KindInternal covers a broken invariant — a bug, not a user error.
	KindInternal
)

// exitCodes maps each Kind to the process exit code it produces.
var exitCodes = map[Kind]int{
	KindInput:      1,
	KindDependency: 2,
	KindCluster:    3,
	KindPermission: 4,
	KindInternal:   5,
}

// Error is the typed error every leaf operation in elastic-blast-go
// returns on failure. It carries a user-facing message and the exit code
// LifecycleDriver should use when this error reaches cmd/elastic-blast.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// ExitCode returns the process exit code for this error's Kind.
func (e *Error) ExitCode() int { return exitCodes[e.Kind] }

// New constructs an *Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind, wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Input, Dependency, Cluster, Permission, and Internal are convenience
// constructors for the common case of no wrapped cause.
func Input(format string, args ...any) *Error      { return New(KindInput, format, args...) }
func Dependency(format string, args ...any) *Error  { return New(KindDependency, format, args...) }
func Cluster(format string, args ...any) *Error     { return New(KindCluster, format, args...) }
func Permission(format string, args ...any) *Error  { return New(KindPermission, format, args...) }
func Internal(format string, args ...any) *Error    { return New(KindInternal, format, args...) }

// ExitCode extracts the exit code for any error. Errors that are not an
// *Error (e.g. a bare context.DeadlineExceeded that escaped retry) map to
// exit code 3 (ClusterError), since everything reaching this point without
// a typed classification happened while talking to the cluster.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var elbErr *Error
	if asError(err, &elbErr) {
		return elbErr.ExitCode()
	}
	return exitCodes[KindCluster]
}

func asError(err error, target **Error) bool {
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
