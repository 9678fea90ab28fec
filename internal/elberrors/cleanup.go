package elberrors

import "github.com/alphauslabs/elastic-blast-go/internal/elblog"

// CleanupStack is the LIFO of compensating actions the LifecycleDriver
// pushes to as it provisions cloud resources. On any non-transient error
// during submit, Unwind runs every pushed action in reverse order; a
// failing compensating action is logged but never stops the unwind —
// the goal is to maximize reclamation, not to guarantee it.
type CleanupStack struct {
	actions []func() error
	log     elblog.Logger
}

// NewCleanupStack returns an empty stack that logs compensating-action
// failures through log.
func NewCleanupStack(log elblog.Logger) *CleanupStack {
	return &CleanupStack{log: log}
}

// Push appends a compensating action to run on Unwind, in LIFO order.
func (s *CleanupStack) Push(action func() error) {
	s.actions = append(s.actions, action)
}

// Unwind runs every pushed action in reverse order, regardless of
// individual failures.
func (s *CleanupStack) Unwind() {
	for i := len(s.actions) - 1; i >= 0; i-- {
		if err := s.actions[i](); err != nil {
			s.log.Warn("cleanup action failed", "error", err)
		}
	}
	s.actions = nil
}
