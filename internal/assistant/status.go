// Package assistant wraps the OpenAI Assistants API: thread management,
// message submission, and run polling with a wall-clock budget.
package assistant

// Status is an assistant run status as reported by the API.
type Status string

const (
	StatusQueued         Status = "queued"
	StatusInProgress     Status = "in_progress"
	StatusRequiresAction Status = "requires_action"
	StatusCompleted      Status = "completed"
	StatusFailed         Status = "failed"
	StatusCancelled      Status = "cancelled"
	StatusExpired        Status = "expired"
	StatusIncomplete     Status = "incomplete"
)

// Terminal reports whether the run has reached a final state.
// requires_action counts as terminal here: the bot registers no tools, so
// a run asking for tool output can never progress.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusExpired, StatusIncomplete, StatusRequiresAction:
		return true
	}
	return false
}

// Succeeded reports whether the run produced an assistant message.
func (s Status) Succeeded() bool {
	return s == StatusCompleted
}
