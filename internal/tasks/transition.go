package tasks

import (
	"github.com/rotisserie/eris"

	"github.com/sustainboard/esg-cli/internal/model"
)

// ErrInvalidTransition marks a rejected task status change. The API maps
// it to a 400 so clients can tell a validation failure from a server
// fault.
var ErrInvalidTransition = eris.New("tasks: invalid transition")

// ValidateTransition checks a user-requested status change.
//
//	Pending     -> In Progress | Completed
//	In Progress -> Completed
//	Overdue     -> In Progress | Completed   (completing late is allowed)
//	Completed   -> (terminal)
//
// Overdue is never a valid target: it is applied by due-date lapse only.
// Completing an already-completed task is rejected, which keeps
// completion idempotent from the client's perspective: the task stays
// Completed in both outcomes.
func ValidateTransition(from, to model.TaskStatus) error {
	if !to.Valid() {
		return eris.Wrapf(ErrInvalidTransition, "unknown status %q", to)
	}
	if to == model.TaskOverdue {
		return eris.Wrap(ErrInvalidTransition, "overdue is set by due-date lapse, not by request")
	}
	if from == model.TaskCompleted {
		return eris.Wrap(ErrInvalidTransition, "task is already completed")
	}
	if from == to {
		return eris.Wrapf(ErrInvalidTransition, "task is already %s", from)
	}

	switch to {
	case model.TaskCompleted:
		return nil
	case model.TaskInProgress:
		if from == model.TaskPending || from == model.TaskOverdue {
			return nil
		}
	case model.TaskPending:
		// Reopening is not supported.
	}
	return eris.Wrapf(ErrInvalidTransition, "%s -> %s", from, to)
}
