package engage

import (
	"errors"
	"fmt"

	"github.com/glabrego/tipfeed-cli/internal/api"
)

var (
	// ErrBusy is returned when a trigger arrives while the same action family
	// is already in flight for the entity. The trigger is dropped, not queued.
	ErrBusy = errors.New("action already in progress")

	// ErrUnchanged is returned by Edit when the trimmed content equals the
	// current content.
	ErrUnchanged = errors.New("content unchanged")
)

// ValidationError is returned before any request is issued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Message renders err as the line shown next to the triggering control.
func Message(err error) string {
	var invalid *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBusy):
		return "Still working on it"
	case errors.Is(err, ErrUnchanged):
		return "Nothing to save"
	case errors.As(err, &invalid):
		return invalid.Error()
	default:
		return api.UserMessage(err)
	}
}
