package launcher

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/id"
)

var (
	ErrUnknownApplication = errors.New("unknown application")
	ErrLaunchFailed       = errors.New("launch failed")
	ErrInvalidDescriptor  = errors.New("invalid app descriptor")
	ErrDuplicateApp       = errors.New("app already registered")
)

// LaunchError reports why an app could not be started. It matches
// ErrLaunchFailed and the underlying cause.
type LaunchError struct {
	AppID  id.AppID
	Reason string
	Err    error
}

func (e *LaunchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("launch %s: %s: %v", e.AppID, e.Reason, e.Err)
	}
	return fmt.Sprintf("launch %s: %s", e.AppID, e.Reason)
}

func (e *LaunchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLaunchFailed}
	}
	return []error{ErrLaunchFailed, e.Err}
}
