package workmode

import "errors"

var (
	ErrConfigUnavailable = errors.New("work config unavailable")
	ErrPermissionDenied  = errors.New("work mode control denied")
	ErrEmptyReason       = errors.New("break reason required")
	ErrInvalidTransition = errors.New("invalid mode transition")
	ErrUnknownMode       = errors.New("unknown mode")
	ErrInvalidClock      = errors.New("invalid HH:MM time")
)
