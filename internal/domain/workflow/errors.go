package workflow

import "errors"

// ErrInvalidTransition is returned when the requested action is not
// permitted from the request's current status. It is non-retryable: the
// caller must re-fetch the request before acting again.
var ErrInvalidTransition = errors.New("invalid state transition")
