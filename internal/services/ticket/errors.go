package ticket

import "errors"

// ErrInvalidTransition is returned when a ticket is moved into Cerrado
// without a non-empty closing comment. The ticket keeps its prior state.
var ErrInvalidTransition = errors.New("closing a ticket requires a closing comment")

// ErrUnknownStatus is returned for a status value outside the workflow.
var ErrUnknownStatus = errors.New("unknown ticket status")

// ErrUnknownPriority is returned for a priority outside Alta/Media/Baja.
var ErrUnknownPriority = errors.New("unknown ticket priority")
