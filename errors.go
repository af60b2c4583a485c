package mediastreamer

import "github.com/pkg/errors"

// Transient conditions. A filter seeing one of these simply produces nothing this tick.
var (
	ErrNoData  = errors.New("not enough data")
	ErrNoSpace = errors.New("not enough space")
)

// Configuration errors, reported synchronously to the graph builder.
var (
	ErrGranularity     = errors.New("request exceeds granularity")
	ErrPortIndex       = errors.New("port index out of range")
	ErrPortBusy        = errors.New("port busy")
	ErrNoFreePort      = errors.New("no free port")
	ErrNotLinked       = errors.New("not linked")
	ErrFilterBusy      = errors.New("filter still connected")
	ErrNotSource       = errors.New("filter is not a source")
	ErrNoFreeSlot      = errors.New("no free sync slot")
	ErrAlreadyAttached = errors.New("filter already attached")
	ErrNotAttached     = errors.New("filter not attached")
	ErrGraphCycle      = errors.New("filter graph contains a cycle")
	ErrNotSupported    = errors.New("property not supported")
	ErrNoPendingWrite  = errors.New("no pending write")
	ErrUnknownClass    = errors.New("unknown filter class")
	ErrRunning         = errors.New("sync running")
)

// IsTransient reports whether err only means "try again next tick".
func IsTransient(err error) bool {
	cause := errors.Cause(err)
	return cause == ErrNoData || cause == ErrNoSpace
}
