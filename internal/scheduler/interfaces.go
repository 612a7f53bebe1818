package scheduler

import (
	"errors"

	"github.com/aristath/freightwatch/internal/events"
)

// ErrCycleInProgress is returned when a job is asked to run while its previous run is still going
var ErrCycleInProgress = errors.New("cycle already in progress")

// EventEmitter records cycle events
type EventEmitter interface {
	Emit(module, operator string, data events.EventData)
	EmitError(module, operator string, err error)
}
