package mediastreamer

import (
	"github.com/pkg/errors"
	"time"
)

type Instrument interface {
	NewInstance(id string) InstrumentInstance
}

// InstrumentInstance observes one sync and the graph it drives. Every method is called from the sync's worker
// goroutine, except Attached/Detached, which follow the caller of Attach/Detach.
//
type InstrumentInstance interface {
	// graph
	Attached(f Filter)
	Detached(f Filter)
	Compiled(filters, layers int)

	// worker
	Started()
	Stopped()
	Ticked(calls int)
	Catchup(behind time.Duration)
	Stalled(f Filter)

	// queues
	QueueDropped(q *Queue)

	// allocation
	Allocate(id string)

	// instrument lifecycle
	Shutdown()
}

func NewInstrument(name string, config map[string]interface{}) (i Instrument, err error) {
	switch name {
	case "metrics":
		return NewMetricsInstrument(config)
	case "nil":
		return NewNilInstrument(), nil
	case "trace":
		return NewTraceInstrument(config)
	default:
		return nil, errors.Errorf("unknown instrument '%s'", name)
	}
}
