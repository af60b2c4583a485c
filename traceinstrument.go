package mediastreamer

import (
	"fmt"
	"github.com/openziti/mediastreamer/cf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"sync"
	"time"
)

type traceInstrument struct {
	config *traceInstrumentConfig
}

type traceInstrumentConfig struct {
	Graph  bool `cf:"graph"`
	Worker bool `cf:"worker"`
	Ticks  bool `cf:"ticks"`
	Queues bool `cf:"queues"`
	Pool   bool `cf:"pool"`
}

type traceInstrumentInstance struct {
	id   string
	lock sync.Mutex
	i    *traceInstrument
}

func NewTraceInstrument(config map[string]interface{}) (Instrument, error) {
	i := &traceInstrument{
		config: &traceInstrumentConfig{Graph: true, Worker: true},
	}
	if err := cf.Load(config, i.config); err != nil {
		return nil, errors.Wrap(err, "unable to load config")
	}
	logrus.Infof(cf.Dump("trace", i.config))
	return i, nil
}

func (self *traceInstrument) NewInstance(id string) InstrumentInstance {
	return &traceInstrumentInstance{
		id: id,
		i:  self,
	}
}

/*
 * graph
 */

func (self *traceInstrumentInstance) Attached(f Filter) {
	if self.i.config.Graph {
		self.trace("ATTACH", fmt.Sprintf("%s/%s", f.Class().Name, f.Name()))
	}
}

func (self *traceInstrumentInstance) Detached(f Filter) {
	if self.i.config.Graph {
		self.trace("DETACH", fmt.Sprintf("%s/%s", f.Class().Name, f.Name()))
	}
}

func (self *traceInstrumentInstance) Compiled(filters, layers int) {
	if self.i.config.Graph {
		self.trace("COMPILE", fmt.Sprintf("filters=%d layers=%d", filters, layers))
	}
}

/*
 * worker
 */

func (self *traceInstrumentInstance) Started() {
	if self.i.config.Worker {
		self.trace("START", "")
	}
}

func (self *traceInstrumentInstance) Stopped() {
	if self.i.config.Worker {
		self.trace("STOP", "")
	}
}

func (self *traceInstrumentInstance) Ticked(calls int) {
	if self.i.config.Ticks {
		self.trace("TICK", fmt.Sprintf("calls=%d", calls))
	}
}

func (self *traceInstrumentInstance) Catchup(behind time.Duration) {
	if self.i.config.Worker {
		self.trace("CATCHUP", behind.String())
	}
}

func (self *traceInstrumentInstance) Stalled(f Filter) {
	if self.i.config.Worker {
		self.trace("STALL", f.Name())
	}
}

/*
 * queues
 */

func (self *traceInstrumentInstance) QueueDropped(q *Queue) {
	if self.i.config.Queues {
		from, to := "?", "?"
		if q.Prev() != nil {
			from = q.Prev().Name()
		}
		if q.Next() != nil {
			to = q.Next().Name()
		}
		self.trace("DROP", fmt.Sprintf("%s -> %s dropped=%d", from, to, q.Dropped()))
	}
}

/*
 * allocation
 */

func (self *traceInstrumentInstance) Allocate(id string) {
	if self.i.config.Pool {
		self.trace("ALLOC", id)
	}
}

/*
 * instrument lifecycle
 */

func (self *traceInstrumentInstance) Shutdown() {}

func (self *traceInstrumentInstance) trace(event, detail string) {
	self.lock.Lock()
	fmt.Println(fmt.Sprintf("&& %-24s %-8s %s", self.id, event, detail))
	self.lock.Unlock()
}
