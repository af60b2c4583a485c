package mediastreamer

import (
	"fmt"
	"github.com/openziti/mediastreamer/util"
	"github.com/pkg/errors"
	"sync"
)

// Filter is one processing stage of a graph. Implementations embed BaseFilter and call Init from their constructor:
//
//   type sink struct {
//       mediastreamer.BaseFilter
//   }
//
//   func newSink() *sink {
//       s := &sink{}
//       s.Init(s, sinkClass)
//       return s
//   }
//
type Filter interface {
	// Process consumes and produces at most what is available on the ports right now. It must not block.
	Process()
	Name() string
	Class() Class
	Lock()
	Unlock()
	base() *BaseFilter
}

// Setupper is implemented by filters that configure themselves against the tick size (open a device, size a
// buffer). Setup runs once per graph compilation, before the first tick that includes the filter.
//
type Setupper interface {
	Setup(s *Sync) error
}

type Unsetupper interface {
	Unsetup(s *Sync)
}

type Destroyer interface {
	Destroy()
}

type Property int

const (
	PropFreq Property = iota
	PropBitrate
	PropChannels
	PropFmtp
)

func (self Property) String() string {
	switch self {
	case PropFreq:
		return "freq"
	case PropBitrate:
		return "bitrate"
	case PropChannels:
		return "channels"
	case PropFmtp:
		return "fmtp"
	default:
		return fmt.Sprintf("property(%d)", int(self))
	}
}

type PropertySetter interface {
	SetProperty(p Property, v interface{}) error
}

type PropertyGetter interface {
	GetProperty(p Property) (interface{}, error)
}

type Event int

const (
	EventEOF Event = iota + 1
	EventError
	EventUser
)

// NotifyFunc receives events raised by a filter, possibly from the scheduler thread.
type NotifyFunc func(f Filter, event Event, arg interface{})

var filterIds = util.NewSequence(1)

// BaseFilter holds the per-instance port state every filter shares.
//
type BaseFilter struct {
	owner       Filter
	class       *Class
	id          int32
	name        string
	infifos     []*Fifo
	outfifos    []*Fifo
	inqueues    []*Queue
	outqueues   []*Queue
	finputs     int
	foutputs    int
	qinputs     int
	qoutputs    int
	minFifoSize int
	rMinGran    int
	notify      NotifyFunc
	lock        sync.Mutex
}

// Init binds the base state to its owning filter and registered class.
func (self *BaseFilter) Init(owner Filter, class *Class) {
	self.owner = owner
	self.class = class
	self.id = filterIds.Next()
	self.name = fmt.Sprintf("%s#%d", class.Name, self.id)
	self.infifos = make([]*Fifo, class.MaxFInputs)
	self.outfifos = make([]*Fifo, class.MaxFOutputs)
	self.inqueues = make([]*Queue, class.MaxQInputs)
	self.outqueues = make([]*Queue, class.MaxQOutputs)
	self.rMinGran = maxInt(class.RGranularity, 1)
}

func (self *BaseFilter) base() *BaseFilter {
	return self
}

func (self *BaseFilter) Name() string {
	return self.name
}

func (self *BaseFilter) SetName(name string) {
	self.name = name
}

func (self *BaseFilter) Id() int32 {
	return self.id
}

func (self *BaseFilter) Class() Class {
	return *self.class
}

func (self *BaseFilter) Lock() {
	self.lock.Lock()
}

func (self *BaseFilter) Unlock() {
	self.lock.Unlock()
}

func (self *BaseFilter) InFifo(i int) *Fifo {
	if i < 0 || i >= len(self.infifos) {
		return nil
	}
	return self.infifos[i]
}

func (self *BaseFilter) OutFifo(i int) *Fifo {
	if i < 0 || i >= len(self.outfifos) {
		return nil
	}
	return self.outfifos[i]
}

func (self *BaseFilter) InQueue(i int) *Queue {
	if i < 0 || i >= len(self.inqueues) {
		return nil
	}
	return self.inqueues[i]
}

func (self *BaseFilter) OutQueue(i int) *Queue {
	if i < 0 || i >= len(self.outqueues) {
		return nil
	}
	return self.outqueues[i]
}

func (self *BaseFilter) FInputs() int  { return self.finputs }
func (self *BaseFilter) FOutputs() int { return self.foutputs }
func (self *BaseFilter) QInputs() int  { return self.qinputs }
func (self *BaseFilter) QOutputs() int { return self.qoutputs }

// MinFifoSize is the size hint handed to this filter by its upstream neighbor.
func (self *BaseFilter) MinFifoSize() int {
	return self.minFifoSize
}

// SetReadMinGranularity sets how many bytes an input fifo must hold before the scheduler runs the filter again.
func (self *BaseFilter) SetReadMinGranularity(n int) {
	self.rMinGran = maxInt(n, 1)
}

func (self *BaseFilter) ReadMinGranularity() int {
	return self.rMinGran
}

func (self *BaseFilter) SetNotifyFunc(fn NotifyFunc) {
	self.lock.Lock()
	self.notify = fn
	self.lock.Unlock()
}

// Notify raises event to the registered callback, if any. Called by filter implementations from Process, where the
// filter lock is already held.
//
func (self *BaseFilter) Notify(event Event, arg interface{}) {
	if self.notify != nil {
		self.notify(self.owner, event, arg)
	}
}

func (self *BaseFilter) connected() bool {
	return self.finputs+self.foutputs+self.qinputs+self.qoutputs > 0
}

// FifosHaveData is true when at least one input fifo holds the filter's minimum read granularity.
func FifosHaveData(f Filter) bool {
	b := f.base()
	for _, fifo := range b.infifos {
		if fifo != nil && fifo.ReadSize() >= b.rMinGran {
			return true
		}
	}
	return false
}

// QueuesHaveData is true when at least one input queue is non-empty.
func QueuesHaveData(f Filter) bool {
	for _, q := range f.base().inqueues {
		if q != nil && q.CanGet() {
			return true
		}
	}
	return false
}

// Destroy releases a filter. It fails while any port is still linked.
func Destroy(f Filter) error {
	if f.base().connected() {
		return errors.Wrapf(ErrFilterBusy, "[%s]", f.Name())
	}
	if d, ok := f.(Destroyer); ok {
		d.Destroy()
	}
	return nil
}

// SearchUpstreamByType follows the first connected input (fifo, else queue) upstream until it meets a filter of type t.
func SearchUpstreamByType(f Filter, t FilterType) Filter {
	visited := map[Filter]bool{f: true}
	cur := f
	for {
		prev := upstreamOf(cur)
		if prev == nil || visited[prev] {
			return nil
		}
		if prev.base().class.Type == t {
			return prev
		}
		visited[prev] = true
		cur = prev
	}
}

func upstreamOf(f Filter) Filter {
	b := f.base()
	if len(b.infifos) > 0 && b.infifos[0] != nil {
		return b.infifos[0].prevData
	}
	if len(b.inqueues) > 0 && b.inqueues[0] != nil {
		return b.inqueues[0].prevData
	}
	return nil
}

// SetProperty forwards a codec parameter to f under its lock.
func SetProperty(f Filter, p Property, v interface{}) error {
	ps, ok := f.(PropertySetter)
	if !ok {
		return errors.Wrapf(ErrNotSupported, "[%s] set [%s]", f.Name(), p)
	}
	f.Lock()
	defer f.Unlock()
	return ps.SetProperty(p, v)
}

func GetProperty(f Filter, p Property) (interface{}, error) {
	pg, ok := f.(PropertyGetter)
	if !ok {
		return nil, errors.Wrapf(ErrNotSupported, "[%s] get [%s]", f.Name(), p)
	}
	f.Lock()
	defer f.Unlock()
	return pg.GetProperty(p)
}
