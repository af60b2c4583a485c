package mediastreamer

import (
	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"runtime"
	"sync"
	"time"
)

// Sync ticks the graph reachable from its attached sources. All filters of one Sync run sequentially on a single
// goroutine locked to its OS thread; attach, detach and property changes from other goroutines are safe.
//
type Sync struct {
	name    string
	clock   Clock
	profile *Profile
	ii      InstrumentInstance

	lock           sync.Mutex
	cond           *sync.Cond
	attached       []Filter
	execution      []Filter
	setup          []Filter
	samplesPerTick int
	dirty          bool
	run            bool
	running        bool
	done           chan struct{}

	ticks atomic.Uint64
}

// NewSync builds a stopped Sync. A nil instrument selects the nil instrument.
func NewSync(name string, clock Clock, profile *Profile, instrument Instrument) *Sync {
	if profile == nil {
		profile = NewBaselineProfile()
	}
	if instrument == nil {
		instrument = NewNilInstrument()
	}
	s := &Sync{
		name:    name,
		clock:   clock,
		profile: profile,
		ii:      instrument.NewInstance(name),
		dirty:   true,
	}
	s.cond = sync.NewCond(&s.lock)
	return s
}

func (self *Sync) Name() string {
	return self.name
}

func (self *Sync) Profile() *Profile {
	return self.profile
}

// Instrument is the instance reporting for this sync. Filters use it from Setup, for example to build a Pool.
func (self *Sync) Instrument() InstrumentInstance {
	return self.ii
}

// Attach adds a source filter. The first source attached to a sync with no tick size sets it from its write
// granularity, unless the source carries CanSync.
//
func (self *Sync) Attach(f Filter) error {
	class := f.base().class
	if !class.Is(IsSource) {
		return errors.Wrapf(ErrNotSource, "[%s]", f.Name())
	}

	self.lock.Lock()
	for _, a := range self.attached {
		if a == f {
			self.lock.Unlock()
			return errors.Wrapf(ErrAlreadyAttached, "[%s] on [%s]", f.Name(), self.name)
		}
	}
	if len(self.attached) >= self.profile.SyncMaxFilters {
		self.lock.Unlock()
		return errors.Wrapf(ErrNoFreeSlot, "[%s] has [%d] sources", self.name, len(self.attached))
	}
	self.attached = append(self.attached, f)
	self.dirty = true
	if self.samplesPerTick == 0 && !class.Is(CanSync) && class.WGranularity > 0 {
		self.samplesPerTick = class.WGranularity / self.profile.BytesPerSample
	}
	self.cond.Broadcast()
	self.lock.Unlock()

	self.ii.Attached(f)
	pfxlog.ContextLogger(self.name).Debugf("attached [%s]", f.Name())
	return nil
}

func (self *Sync) Detach(f Filter) error {
	self.lock.Lock()
	idx := -1
	for i, a := range self.attached {
		if a == f {
			idx = i
			break
		}
	}
	if idx == -1 {
		self.lock.Unlock()
		return errors.Wrapf(ErrNotAttached, "[%s] on [%s]", f.Name(), self.name)
	}
	self.attached = append(self.attached[:idx], self.attached[idx+1:]...)
	self.dirty = true
	self.cond.Broadcast()
	self.lock.Unlock()

	self.ii.Detached(f)
	pfxlog.ContextLogger(self.name).Debugf("detached [%s]", f.Name())
	return nil
}

// Attached lists the attached sources, in attach order.
func (self *Sync) Attached() []Filter {
	self.lock.Lock()
	defer self.lock.Unlock()
	return append([]Filter(nil), self.attached...)
}

// SetSamplesPerTick sets the tick size, waking a worker waiting for one. CanSync filters call it from Setup.
func (self *Sync) SetSamplesPerTick(n int) {
	self.lock.Lock()
	self.samplesPerTick = n
	self.cond.Broadcast()
	self.lock.Unlock()
}

func (self *Sync) SamplesPerTick() int {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.samplesPerTick
}

// Ticks counts the ticks run since the sync was built.
func (self *Sync) Ticks() uint64 {
	return self.ticks.Load()
}

// Execution returns the execution list of the last compilation.
func (self *Sync) Execution() []Filter {
	self.lock.Lock()
	defer self.lock.Unlock()
	return append([]Filter(nil), self.execution...)
}

// Compile computes the execution list for the currently attached sources without installing it. Use it to validate
// a graph before Start.
//
func (self *Sync) Compile() ([]Filter, error) {
	execution, _, _, err := compile(self.Attached())
	return execution, err
}

// Start spawns the worker. The graph is compiled on the worker's first pass.
func (self *Sync) Start() error {
	self.lock.Lock()
	defer self.lock.Unlock()

	if self.running {
		return errors.Wrapf(ErrRunning, "[%s]", self.name)
	}
	self.run = true
	self.running = true
	self.dirty = true
	self.done = make(chan struct{})
	go self.loop(self.done)
	pfxlog.ContextLogger(self.name).Infof("started")
	return nil
}

// Stop returns once the worker has exited. The filters of the last compilation are unsetup and the graph is left
// linked; a later Start or Tick recompiles it. On a sync driven by Tick, Stop only unsetups.
//
func (self *Sync) Stop() {
	self.lock.Lock()
	if !self.running {
		setup := self.setup
		self.setup = nil
		if setup != nil {
			self.dirty = true
		}
		self.lock.Unlock()
		unsetupAll(self, setup)
		return
	}
	self.run = false
	self.cond.Broadcast()
	done := self.done
	self.lock.Unlock()

	<-done

	self.lock.Lock()
	setup := self.setup
	self.setup = nil
	self.dirty = true
	self.running = false
	self.lock.Unlock()

	unsetupAll(self, setup)
	self.ii.Stopped()
	pfxlog.ContextLogger(self.name).Infof("stopped after [%d] ticks", self.ticks.Load())
}

func (self *Sync) Running() bool {
	self.lock.Lock()
	defer self.lock.Unlock()
	return self.running
}

// Destroy stops the sync, unsetups its filters and releases its clock and instrument instance. Attached filters are
// otherwise left alone.
//
func (self *Sync) Destroy() {
	self.Stop()
	self.lock.Lock()
	self.attached = nil
	self.execution = nil
	self.lock.Unlock()
	if self.clock != nil {
		self.clock.Close()
	}
	self.ii.Shutdown()
}

// Tick runs one pass over the execution list, compiling first if needed, without pacing. The worker uses the same
// code path; Tick exists to drive a stopped sync by hand and fails with ErrRunning while the worker runs.
//
func (self *Sync) Tick() error {
	self.lock.Lock()
	if self.running {
		self.lock.Unlock()
		return errors.Wrapf(ErrRunning, "[%s]", self.name)
	}
	dirty := self.dirty
	self.lock.Unlock()
	if dirty {
		if err := self.recompile(); err != nil {
			return err
		}
	}
	self.lock.Lock()
	execution := self.execution
	self.lock.Unlock()
	self.tick(execution)
	return nil
}

func (self *Sync) loop(done chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)

	log := pfxlog.ContextLogger(self.name)
	warn := time.Duration(self.profile.CatchupWarnMs) * time.Millisecond
	self.ii.Started()

	// the schedule restarts after every pause in ticking: a suspension or a recompile
	rearm := true
	for {
		self.lock.Lock()
		for self.run && self.samplesPerTick == 0 {
			rearm = true
			self.cond.Wait()
		}
		if !self.run {
			self.lock.Unlock()
			return
		}
		dirty := self.dirty
		self.lock.Unlock()

		if dirty {
			if err := self.recompile(); err != nil {
				log.Errorf("error compiling graph (%v)", err)
			}
			rearm = true
			continue
		}

		self.lock.Lock()
		execution := self.execution
		samplesPerTick := self.samplesPerTick
		self.lock.Unlock()
		if samplesPerTick == 0 {
			continue
		}

		if rearm {
			self.clock.Reset()
			rearm = false
		}
		if behind := self.clock.Synchronize(samplesPerTick); behind > warn {
			self.ii.Catchup(behind)
		}
		self.tick(execution)
	}
}

// recompile unsetups the previous execution list, compiles and installs the new one and setups its filters. A graph
// that fails to compile leaves an empty execution list until the attached set changes again.
//
func (self *Sync) recompile() error {
	self.lock.Lock()
	sources := append([]Filter(nil), self.attached...)
	previous := self.setup
	self.setup = nil
	self.dirty = false
	self.lock.Unlock()

	unsetupAll(self, previous)

	execution, layers, canSync, err := compile(sources)
	if err != nil {
		self.lock.Lock()
		self.execution = nil
		self.lock.Unlock()
		return err
	}
	self.bindQueues(execution)

	self.lock.Lock()
	self.execution = execution
	if canSync {
		self.samplesPerTick = 0
	}
	self.lock.Unlock()

	self.ii.Compiled(len(execution), layers)
	pfxlog.ContextLogger(self.name).Infof("compiled [%d] filters in [%d] layers", len(execution), layers)

	var setup []Filter
	for _, f := range execution {
		if s, ok := f.(Setupper); ok {
			if err := s.Setup(self); err != nil {
				pfxlog.ContextLogger(self.name).Errorf("error setting up [%s] (%v)", f.Name(), err)
				continue
			}
		}
		setup = append(setup, f)
	}
	self.lock.Lock()
	self.setup = setup
	self.lock.Unlock()
	return nil
}

// bindQueues applies the profile's queue bound to every queue of the graph and routes drops to the instrument.
func (self *Sync) bindQueues(execution []Filter) {
	for _, f := range execution {
		for _, q := range f.base().outqueues {
			if q != nil {
				q.SetMaxLen(self.profile.QueueMaxLen)
				q.onDrop = self.ii.QueueDropped
			}
		}
	}
}

func (self *Sync) tick(execution []Filter) {
	calls := 0
	for _, f := range execution {
		if f.base().class.Is(IsSource) {
			f.Lock()
			f.Process()
			f.Unlock()
			calls++
			continue
		}
		for FifosHaveData(f) || QueuesHaveData(f) {
			before := pendingInput(f)
			f.Lock()
			f.Process()
			f.Unlock()
			calls++
			if pendingInput(f) == before {
				self.ii.Stalled(f)
				break
			}
		}
	}
	self.ticks.Inc()
	self.ii.Ticked(calls)
}

// pendingInput is the number of bytes and messages waiting on f's inputs.
func pendingInput(f Filter) int {
	b := f.base()
	n := 0
	for _, fifo := range b.infifos {
		if fifo != nil {
			n += fifo.ReadSize()
		}
	}
	for _, q := range b.inqueues {
		if q != nil {
			n += q.Len()
		}
	}
	return n
}

func unsetupAll(s *Sync, filters []Filter) {
	for _, f := range filters {
		if u, ok := f.(Unsetupper); ok {
			u.Unsetup(s)
		}
	}
}
