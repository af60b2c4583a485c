package mediastreamer

import (
	"fmt"
	"github.com/openziti/mediastreamer/cf"
	"github.com/openziti/mediastreamer/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"io/ioutil"
	"os"
	"strings"
	"sync"
	"time"
)

type MetricsInstrument struct {
	lock      sync.Mutex
	Config    *MetricsInstrumentConfig
	enabled   atomic.Bool
	instances []*metricsInstrumentInstance
}

type MetricsInstrumentConfig struct {
	Path       string `cf:"path"`
	SnapshotMs int    `cf:"snapshot_ms"`
	Enabled    bool   `cf:"enabled"`
	Ctrl       bool   `cf:"ctrl"`
}

func NewMetricsInstrument(config map[string]interface{}) (Instrument, error) {
	i := &MetricsInstrument{
		Config: &MetricsInstrumentConfig{
			Path:       "/tmp/mediastreamer",
			SnapshotMs: 1000,
			Enabled:    true,
		},
	}
	if err := cf.Load(config, i.Config); err != nil {
		return nil, errors.Wrap(err, "unable to load config")
	}
	if i.Config.SnapshotMs <= 0 {
		return nil, errors.Errorf("invalid snapshot_ms [%d]", i.Config.SnapshotMs)
	}
	i.enabled.Store(i.Config.Enabled)
	if i.Config.Ctrl {
		if err := addCtrlListener(i); err != nil {
			return nil, err
		}
	}
	logrus.Infof(cf.Dump("metrics", i.Config))
	return i, nil
}

func addCtrlListener(i *MetricsInstrument) error {
	cl, err := util.GetCtrlListener(i.Config.Path, "mediastreamer")
	if err != nil {
		return errors.Wrap(err, "unable to get metrics ctrl listener")
	}
	cl.AddCallback("start", func(string) error {
		i.enabled.Store(true)
		return nil
	})
	cl.AddCallback("stop", func(string) error {
		i.enabled.Store(false)
		return nil
	})
	cl.AddCallback("write", func(string) error {
		err := i.WriteAllSamples()
		if err != nil {
			logrus.Errorf("error writing samples (%v)", err)
		}
		return err
	})
	cl.AddCallback("clean", func(string) error {
		i.clean()
		return nil
	})
	cl.Start()
	return nil
}

func (self *MetricsInstrument) NewInstance(id string) InstrumentInstance {
	self.lock.Lock()
	defer self.lock.Unlock()
	ii := &metricsInstrumentInstance{
		id:      id,
		enabled: &self.enabled,
		close:   make(chan struct{}),
	}
	go ii.snapshotter(self.Config.SnapshotMs)
	self.instances = append(self.instances, ii)
	return ii
}

// WriteAllSamples writes one directory per instance below Config.Path, each holding a metrics.id and one CSV per
// series.
//
func (self *MetricsInstrument) WriteAllSamples() error {
	self.lock.Lock()
	defer self.lock.Unlock()

	for _, ii := range self.instances {
		if err := ii.writeSamples(self.Config.Path); err != nil {
			return err
		}
	}
	return nil
}

func (self *MetricsInstrument) clean() {
	self.lock.Lock()
	defer self.lock.Unlock()

	var live []*metricsInstrumentInstance
	for _, ii := range self.instances {
		if ii.closed.Load() {
			logrus.Infof("removed metricsInstrumentInstance [%s]", ii.id)
		} else {
			live = append(live, ii)
		}
	}
	self.instances = live
}

type metricsInstrumentInstance struct {
	id      string
	enabled *atomic.Bool
	close   chan struct{}
	closed  atomic.Bool
	lock    sync.Mutex

	ticks          []*util.Sample
	ticksAccum     atomic.Int64
	calls          []*util.Sample
	callsAccum     atomic.Int64
	catchups       []*util.Sample
	catchupsAccum  atomic.Int64
	behindMs       []*util.Sample
	behindMsVal    atomic.Int64
	stalls         []*util.Sample
	stallsAccum    atomic.Int64
	dropped        []*util.Sample
	droppedAccum   atomic.Int64
	filters        []*util.Sample
	filtersVal     atomic.Int64
	layers         []*util.Sample
	layersVal      atomic.Int64
	allocations    []*util.Sample
	allocationsAcc atomic.Int64
}

/*
 * graph
 */

func (self *metricsInstrumentInstance) Attached(Filter) {}
func (self *metricsInstrumentInstance) Detached(Filter) {}

func (self *metricsInstrumentInstance) Compiled(filters, layers int) {
	self.filtersVal.Store(int64(filters))
	self.layersVal.Store(int64(layers))
}

/*
 * worker
 */

func (self *metricsInstrumentInstance) Started() {}
func (self *metricsInstrumentInstance) Stopped() {}

func (self *metricsInstrumentInstance) Ticked(calls int) {
	if self.enabled.Load() {
		self.ticksAccum.Inc()
		self.callsAccum.Add(int64(calls))
	}
}

func (self *metricsInstrumentInstance) Catchup(behind time.Duration) {
	if self.enabled.Load() {
		self.catchupsAccum.Inc()
		self.behindMsVal.Store(behind.Milliseconds())
	}
}

func (self *metricsInstrumentInstance) Stalled(Filter) {
	if self.enabled.Load() {
		self.stallsAccum.Inc()
	}
}

/*
 * queues
 */

func (self *metricsInstrumentInstance) QueueDropped(*Queue) {
	if self.enabled.Load() {
		self.droppedAccum.Inc()
	}
}

/*
 * allocation
 */

func (self *metricsInstrumentInstance) Allocate(string) {
	if self.enabled.Load() {
		self.allocationsAcc.Inc()
	}
}

/*
 * instrument lifecycle
 */

func (self *metricsInstrumentInstance) Shutdown() {
	if self.closed.CAS(false, true) {
		close(self.close)
	}
}

func (self *metricsInstrumentInstance) snapshotter(ms int) {
	logrus.Debugf("[%s] snapshotter started", self.id)
	defer logrus.Debugf("[%s] snapshotter exited", self.id)

	ticker := time.NewTicker(time.Duration(ms) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if self.enabled.Load() {
				self.snapshot()
			}
		case <-self.close:
			self.snapshot()
			return
		}
	}
}

func (self *metricsInstrumentInstance) snapshot() {
	self.lock.Lock()
	defer self.lock.Unlock()

	now := time.Now()
	self.ticks = append(self.ticks, &util.Sample{Ts: now, V: self.ticksAccum.Swap(0)})
	self.calls = append(self.calls, &util.Sample{Ts: now, V: self.callsAccum.Swap(0)})
	self.catchups = append(self.catchups, &util.Sample{Ts: now, V: self.catchupsAccum.Swap(0)})
	self.behindMs = append(self.behindMs, &util.Sample{Ts: now, V: self.behindMsVal.Swap(0)})
	self.stalls = append(self.stalls, &util.Sample{Ts: now, V: self.stallsAccum.Swap(0)})
	self.dropped = append(self.dropped, &util.Sample{Ts: now, V: self.droppedAccum.Swap(0)})
	self.filters = append(self.filters, &util.Sample{Ts: now, V: self.filtersVal.Load()})
	self.layers = append(self.layers, &util.Sample{Ts: now, V: self.layersVal.Load()})
	self.allocations = append(self.allocations, &util.Sample{Ts: now, V: self.allocationsAcc.Swap(0)})
}

func (self *metricsInstrumentInstance) writeSamples(root string) error {
	self.lock.Lock()
	defer self.lock.Unlock()

	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		return err
	}
	outPath, err := ioutil.TempDir(root, strings.ReplaceAll(fmt.Sprintf("%s_", self.id), ":", "-"))
	if err != nil {
		return err
	}
	logrus.Infof("writing metrics to: %s", outPath)

	if err := util.WriteMetricsId(self.id, outPath, map[string]string{"instance": util.NewInstanceId()}); err != nil {
		return err
	}
	series := []struct {
		name    string
		samples []*util.Sample
	}{
		{"ticks", self.ticks},
		{"calls", self.calls},
		{"catchups", self.catchups},
		{"behind_ms", self.behindMs},
		{"stalls", self.stalls},
		{"queue_dropped", self.dropped},
		{"filters", self.filters},
		{"layers", self.layers},
		{"allocations", self.allocations},
	}
	for _, s := range series {
		if err := util.WriteSamples(s.name, outPath, s.samples); err != nil {
			return err
		}
	}
	return nil
}
