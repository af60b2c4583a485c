package filters

import (
	"github.com/openziti/mediastreamer"
	"github.com/openziti/mediastreamer/util"
	"go.uber.org/atomic"
)

var CounterClass *mediastreamer.Class

func init() {
	CounterClass = mediastreamer.RegisterClass(mediastreamer.Class{
		Name:         "counter",
		Type:         mediastreamer.FilterOther,
		MaxFOutputs:  1,
		WGranularity: Granule,
		Attributes:   mediastreamer.IsSource,
	}, func(params map[string]interface{}) (mediastreamer.Filter, error) {
		config := &CounterConfig{Blocks: 1}
		if err := bind(params, config); err != nil {
			return nil, err
		}
		return NewCounter(config), nil
	})
}

type CounterConfig struct {
	Blocks int `cf:"blocks"`
}

// Counter writes Blocks granules per tick, each starting with a big-endian sequence number and filled with its low
// byte.
//
type Counter struct {
	mediastreamer.BaseFilter
	config  *CounterConfig
	seq     uint32
	written atomic.Uint64
	overrun atomic.Uint64
}

func NewCounter(config *CounterConfig) *Counter {
	f := &Counter{config: config}
	f.Init(f, CounterClass)
	return f
}

func (self *Counter) Process() {
	out := self.OutFifo(0)
	if out == nil {
		return
	}
	for i := 0; i < self.config.Blocks; i++ {
		buf, err := out.GetWritePtr(Granule)
		if err != nil {
			self.overrun.Inc()
			return
		}
		for j := 4; j < len(buf); j++ {
			buf[j] = byte(self.seq)
		}
		util.WriteUint32(buf, self.seq)
		self.seq++
		self.written.Inc()
	}
}

// Written is the number of granules produced.
func (self *Counter) Written() uint64 {
	return self.written.Load()
}

// Overruns counts granules that found no space downstream.
func (self *Counter) Overruns() uint64 {
	return self.overrun.Load()
}
