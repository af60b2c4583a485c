package filters

import (
	"github.com/openziti/mediastreamer"
	"github.com/openziti/mediastreamer/util"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

var NullSinkClass *mediastreamer.Class

func init() {
	NullSinkClass = mediastreamer.RegisterClass(mediastreamer.Class{
		Name:         "null_sink",
		Type:         mediastreamer.FilterOther,
		MaxFInputs:   1,
		MaxQInputs:   1,
		RGranularity: Granule,
		Attributes:   mediastreamer.IsSink,
	}, func(params map[string]interface{}) (mediastreamer.Filter, error) {
		config := &NullSinkConfig{}
		if err := bind(params, config); err != nil {
			return nil, err
		}
		return NewNullSink(config), nil
	})
}

type NullSinkConfig struct {
	Verify bool `cf:"verify"`
}

// NullSink discards whatever reaches it, one granule or one message per call, keeping counts. With Verify it checks
// the sequence stamps a Counter writes.
//
type NullSink struct {
	mediastreamer.BaseFilter
	config   *NullSinkConfig
	next     uint32
	granules atomic.Uint64
	messages atomic.Uint64
	bytes    atomic.Uint64
	errors   atomic.Uint64
}

func NewNullSink(config *NullSinkConfig) *NullSink {
	f := &NullSink{config: config}
	f.Init(f, NullSinkClass)
	return f
}

func (self *NullSink) Process() {
	if in := self.InFifo(0); in != nil {
		if buf, err := in.GetReadPtr(Granule); err == nil {
			self.granules.Inc()
			self.bytes.Add(uint64(len(buf)))
			if self.config.Verify {
				self.verify(buf)
			}
		}
	}
	if in := self.InQueue(0); in != nil {
		if m := in.Get(); m != nil {
			self.messages.Inc()
			self.bytes.Add(uint64(m.Size()))
			m.Destroy()
		}
	}
}

func (self *NullSink) verify(buf []byte) {
	seq := util.ReadUint32(buf)
	if seq != self.next {
		self.errors.Inc()
		logrus.Warnf("[%s] expected sequence [%d], got [%d]", self.Name(), self.next, seq)
	}
	self.next = seq + 1
}

func (self *NullSink) Granules() uint64 {
	return self.granules.Load()
}

func (self *NullSink) Messages() uint64 {
	return self.messages.Load()
}

func (self *NullSink) Bytes() uint64 {
	return self.bytes.Load()
}

// Errors counts sequence gaps seen with Verify set.
func (self *NullSink) Errors() uint64 {
	return self.errors.Load()
}
