package filters

import (
	"github.com/openziti/mediastreamer"
	"github.com/pkg/errors"
)

var FramerClass *mediastreamer.Class

func init() {
	FramerClass = mediastreamer.RegisterClass(mediastreamer.Class{
		Name:         "framer",
		Type:         mediastreamer.FilterAudioCodec,
		MaxFInputs:   1,
		MaxQOutputs:  1,
		RGranularity: Granule,
	}, func(params map[string]interface{}) (mediastreamer.Filter, error) {
		config := &FramerConfig{Freq: 8000, MarkEvery: 1}
		if err := bind(params, config); err != nil {
			return nil, err
		}
		return NewFramer(config)
	})
}

type FramerConfig struct {
	Freq      int `cf:"freq"`
	MarkEvery int `cf:"mark_every"`
}

// Framer cuts its input stream into one message per granule, drawn from a buffer pool. Every MarkEvery-th message
// carries the mark bit. Message timestamps count samples.
//
type Framer struct {
	mediastreamer.BaseFilter
	config         *FramerConfig
	pool           *mediastreamer.Pool
	bytesPerSample int
	frames         int
	timestamp      uint32
}

func NewFramer(config *FramerConfig) (*Framer, error) {
	if config.Freq <= 0 {
		return nil, errors.Errorf("invalid freq [%d]", config.Freq)
	}
	if config.MarkEvery <= 0 {
		return nil, errors.Errorf("invalid mark_every [%d]", config.MarkEvery)
	}
	f := &Framer{config: config, bytesPerSample: 2}
	f.Init(f, FramerClass)
	return f, nil
}

func (self *Framer) Setup(s *mediastreamer.Sync) error {
	self.bytesPerSample = s.Profile().BytesPerSample
	if self.pool == nil {
		self.pool = mediastreamer.NewPool(self.Name(), Granule, s.Instrument())
	}
	return nil
}

func (self *Framer) Process() {
	in := self.InFifo(0)
	out := self.OutQueue(0)
	if in == nil || out == nil {
		return
	}
	src, err := in.GetReadPtr(Granule)
	if err != nil {
		return
	}
	var m *mediastreamer.Message
	if self.pool != nil {
		m = self.pool.NewMessage()
	} else {
		m = mediastreamer.NewMessage(Granule)
	}
	copy(m.Data, src)
	self.frames++
	m.Mark = self.frames%self.config.MarkEvery == 0
	m.Timestamp = self.timestamp
	self.timestamp += uint32(Granule / self.bytesPerSample)
	out.Put(m)
}

func (self *Framer) SetProperty(p mediastreamer.Property, v interface{}) error {
	if p != mediastreamer.PropFreq {
		return mediastreamer.ErrNotSupported
	}
	freq, ok := v.(int)
	if !ok || freq <= 0 {
		return errors.Errorf("invalid [%s] value [%v]", p, v)
	}
	self.config.Freq = freq
	return nil
}

func (self *Framer) GetProperty(p mediastreamer.Property) (interface{}, error) {
	if p != mediastreamer.PropFreq {
		return nil, mediastreamer.ErrNotSupported
	}
	return self.config.Freq, nil
}
