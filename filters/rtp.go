package filters

import (
	"github.com/openziti/mediastreamer"
	"github.com/pion/rtp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	RTPWrapClass   *mediastreamer.Class
	RTPUnwrapClass *mediastreamer.Class
)

func init() {
	RTPWrapClass = mediastreamer.RegisterClass(mediastreamer.Class{
		Name:        "rtp_wrap",
		Type:        mediastreamer.FilterNet,
		MaxQInputs:  1,
		MaxQOutputs: 1,
	}, func(params map[string]interface{}) (mediastreamer.Filter, error) {
		config := &RTPWrapConfig{PayloadType: 0}
		if err := bind(params, config); err != nil {
			return nil, err
		}
		return NewRTPWrap(config), nil
	})

	RTPUnwrapClass = mediastreamer.RegisterClass(mediastreamer.Class{
		Name:        "rtp_unwrap",
		Type:        mediastreamer.FilterNet,
		MaxQInputs:  1,
		MaxQOutputs: 1,
	}, func(params map[string]interface{}) (mediastreamer.Filter, error) {
		if err := bind(params, &struct{}{}); err != nil {
			return nil, err
		}
		return NewRTPUnwrap(), nil
	})
}

type RTPWrapConfig struct {
	PayloadType uint8  `cf:"payload_type"`
	SSRC        uint32 `cf:"ssrc"`
	FirstSeq    uint16 `cf:"first_seq"`
}

// RTPWrap encapsulates each message into an RTP packet. The clock rate comes from the nearest upstream audio codec
// (PropFreq); message timestamps, counted in sync samples, are rescaled to it.
//
type RTPWrap struct {
	mediastreamer.BaseFilter
	config    *RTPWrapConfig
	sequencer rtp.Sequencer
	clockRate int
	syncRate  int
	packets   int
}

func NewRTPWrap(config *RTPWrapConfig) *RTPWrap {
	f := &RTPWrap{config: config, clockRate: 8000, syncRate: 8000}
	f.Init(f, RTPWrapClass)
	f.sequencer = rtp.NewFixedSequencer(config.FirstSeq)
	return f
}

func (self *RTPWrap) Setup(s *mediastreamer.Sync) error {
	self.syncRate = s.Profile().Rate
	self.clockRate = self.syncRate
	if codec := mediastreamer.SearchUpstreamByType(self, mediastreamer.FilterAudioCodec); codec != nil {
		v, err := mediastreamer.GetProperty(codec, mediastreamer.PropFreq)
		if err != nil {
			return errors.Wrapf(err, "error reading clock rate from [%s]", codec.Name())
		}
		freq, ok := v.(int)
		if !ok || freq <= 0 {
			return errors.Errorf("invalid clock rate [%v] from [%s]", v, codec.Name())
		}
		self.clockRate = freq
	}
	logrus.Debugf("[%s] clock rate [%d]", self.Name(), self.clockRate)
	return nil
}

func (self *RTPWrap) Process() {
	m := self.InQueue(0).Get()
	if m == nil {
		return
	}
	defer m.Destroy()

	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         m.Mark,
			PayloadType:    self.config.PayloadType,
			SequenceNumber: self.sequencer.NextSequenceNumber(),
			Timestamp:      uint32(uint64(m.Timestamp) * uint64(self.clockRate) / uint64(self.syncRate)),
			SSRC:           self.config.SSRC,
		},
		Payload: m.Data,
	}
	raw, err := pkt.Marshal()
	if err != nil {
		logrus.Errorf("[%s] error marshaling packet (%v)", self.Name(), err)
		return
	}
	self.packets++
	if out := self.OutQueue(0); out != nil {
		wrapped := &mediastreamer.Message{}
		wrapped.SetBuffer(mediastreamer.NewBufferWithExternal(raw, nil))
		wrapped.Mark = m.Mark
		wrapped.Timestamp = pkt.Timestamp
		out.Put(wrapped)
	}
}

func (self *RTPWrap) ClockRate() int {
	return self.clockRate
}

// RTPUnwrap parses RTP packets back into payload messages carrying the packet's marker and timestamp. Messages that
// do not parse are counted and dropped.
//
type RTPUnwrap struct {
	mediastreamer.BaseFilter
	invalid int
	lastSeq uint16
}

func NewRTPUnwrap() *RTPUnwrap {
	f := &RTPUnwrap{}
	f.Init(f, RTPUnwrapClass)
	return f
}

func (self *RTPUnwrap) Process() {
	m := self.InQueue(0).Get()
	if m == nil {
		return
	}
	defer m.Destroy()

	pkt := &rtp.Packet{}
	if err := pkt.Unmarshal(m.Data); err != nil {
		self.invalid++
		logrus.Debugf("[%s] dropping invalid packet (%v)", self.Name(), err)
		return
	}
	self.lastSeq = pkt.SequenceNumber
	if out := self.OutQueue(0); out != nil {
		payload := mediastreamer.NewMessage(len(pkt.Payload))
		copy(payload.Data, pkt.Payload)
		payload.Mark = pkt.Marker
		payload.Timestamp = pkt.Timestamp
		out.Put(payload)
	}
}

func (self *RTPUnwrap) Invalid() int {
	return self.invalid
}

func (self *RTPUnwrap) LastSequence() uint16 {
	return self.lastSeq
}
