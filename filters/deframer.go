package filters

import "github.com/openziti/mediastreamer"

var DeframerClass *mediastreamer.Class

func init() {
	DeframerClass = mediastreamer.RegisterClass(mediastreamer.Class{
		Name:         "deframer",
		Type:         mediastreamer.FilterOther,
		MaxQInputs:   1,
		MaxFOutputs:  1,
		WGranularity: Granule,
	}, func(params map[string]interface{}) (mediastreamer.Filter, error) {
		if err := bind(params, &struct{}{}); err != nil {
			return nil, err
		}
		return NewDeframer(), nil
	})
}

// Deframer turns messages back into stream bytes, one message per call. A message shorter than a granule only
// advances the fifo by its length; longer messages are cut to a granule.
//
type Deframer struct {
	mediastreamer.BaseFilter
	truncated int
}

func NewDeframer() *Deframer {
	f := &Deframer{}
	f.Init(f, DeframerClass)
	return f
}

func (self *Deframer) Process() {
	in := self.InQueue(0)
	out := self.OutFifo(0)
	if in == nil || out == nil || out.WriteSize() < Granule {
		return
	}
	m := in.Get()
	if m == nil {
		return
	}
	defer m.Destroy()

	dst, err := out.GetWritePtr(Granule)
	if err != nil {
		return
	}
	n := copy(dst, m.Data)
	if n < m.Size() {
		self.truncated++
	}
	if n < Granule {
		_ = out.UpdateWritePtr(n)
	}
}

// Truncated counts messages longer than a granule.
func (self *Deframer) Truncated() int {
	return self.truncated
}
