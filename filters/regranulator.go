package filters

import "github.com/openziti/mediastreamer"

var RegranulatorClass *mediastreamer.Class

func init() {
	RegranulatorClass = mediastreamer.RegisterClass(mediastreamer.Class{
		Name:         "regranulator",
		Type:         mediastreamer.FilterOther,
		MaxFInputs:   1,
		MaxFOutputs:  1,
		RGranularity: Granule,
		WGranularity: 2 * Granule,
	}, func(params map[string]interface{}) (mediastreamer.Filter, error) {
		if err := bind(params, &struct{}{}); err != nil {
			return nil, err
		}
		return NewRegranulator(), nil
	})
}

// Regranulator joins pairs of input granules into one double-size output block. The scheduler only wakes it once a
// whole pair is readable.
//
type Regranulator struct {
	mediastreamer.BaseFilter
}

func NewRegranulator() *Regranulator {
	f := &Regranulator{}
	f.Init(f, RegranulatorClass)
	f.SetReadMinGranularity(2 * Granule)
	return f
}

func (self *Regranulator) Process() {
	in := self.InFifo(0)
	out := self.OutFifo(0)
	if in == nil || out == nil || in.ReadSize() < 2*Granule || out.WriteSize() < 2*Granule {
		return
	}
	dst, err := out.GetWritePtr(2 * Granule)
	if err != nil {
		return
	}
	for i := 0; i < 2; i++ {
		src, err := in.GetReadPtr(Granule)
		if err != nil {
			return
		}
		copy(dst[i*Granule:], src)
	}
}
