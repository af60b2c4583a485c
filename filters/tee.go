package filters

import "github.com/openziti/mediastreamer"

var TeeClass *mediastreamer.Class

func init() {
	TeeClass = mediastreamer.RegisterClass(mediastreamer.Class{
		Name:        "tee",
		Type:        mediastreamer.FilterOther,
		MaxQInputs:  1,
		MaxQOutputs: 2,
	}, func(params map[string]interface{}) (mediastreamer.Filter, error) {
		if err := bind(params, &struct{}{}); err != nil {
			return nil, err
		}
		return NewTee(), nil
	})
}

// Tee forwards each input message to both outputs without copying the payload.
type Tee struct {
	mediastreamer.BaseFilter
}

func NewTee() *Tee {
	f := &Tee{}
	f.Init(f, TeeClass)
	return f
}

func (self *Tee) Process() {
	m := self.InQueue(0).Get()
	if m == nil {
		return
	}
	if out := self.OutQueue(1); out != nil {
		out.Put(m.Dup())
	}
	if out := self.OutQueue(0); out != nil {
		out.Put(m)
	} else {
		m.Destroy()
	}
}
