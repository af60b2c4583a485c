package mediastreamer

import "time"

type nilInstrument struct{}

func NewNilInstrument() Instrument {
	return &nilInstrument{}
}

func (self *nilInstrument) NewInstance(_ string) InstrumentInstance {
	return &NilInstrumentInstance{}
}

type NilInstrumentInstance struct{}

func (n NilInstrumentInstance) Attached(Filter)       {}
func (n NilInstrumentInstance) Detached(Filter)       {}
func (n NilInstrumentInstance) Compiled(int, int)     {}
func (n NilInstrumentInstance) Started()              {}
func (n NilInstrumentInstance) Stopped()              {}
func (n NilInstrumentInstance) Ticked(int)            {}
func (n NilInstrumentInstance) Catchup(time.Duration) {}
func (n NilInstrumentInstance) Stalled(Filter)        {}
func (n NilInstrumentInstance) QueueDropped(*Queue)   {}
func (n NilInstrumentInstance) Allocate(string)       {}
func (n NilInstrumentInstance) Shutdown()             {}
