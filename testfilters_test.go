package mediastreamer

import "github.com/openziti/mediastreamer/util"

var testSourceClass = RegisterClass(Class{
	Name:         "test_source",
	MaxFOutputs:  1,
	WGranularity: 160,
	Attributes:   IsSource,
}, nil)

var testSinkClass = RegisterClass(Class{
	Name:         "test_sink",
	MaxFInputs:   1,
	RGranularity: 160,
	Attributes:   IsSink,
}, nil)

var testPassClass = RegisterClass(Class{
	Name:         "test_pass",
	Type:         FilterAudioCodec,
	MaxFInputs:   1,
	MaxFOutputs:  2,
	RGranularity: 160,
	WGranularity: 160,
}, nil)

var testQSourceClass = RegisterClass(Class{
	Name:        "test_qsource",
	MaxQOutputs: 1,
	Attributes:  IsSource,
}, nil)

var testQSinkClass = RegisterClass(Class{
	Name:       "test_qsink",
	MaxQInputs: 1,
	Attributes: IsSink,
}, nil)

var testSyncerClass = RegisterClass(Class{
	Name:         "test_syncer",
	Type:         FilterAudioIO,
	MaxFOutputs:  1,
	WGranularity: 160,
	Attributes:   IsSource | CanSync,
}, nil)

var testGreedyClass = RegisterClass(Class{
	Name:         "test_greedy",
	MaxFInputs:   1,
	RGranularity: 320,
}, nil)

// testSource writes one sequence-stamped granule per call.
type testSource struct {
	BaseFilter
	seq    uint32
	calls  int
	blocks int
}

func newTestSource() *testSource {
	f := &testSource{}
	f.Init(f, testSourceClass)
	return f
}

func (self *testSource) Process() {
	self.calls++
	out := self.OutFifo(0)
	if out == nil {
		return
	}
	for i := 0; i < self.blocks || (self.blocks == 0 && i < 1); i++ {
		buf, err := out.GetWritePtr(160)
		if err != nil {
			return
		}
		util.WriteUint32(buf, self.seq)
		self.seq++
	}
}

// testSink reads every granule available on its input, checking the stamps.
type testSink struct {
	BaseFilter
	calls    int
	granules int
	next     uint32
	errors   int
}

func newTestSink() *testSink {
	f := &testSink{}
	f.Init(f, testSinkClass)
	return f
}

func (self *testSink) Process() {
	self.calls++
	in := self.InFifo(0)
	buf, err := in.GetReadPtr(160)
	if err != nil {
		return
	}
	if util.ReadUint32(buf) != self.next {
		self.errors++
	}
	self.next = util.ReadUint32(buf) + 1
	self.granules++
}

// testPass copies one granule from its input to every connected output.
type testPass struct {
	BaseFilter
	calls    int
	setups   int
	unsetups int
}

func newTestPass() *testPass {
	f := &testPass{}
	f.Init(f, testPassClass)
	return f
}

func (self *testPass) Process() {
	self.calls++
	in, err := self.InFifo(0).GetReadPtr(160)
	if err != nil {
		return
	}
	for i := 0; i < 2; i++ {
		if out := self.OutFifo(i); out != nil {
			if buf, err := out.GetWritePtr(160); err == nil {
				copy(buf, in)
			}
		}
	}
}

func (self *testPass) Setup(*Sync) error {
	self.setups++
	return nil
}

func (self *testPass) Unsetup(*Sync) {
	self.unsetups++
}

func (self *testPass) GetProperty(p Property) (interface{}, error) {
	if p == PropFreq {
		return 8000, nil
	}
	return nil, ErrNotSupported
}

type testQSource struct {
	BaseFilter
	perCall int
}

func newTestQSource(perCall int) *testQSource {
	f := &testQSource{perCall: perCall}
	f.Init(f, testQSourceClass)
	return f
}

func (self *testQSource) Process() {
	for i := 0; i < self.perCall; i++ {
		self.OutQueue(0).Put(NewMessage(10))
	}
}

type testQSink struct {
	BaseFilter
	calls    int
	messages int
}

func newTestQSink() *testQSink {
	f := &testQSink{}
	f.Init(f, testQSinkClass)
	return f
}

func (self *testQSink) Process() {
	self.calls++
	if m := self.InQueue(0).Get(); m != nil {
		self.messages++
		m.Destroy()
	}
}

// testSyncer owns the tick size, like a sound card would.
type testSyncer struct {
	BaseFilter
	samples int
}

func newTestSyncer(samples int) *testSyncer {
	f := &testSyncer{samples: samples}
	f.Init(f, testSyncerClass)
	return f
}

func (self *testSyncer) Process() {}

func (self *testSyncer) Setup(s *Sync) error {
	s.SetSamplesPerTick(self.samples)
	return nil
}

// testGreedy only reads in 320 byte granules but is woken at 160.
type testGreedy struct {
	BaseFilter
	calls int
}

func newTestGreedy() *testGreedy {
	f := &testGreedy{}
	f.Init(f, testGreedyClass)
	f.SetReadMinGranularity(160)
	return f
}

func (self *testGreedy) Process() {
	self.calls++
	if self.InFifo(0).ReadSize() >= 320 {
		_, _ = self.InFifo(0).GetReadPtr(320)
	}
}
