package mediastreamer

import (
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestLinkPortBusy(t *testing.T) {
	src := newTestSource()
	a := newTestSink()
	b := newTestSink()

	require.NoError(t, Link(src, 0, a, 0, LinkFifo))
	err := Link(src, 0, b, 0, LinkFifo)
	assert.Equal(t, ErrPortBusy, errors.Cause(err))
	assert.Equal(t, a, src.OutFifo(0).Next())
	assert.Equal(t, 0, b.FInputs())
}

func TestLinkPortIndex(t *testing.T) {
	src := newTestSource()
	sink := newTestSink()
	assert.Equal(t, ErrPortIndex, errors.Cause(Link(src, 1, sink, 0, LinkFifo)))
	assert.Equal(t, ErrPortIndex, errors.Cause(Link(src, 0, sink, 0, LinkQueue)))
	assert.Equal(t, ErrPortIndex, errors.Cause(Link(src, -1, sink, 0, LinkFifo)))
}

func TestAddLinkAndRemoveLinks(t *testing.T) {
	src := newTestSource()
	sink := newTestSink()

	require.NoError(t, AddLink(src, sink))
	assert.Equal(t, 1, src.FOutputs())
	assert.Equal(t, 1, sink.FInputs())
	assert.Equal(t, ErrNoFreePort, errors.Cause(AddLink(src, newTestSink())))

	require.NoError(t, RemoveLinks(src, sink))
	assert.Equal(t, 0, src.FOutputs())
	assert.Equal(t, 0, sink.FInputs())
	assert.Nil(t, src.OutFifo(0))
	assert.Equal(t, ErrNotLinked, errors.Cause(RemoveLinks(src, sink)))
}

func TestAddLinkPrefersQueues(t *testing.T) {
	qsrc := newTestQSource(1)
	qsink := newTestQSink()
	require.NoError(t, AddLink(qsrc, qsink))
	assert.NotNil(t, qsink.InQueue(0))
	assert.Equal(t, 1, qsink.QInputs())
	assert.Equal(t, []Filter{qsink}, Downstream(qsrc))
	assert.Equal(t, []Filter{qsrc}, Upstream(qsink))
}

func TestUnlinkNotLinked(t *testing.T) {
	src := newTestSource()
	a := newTestSink()
	b := newTestSink()
	require.NoError(t, Link(src, 0, a, 0, LinkFifo))
	assert.Equal(t, ErrNotLinked, errors.Cause(Unlink(src, 0, b, 0, LinkFifo)))
	require.NoError(t, Unlink(src, 0, a, 0, LinkFifo))
	assert.Equal(t, ErrNotLinked, errors.Cause(Unlink(src, 0, a, 0, LinkFifo)))
}

func TestUnlinkReleasesFifoBuffer(t *testing.T) {
	src := newTestSource()
	sink := newTestSink()
	require.NoError(t, Link(src, 0, sink, 0, LinkFifo))
	buf := src.OutFifo(0).Buffer()
	require.NoError(t, Unlink(src, 0, sink, 0, LinkFifo))
	assert.True(t, buf.Released())
}

func TestDestroyConnectedFilter(t *testing.T) {
	src := newTestSource()
	sink := newTestSink()
	require.NoError(t, Link(src, 0, sink, 0, LinkFifo))
	assert.Equal(t, ErrFilterBusy, errors.Cause(Destroy(sink)))
	require.NoError(t, Unlink(src, 0, sink, 0, LinkFifo))
	assert.NoError(t, Destroy(sink))
}

func TestMinFifoSizePropagation(t *testing.T) {
	src := newTestSource()
	pass := newTestPass()
	sink := newTestSink()
	require.NoError(t, Link(src, 0, pass, 0, LinkFifo))
	require.NoError(t, Link(pass, 0, sink, 0, LinkFifo))

	assert.Equal(t, 160, pass.MinFifoSize())
	assert.Equal(t, 160, sink.MinFifoSize())
	assert.Equal(t, 6*160, src.OutFifo(0).Capacity())
	assert.Equal(t, 6*160, pass.OutFifo(0).Capacity())
}

func TestSearchUpstreamByType(t *testing.T) {
	src := newTestSource()
	pass := newTestPass()
	sink := newTestSink()
	require.NoError(t, Link(src, 0, pass, 0, LinkFifo))
	require.NoError(t, Link(pass, 0, sink, 0, LinkFifo))

	assert.Equal(t, pass, SearchUpstreamByType(sink, FilterAudioCodec))
	assert.Nil(t, SearchUpstreamByType(sink, FilterNet))

	freq, err := GetProperty(SearchUpstreamByType(sink, FilterAudioCodec), PropFreq)
	require.NoError(t, err)
	assert.Equal(t, 8000, freq)
	_, err = GetProperty(pass, PropBitrate)
	assert.Equal(t, ErrNotSupported, errors.Cause(err))
	assert.Equal(t, ErrNotSupported, errors.Cause(SetProperty(sink, PropFreq, 8000)))
}

func TestClassRegistry(t *testing.T) {
	c, found := LookupClass("test_source")
	require.True(t, found)
	assert.True(t, c.Is(IsSource))
	assert.False(t, c.Is(IsSink))
	assert.Equal(t, testSourceClass.Id(), c.Id())

	c.WGranularity = 1
	again, _ := LookupClass("test_source")
	assert.Equal(t, 160, again.WGranularity)

	assert.Panics(t, func() { RegisterClass(Class{Name: "test_source"}, nil) })
	_, err := NewFilter("no_such_class", nil)
	assert.Equal(t, ErrUnknownClass, errors.Cause(err))
	assert.Contains(t, ClassNames(), "test_sink")
}

func TestNotify(t *testing.T) {
	src := newTestSource()
	var got Event
	var from Filter
	src.SetNotifyFunc(func(f Filter, event Event, arg interface{}) {
		from = f
		got = event
	})
	src.Notify(EventEOF, nil)
	assert.Equal(t, EventEOF, got)
	assert.Equal(t, src, from)
}
