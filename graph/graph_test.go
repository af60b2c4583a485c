package graph

import (
	"github.com/openziti/mediastreamer"
	"github.com/openziti/mediastreamer/filters"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const loopback = `
name: loopback
profile:
  rate: 8000
  queue_max_len: 64
filters:
  - name: src
    type: counter
    params:
      blocks: 2
  - name: framer
    type: framer
    params:
      freq: 8000
  - name: tee
    type: tee
  - name: wrap
    type: rtp_wrap
    params:
      payload_type: 96
  - name: unwrap
    type: rtp_unwrap
  - name: deframer
    type: deframer
  - name: sink
    type: null_sink
    params:
      verify: true
  - name: packets
    type: null_sink
links:
  - from: src
    to: framer
  - from: framer
    to: tee
  - from: tee
    to: wrap
    kind: queue
    from_pin: 0
    to_pin: 0
  - from: tee
    to: packets
    kind: queue
    from_pin: 1
    to_pin: 0
  - from: wrap
    to: unwrap
  - from: unwrap
    to: deframer
  - from: deframer
    to: sink
sources: [src]
`

func TestParse(t *testing.T) {
	d, err := Parse([]byte(loopback))
	require.NoError(t, err)
	assert.Equal(t, "loopback", d.Name)
	assert.Len(t, d.Filters, 8)
	assert.Len(t, d.Links, 7)
	assert.Equal(t, []string{"src"}, d.Sources)
	assert.Equal(t, 2, d.Filters[0].Params["blocks"])
	assert.Equal(t, "queue", d.Links[2].Kind)
	assert.Equal(t, 1, d.Links[3].FromPin)
}

func TestBuildTickTeardown(t *testing.T) {
	d, err := Parse([]byte(loopback))
	require.NoError(t, err)
	g, err := Build(d)
	require.NoError(t, err)
	assert.Equal(t, 64, g.Profile.QueueMaxLen)
	assert.Equal(t, []string{"src", "framer", "tee", "wrap", "unwrap", "deframer", "sink", "packets"}, g.Filters())

	execution, err := g.Sync.Compile()
	require.NoError(t, err)
	assert.Len(t, execution, 8)
	assert.Equal(t, g.Filter("src"), execution[0])

	for i := 0; i < 10; i++ {
		require.NoError(t, g.Sync.Tick())
	}
	sink := g.Filter("sink").(*filters.NullSink)
	packets := g.Filter("packets").(*filters.NullSink)
	assert.Equal(t, uint64(20), sink.Granules())
	assert.Equal(t, uint64(0), sink.Errors())
	assert.Equal(t, uint64(20), packets.Messages())

	require.NoError(t, g.Teardown())
	assert.Nil(t, g.Filter("sink"))
}

func TestBuildRunsInRealTime(t *testing.T) {
	d, err := Parse([]byte(loopback))
	require.NoError(t, err)
	g, err := Build(d)
	require.NoError(t, err)

	require.NoError(t, g.Start())
	time.Sleep(200 * time.Millisecond)
	g.Stop()
	sink := g.Filter("sink").(*filters.NullSink)
	assert.True(t, sink.Granules() > 0)
	assert.Equal(t, uint64(0), sink.Errors())
	require.NoError(t, g.Teardown())
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(&Description{Filters: []*FilterDescription{{Name: "x", Type: "no_such"}}})
	assert.Equal(t, mediastreamer.ErrUnknownClass, errors.Cause(err))

	_, err = Build(&Description{
		Filters: []*FilterDescription{{Name: "a", Type: "counter"}, {Name: "a", Type: "counter"}},
	})
	assert.Error(t, err)

	_, err = Build(&Description{
		Filters: []*FilterDescription{{Name: "a", Type: "counter"}, {Name: "b", Type: "null_sink"}, {Name: "c", Type: "null_sink"}},
		Links:   []*LinkDescription{{From: "a", To: "b", Kind: "fifo"}, {From: "a", To: "c", Kind: "fifo"}},
	})
	assert.Equal(t, mediastreamer.ErrPortBusy, errors.Cause(err))

	_, err = Build(&Description{
		Filters: []*FilterDescription{{Name: "b", Type: "null_sink"}},
		Sources: []string{"b"},
	})
	assert.Equal(t, mediastreamer.ErrNotSource, errors.Cause(err))

	_, err = Build(&Description{Profile: map[string]interface{}{"rate": -1}})
	assert.Error(t, err)
}

func TestLoadFileGraph(t *testing.T) {
	dir, err := ioutil.TempDir("", "graph")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(dir) }()

	in := filepath.Join(dir, "in.raw")
	out := filepath.Join(dir, "out.raw")
	require.NoError(t, ioutil.WriteFile(in, make([]byte, 1000), os.ModePerm))

	description := `
name: copy
filters:
  - name: reader
    type: file_source
    params:
      path: ` + in + `
  - name: writer
    type: file_sink
    params:
      path: ` + out + `
links:
  - from: reader
    to: writer
sources: [reader]
`
	path := filepath.Join(dir, "copy.yml")
	require.NoError(t, ioutil.WriteFile(path, []byte(description), os.ModePerm))

	d, err := Load(path)
	require.NoError(t, err)
	g, err := Build(d)
	require.NoError(t, err)
	require.NoError(t, g.Start())

	select {
	case n := <-g.Events():
		assert.Equal(t, "reader", n.Filter)
		assert.Equal(t, mediastreamer.EventEOF, n.Event)
	case <-time.After(5 * time.Second):
		t.Fatal("no end of file")
	}
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, g.Teardown())

	written, err := ioutil.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, written, 1000)
}

func TestTeardownFlushesHandTickedGraph(t *testing.T) {
	dir, err := ioutil.TempDir("", "graph")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(dir) }()

	in := filepath.Join(dir, "in.raw")
	out := filepath.Join(dir, "out.raw")
	require.NoError(t, ioutil.WriteFile(in, make([]byte, 500), os.ModePerm))

	d, err := Parse([]byte(`
name: hand
filters:
  - name: reader
    type: file_source
    params:
      path: ` + in + `
  - name: writer
    type: file_sink
    params:
      path: ` + out + `
links:
  - from: reader
    to: writer
sources: [reader]
`))
	require.NoError(t, err)
	g, err := Build(d)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, g.Sync.Tick())
	}
	require.NoError(t, g.Teardown())

	written, err := ioutil.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, written, 500)
}
