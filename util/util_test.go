package util

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSequence(t *testing.T) {
	s := NewSequence(1)
	assert.Equal(t, int32(1), s.Next())
	assert.Equal(t, int32(2), s.Next())
	s.ResetTo(math.MaxInt32)
	assert.Equal(t, int32(math.MaxInt32), s.Next())
	assert.Equal(t, int32(0), s.Next())
}

func TestWireTypes(t *testing.T) {
	buf := make([]byte, 4)
	WriteUint32(buf, 0xdeadbeef)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, buf)
	assert.Equal(t, uint32(0xdeadbeef), ReadUint32(buf))
	WriteUint16(buf[1:], 0x0102)
	assert.Equal(t, uint16(0x0102), ReadUint16(buf[1:]))
}

func TestSamplesRoundTrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "samples")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(dir) }()

	now := time.Now()
	in := []*Sample{{Ts: now.Add(time.Second), V: 2}, {Ts: now, V: 1}}
	require.NoError(t, WriteSamples("ticks", dir, in))

	out, err := ReadSamples(filepath.Join(dir, "ticks.csv"))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].V)
	assert.Equal(t, int64(2), out[1].V)
	assert.Equal(t, now.UnixNano(), out[0].Ts.UnixNano())
}

func TestDiscoverMetrics(t *testing.T) {
	dir, err := ioutil.TempDir("", "metrics")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(dir) }()

	sub := filepath.Join(dir, "a")
	require.NoError(t, os.MkdirAll(sub, os.ModePerm))
	require.NoError(t, WriteMetricsId("sync0", sub, map[string]string{"rate": "8000"}))

	found, err := DiscoverMetrics(dir)
	require.NoError(t, err)
	require.Contains(t, found, sub)
	assert.Equal(t, "sync0", found[sub].Id)
	assert.Equal(t, "8000", found[sub].Values["rate"])
}

func TestCtrlListener(t *testing.T) {
	dir, err := ioutil.TempDir("", "ctrl")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(dir) }()

	cl, err := GetCtrlListener(dir, "test")
	require.NoError(t, err)
	again, err := GetCtrlListener(dir, "test")
	require.NoError(t, err)
	assert.Equal(t, cl, again)

	called := make(chan string, 1)
	cl.AddCallback("write", func(line string) error {
		called <- line
		return nil
	})
	cl.Start()

	reply, err := SendCtrl(CtrlSocketPath(dir, "test"), "write now")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, "write now", <-called)

	reply, err = SendCtrl(CtrlSocketPath(dir, "test"), "bogus")
	require.NoError(t, err)
	assert.Equal(t, "syntax error?", reply)
}

func TestNewInstanceId(t *testing.T) {
	a := NewInstanceId()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, NewInstanceId())
}
