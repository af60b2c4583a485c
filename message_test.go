package mediastreamer

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestMessageDupKeepsBuffer(t *testing.T) {
	m := NewMessage(16)
	buf := m.Buffer()
	assert.Equal(t, int32(1), buf.Refs())

	d := m.Dup()
	assert.Equal(t, int32(2), buf.Refs())
	assert.Equal(t, m.Data, d.Data)

	m.Destroy()
	assert.False(t, buf.Released())
	assert.Equal(t, int32(1), buf.Refs())

	m.Destroy()
	assert.Equal(t, int32(1), buf.Refs())

	d.Destroy()
	assert.True(t, buf.Released())
}

func TestExternalBufferFreedOnce(t *testing.T) {
	frees := 0
	buf := NewBufferWithExternal(make([]byte, 32), func() { frees++ })

	a := &Message{}
	a.SetBuffer(buf)
	b := a.Dup()
	c := b.Dup()
	a.Destroy()
	b.Destroy()
	assert.Equal(t, 0, frees)
	c.Destroy()
	c.Destroy()
	assert.Equal(t, 1, frees)
	assert.True(t, buf.Released())
}

func TestMessageSetBufferSwaps(t *testing.T) {
	m := NewMessage(4)
	first := m.Buffer()
	second := NewBuffer(8)
	m.SetBuffer(second)
	assert.True(t, first.Released())
	assert.Equal(t, 8, m.Size())
	m.UnsetBuffer()
	assert.Nil(t, m.Data)
	assert.True(t, second.Released())
}

type countingInstrumentInstance struct {
	NilInstrumentInstance
	allocations int
}

func (self *countingInstrumentInstance) Allocate(string) {
	self.allocations++
}

func TestPoolRecycles(t *testing.T) {
	ii := &countingInstrumentInstance{}
	p := NewPool("test", 64, ii)
	assert.Equal(t, 64, p.BufferSize())

	m := p.NewMessage()
	assert.Equal(t, 64, m.Size())
	buf := m.Buffer()
	m.Destroy()
	assert.True(t, buf.Released())

	again := p.Get()
	assert.False(t, again.Released())
	assert.Equal(t, int32(0), again.Refs())
	assert.True(t, ii.allocations >= 1)
}
