package mediastreamer

import (
	"go.uber.org/atomic"
	"sync"
)

// Buffer is reference-counted byte storage. Messages and fifos hold references; the buffer is released exactly once,
// when the last reference is dropped.
//
type Buffer struct {
	data     []byte
	refs     atomic.Int32
	released atomic.Bool
	free     func()
	pool     *Pool
}

func NewBuffer(size int) *Buffer {
	return &Buffer{data: make([]byte, size)}
}

// NewBufferWithExternal wraps memory owned by someone else. When the last reference is dropped, free is invoked
// instead of letting the garbage collector reclaim data.
//
func NewBufferWithExternal(data []byte, free func()) *Buffer {
	return &Buffer{data: data, free: free}
}

func (self *Buffer) Data() []byte {
	return self.data
}

func (self *Buffer) Size() int {
	return len(self.data)
}

func (self *Buffer) Refs() int32 {
	return self.refs.Load()
}

func (self *Buffer) Released() bool {
	return self.released.Load()
}

func (self *Buffer) ref() {
	self.refs.Inc()
}

func (self *Buffer) unref() {
	if self.refs.Dec() < 1 {
		self.destroy()
	}
}

func (self *Buffer) destroy() {
	if !self.released.CAS(false, true) {
		return
	}
	if self.free != nil {
		self.free()
	}
	if self.pool != nil {
		self.pool.put(self)
	}
}

// Pool recycles fixed-size buffers for filters that emit one message per granule.
//
type Pool struct {
	id    string
	bufSz int
	store *sync.Pool
	ii    InstrumentInstance
}

func NewPool(id string, bufSz int, ii InstrumentInstance) *Pool {
	p := &Pool{
		id:    id,
		bufSz: bufSz,
		store: new(sync.Pool),
		ii:    ii,
	}
	p.store.New = p.allocate
	return p
}

func (self *Pool) BufferSize() int {
	return self.bufSz
}

func (self *Pool) Get() *Buffer {
	buf := self.store.Get().(*Buffer)
	buf.released.Store(false)
	buf.refs.Store(0)
	return buf
}

// NewMessage returns a message viewing a whole pooled buffer.
func (self *Pool) NewMessage() *Message {
	m := &Message{}
	m.SetBuffer(self.Get())
	return m
}

func (self *Pool) put(buf *Buffer) {
	self.store.Put(buf)
}

func (self *Pool) allocate() interface{} {
	if self.ii != nil {
		self.ii.Allocate(self.id)
	}
	return &Buffer{data: make([]byte, self.bufSz), pool: self}
}
