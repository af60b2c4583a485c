package mediastreamer

// Message is a view (data + length) onto a Buffer. Several messages may view the same Buffer; the buffer lives until
// the last of them is destroyed.
//
type Message struct {
	Data      []byte
	Mark      bool
	Timestamp uint32
	buf       *Buffer
}

// NewMessage allocates a buffer of size bytes and a message viewing all of it.
func NewMessage(size int) *Message {
	m := &Message{}
	m.SetBuffer(NewBuffer(size))
	return m
}

// SetBuffer attaches the message to buf, viewing all of it. Any previously viewed buffer is released first.
func (self *Message) SetBuffer(buf *Buffer) {
	if self.buf != nil {
		self.UnsetBuffer()
	}
	buf.ref()
	self.buf = buf
	self.Data = buf.data
}

func (self *Message) UnsetBuffer() {
	if self.buf != nil {
		buf := self.buf
		self.buf = nil
		self.Data = nil
		buf.unref()
	}
}

func (self *Message) Buffer() *Buffer {
	return self.buf
}

func (self *Message) Size() int {
	return len(self.Data)
}

// Dup returns a second view of the same buffer without copying the payload.
func (self *Message) Dup() *Message {
	m := &Message{
		Data:      self.Data,
		Mark:      self.Mark,
		Timestamp: self.Timestamp,
	}
	if self.buf != nil {
		self.buf.ref()
		m.buf = self.buf
	}
	return m
}

// Destroy drops this view. Destroying an already destroyed message does nothing.
func (self *Message) Destroy() {
	self.UnsetBuffer()
}
