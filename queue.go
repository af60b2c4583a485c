package mediastreamer

import (
	"github.com/gammazero/deque"
	"go.uber.org/atomic"
)

// DefaultQueueMaxLen bounds a freshly linked queue. A producer outrunning its consumer loses its oldest messages
// instead of growing the queue without limit.
//
const DefaultQueueMaxLen = 1024

// Queue carries variable-sized messages, oldest first, between two filters.
//
type Queue struct {
	q        deque.Deque
	maxLen   int
	dropped  atomic.Uint64
	prevData Filter
	nextData Filter
	onDrop   func(*Queue)
}

func NewQueue() *Queue {
	return &Queue{maxLen: DefaultQueueMaxLen}
}

// SetMaxLen changes the bound; 0 removes it. Excess messages are dropped oldest first.
func (self *Queue) SetMaxLen(maxLen int) {
	self.maxLen = maxLen
	self.trim()
}

func (self *Queue) MaxLen() int {
	return self.maxLen
}

// Put appends m. When the queue is full the oldest message is destroyed and counted as dropped.
func (self *Queue) Put(m *Message) {
	self.q.PushBack(m)
	self.trim()
}

// Get removes and returns the oldest message, or nil when the queue is empty.
func (self *Queue) Get() *Message {
	if self.q.Len() == 0 {
		return nil
	}
	return self.q.PopFront().(*Message)
}

func (self *Queue) CanGet() bool {
	return self.q.Len() != 0
}

// PeekLast returns the most recently put message without removing it.
func (self *Queue) PeekLast() *Message {
	if self.q.Len() == 0 {
		return nil
	}
	return self.q.Back().(*Message)
}

func (self *Queue) Len() int {
	return self.q.Len()
}

func (self *Queue) Dropped() uint64 {
	return self.dropped.Load()
}

// Flush destroys every queued message.
func (self *Queue) Flush() {
	for self.q.Len() > 0 {
		self.q.PopFront().(*Message).Destroy()
	}
}

func (self *Queue) Prev() Filter {
	return self.prevData
}

func (self *Queue) Next() Filter {
	return self.nextData
}

func (self *Queue) Destroy() {
	self.Flush()
	self.prevData = nil
	self.nextData = nil
	self.onDrop = nil
}

func (self *Queue) trim() {
	if self.maxLen <= 0 {
		return
	}
	for self.q.Len() > self.maxLen {
		self.q.PopFront().(*Message).Destroy()
		self.dropped.Inc()
		if self.onDrop != nil {
			self.onDrop(self)
		}
	}
}
