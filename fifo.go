package mediastreamer

import "github.com/pkg/errors"

const (
	// LargeBufferSize is the size hint above which a fifo ring is sized to the hint itself instead of a multiple of it.
	LargeBufferSize = 4092
	// FifoSizeMultiplier is the number of hint-sized blocks a ring holds when the hint is small.
	FifoSizeMultiplier = 6
)

// Fifo is a fixed-capacity circular byte buffer carrying fixed-size granules from one writer filter to one reader
// filter. Every returned slice is contiguous, even across the ring end:
//
//   [ head (saved) | ring (size) | spill (wGran) ]
//
// A read crossing the ring end copies the ring tail into the head and starts inside it. A write crossing the ring end
// runs into the spill region, which is folded back onto the ring start before the next operation. The head also keeps
// the look-behind bytes preceding a granule that starts near the ring start.
//
// There is no lock: the reader and the writer are run by the same scheduler thread. Returned slices stay valid until
// the next call on the same fifo.
//
type Fifo struct {
	buf     *Buffer
	rGran   int
	wGran   int
	rOffset int
	wOffset int
	saved   int
	size    int

	rd        int
	wr        int
	readsize  int
	writesize int

	pending         bool
	pendingStart    int
	pendingLen      int
	pendingReserved int

	lastRead    int
	readBehind  int
	readTotal   int64
	lastWrite   int
	writeBehind int
	writeTotal  int64

	prevData Filter
	nextData Filter
}

// NewFifo builds a fifo and its buffer. rGran/wGran are the largest read/write requests, rOffset/wOffset the
// look-behind windows, minFifoSize the size hint propagated along the filter chain (0 means wGran).
//
func NewFifo(rGran, wGran, rOffset, wOffset, minFifoSize int) (*Fifo, error) {
	if rGran <= 0 || wGran <= 0 {
		return nil, errors.Wrapf(ErrGranularity, "invalid granularity [r:%d, w:%d]", rGran, wGran)
	}
	if rOffset < 0 || wOffset < 0 {
		return nil, errors.Errorf("invalid offsets [r:%d, w:%d]", rOffset, wOffset)
	}
	saved := maxInt(rGran+rOffset, wOffset)
	if minFifoSize <= 0 {
		minFifoSize = wGran
	}
	size := minFifoSize
	if minFifoSize <= LargeBufferSize {
		size = FifoSizeMultiplier * minFifoSize
	}
	size = maxInt(size, rGran+wGran+rOffset)
	size = maxInt(size, saved)

	buf := NewBuffer(saved + size + wGran)
	buf.ref()
	return &Fifo{
		buf:       buf,
		rGran:     rGran,
		wGran:     wGran,
		rOffset:   rOffset,
		wOffset:   wOffset,
		saved:     saved,
		size:      size,
		writesize: size - rOffset,
	}, nil
}

// GetReadPtr returns the next n readable bytes and consumes them.
func (self *Fifo) GetReadPtr(n int) ([]byte, error) {
	if n <= 0 || n > self.rGran {
		return nil, errors.Wrapf(ErrGranularity, "read [%d], granularity [%d]", n, self.rGran)
	}
	self.flush()
	if n > self.readsize {
		return nil, ErrNoData
	}

	var start int
	if self.rd+n <= self.size {
		start = self.saved + self.rd
		self.rd += n
		if self.rd == self.size {
			self.copyTail()
			self.rd = 0
		}
	} else {
		unread := self.size - self.rd
		self.copyTail()
		start = self.saved - unread
		self.rd = n - unread
	}

	self.lastRead = start
	self.readBehind = int(minInt64(int64(self.rOffset), self.readTotal))
	self.readTotal += int64(n)
	self.readsize -= n
	self.writesize += n
	return self.buf.data[start : start+n], nil
}

// GetWritePtr reserves the next n writable bytes. The reservation counts as written unless corrected with
// UpdateWritePtr before the next call.
//
func (self *Fifo) GetWritePtr(n int) ([]byte, error) {
	if n <= 0 || n > self.wGran {
		return nil, errors.Wrapf(ErrGranularity, "write [%d], granularity [%d]", n, self.wGran)
	}
	self.flush()
	if n > self.writesize {
		return nil, ErrNoSpace
	}

	start := self.saved + self.wr
	self.pending = true
	self.pendingStart = self.wr
	self.pendingLen = n
	self.pendingReserved = n

	self.lastWrite = start
	self.writeBehind = int(minInt64(int64(self.wOffset), self.writeTotal))
	self.writeTotal += int64(n)
	self.readsize += n
	self.writesize -= n
	return self.buf.data[start : start+n], nil
}

// UpdateWritePtr corrects the last reservation when fewer than the reserved bytes were produced.
func (self *Fifo) UpdateWritePtr(written int) error {
	if !self.pending {
		return ErrNoPendingWrite
	}
	if written < 0 || written > self.pendingReserved {
		return errors.Wrapf(ErrGranularity, "written [%d], reserved [%d]", written, self.pendingReserved)
	}
	unwritten := self.pendingLen - written
	self.readsize -= unwritten
	self.writesize += unwritten
	self.writeTotal -= int64(unwritten)
	self.pendingLen = written
	return nil
}

// ReadLookBehind returns the bytes preceding the last read granule, at most the read offset and never more than was
// actually transported.
//
func (self *Fifo) ReadLookBehind() []byte {
	return self.buf.data[self.lastRead-self.readBehind : self.lastRead]
}

// WriteLookBehind returns the bytes preceding the last write granule, at most the write offset.
func (self *Fifo) WriteLookBehind() []byte {
	return self.buf.data[self.lastWrite-self.writeBehind : self.lastWrite]
}

func (self *Fifo) ReadSize() int {
	return self.readsize
}

func (self *Fifo) WriteSize() int {
	return self.writesize
}

// Capacity is the number of bytes readsize and writesize always add up to.
func (self *Fifo) Capacity() int {
	return self.size - self.rOffset
}

func (self *Fifo) ReadGranularity() int {
	return self.rGran
}

func (self *Fifo) WriteGranularity() int {
	return self.wGran
}

func (self *Fifo) Buffer() *Buffer {
	return self.buf
}

// Prev is the writing filter, Next the reading one. Neither owns the fifo.
func (self *Fifo) Prev() Filter {
	return self.prevData
}

func (self *Fifo) Next() Filter {
	return self.nextData
}

func (self *Fifo) Destroy() {
	if self.buf != nil {
		self.buf.unref()
		self.buf = nil
	}
	self.prevData = nil
	self.nextData = nil
}

func (self *Fifo) flush() {
	if !self.pending {
		return
	}
	self.pending = false
	end := self.pendingStart + self.pendingLen
	if end > self.size {
		copy(self.buf.data[self.saved:self.saved+end-self.size], self.buf.data[self.saved+self.size:self.saved+end])
	}
	if end >= self.size {
		self.copyTail()
		self.wr = end - self.size
	} else {
		self.wr = end
	}
}

func (self *Fifo) copyTail() {
	copy(self.buf.data[0:self.saved], self.buf.data[self.size:self.size+self.saved])
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
