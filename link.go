package mediastreamer

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type LinkKind int

const (
	LinkFifo LinkKind = iota
	LinkQueue
)

func (self LinkKind) String() string {
	if self == LinkQueue {
		return "queue"
	}
	return "fifo"
}

// Link connects output pin1 of m1 to input pin2 of m2 with a new fifo or queue.
//
// A fifo's size hint flows down the chain: a source seeds it with its write granularity, every other filter scales
// the hint it received by its own write/read granularity ratio before handing it on.
//
func Link(m1 Filter, pin1 int, m2 Filter, pin2 int, kind LinkKind) error {
	b1 := m1.base()
	b2 := m2.base()
	c1 := b1.class
	c2 := b2.class

	switch kind {
	case LinkQueue:
		if pin1 < 0 || pin1 >= c1.MaxQOutputs {
			return errors.Wrapf(ErrPortIndex, "[%s] queue output [%d]", m1.Name(), pin1)
		}
		if pin2 < 0 || pin2 >= c2.MaxQInputs {
			return errors.Wrapf(ErrPortIndex, "[%s] queue input [%d]", m2.Name(), pin2)
		}
		if b1.outqueues[pin1] != nil {
			return errors.Wrapf(ErrPortBusy, "[%s] queue output [%d]", m1.Name(), pin1)
		}
		if b2.inqueues[pin2] != nil {
			return errors.Wrapf(ErrPortBusy, "[%s] queue input [%d]", m2.Name(), pin2)
		}
		if b1.qoutputs >= c1.MaxQOutputs {
			return errors.Wrapf(ErrNoFreePort, "[%s] queue outputs", m1.Name())
		}
		if b2.qinputs >= c2.MaxQInputs {
			return errors.Wrapf(ErrNoFreePort, "[%s] queue inputs", m2.Name())
		}
		q := NewQueue()
		q.prevData = m1
		q.nextData = m2
		b1.outqueues[pin1] = q
		b2.inqueues[pin2] = q
		b1.qoutputs++
		b2.qinputs++

	case LinkFifo:
		if pin1 < 0 || pin1 >= c1.MaxFOutputs {
			return errors.Wrapf(ErrPortIndex, "[%s] fifo output [%d]", m1.Name(), pin1)
		}
		if pin2 < 0 || pin2 >= c2.MaxFInputs {
			return errors.Wrapf(ErrPortIndex, "[%s] fifo input [%d]", m2.Name(), pin2)
		}
		if b1.outfifos[pin1] != nil {
			return errors.Wrapf(ErrPortBusy, "[%s] fifo output [%d]", m1.Name(), pin1)
		}
		if b2.infifos[pin2] != nil {
			return errors.Wrapf(ErrPortBusy, "[%s] fifo input [%d]", m2.Name(), pin2)
		}
		if b1.foutputs >= c1.MaxFOutputs {
			return errors.Wrapf(ErrNoFreePort, "[%s] fifo outputs", m1.Name())
		}
		if b2.finputs >= c2.MaxFInputs {
			return errors.Wrapf(ErrNoFreePort, "[%s] fifo inputs", m2.Name())
		}

		nextSize := c1.WGranularity
		if !c1.Is(IsSource) {
			nextSize = b1.minFifoSize
			if c1.RGranularity > 0 {
				nextSize = (b1.minFifoSize * c1.WGranularity) / c1.RGranularity
			}
		}
		fifo, err := NewFifo(c2.RGranularity, c1.WGranularity, c2.ROffset, c1.WOffset, nextSize)
		if err != nil {
			return errors.Wrapf(err, "error creating fifo [%s] -> [%s]", m1.Name(), m2.Name())
		}
		b2.minFifoSize = nextSize
		fifo.prevData = m1
		fifo.nextData = m2
		b1.outfifos[pin1] = fifo
		b2.infifos[pin2] = fifo
		b1.foutputs++
		b2.finputs++

	default:
		return errors.Errorf("unknown link kind [%d]", kind)
	}

	logrus.Debugf("linked [%s:%d] -> [%s:%d] (%s)", m1.Name(), pin1, m2.Name(), pin2, kind)
	return nil
}

// Unlink tears down the connection between output pin1 of m1 and input pin2 of m2.
func Unlink(m1 Filter, pin1 int, m2 Filter, pin2 int, kind LinkKind) error {
	b1 := m1.base()
	b2 := m2.base()

	switch kind {
	case LinkQueue:
		if pin1 < 0 || pin1 >= len(b1.outqueues) || pin2 < 0 || pin2 >= len(b2.inqueues) {
			return errors.Wrapf(ErrPortIndex, "[%s:%d] -> [%s:%d]", m1.Name(), pin1, m2.Name(), pin2)
		}
		q := b1.outqueues[pin1]
		if q == nil || q != b2.inqueues[pin2] {
			return errors.Wrapf(ErrNotLinked, "[%s:%d] -> [%s:%d]", m1.Name(), pin1, m2.Name(), pin2)
		}
		b1.outqueues[pin1] = nil
		b2.inqueues[pin2] = nil
		b1.qoutputs--
		b2.qinputs--
		q.Destroy()

	case LinkFifo:
		if pin1 < 0 || pin1 >= len(b1.outfifos) || pin2 < 0 || pin2 >= len(b2.infifos) {
			return errors.Wrapf(ErrPortIndex, "[%s:%d] -> [%s:%d]", m1.Name(), pin1, m2.Name(), pin2)
		}
		fifo := b1.outfifos[pin1]
		if fifo == nil || fifo != b2.infifos[pin2] {
			return errors.Wrapf(ErrNotLinked, "[%s:%d] -> [%s:%d]", m1.Name(), pin1, m2.Name(), pin2)
		}
		b1.outfifos[pin1] = nil
		b2.infifos[pin2] = nil
		b1.foutputs--
		b2.finputs--
		fifo.Destroy()

	default:
		return errors.Errorf("unknown link kind [%d]", kind)
	}

	logrus.Debugf("unlinked [%s:%d] -> [%s:%d] (%s)", m1.Name(), pin1, m2.Name(), pin2, kind)
	return nil
}

// AddLink connects m1 to m2 on their first free ports, preferring queues over fifos.
func AddLink(m1, m2 Filter) error {
	b1 := m1.base()
	b2 := m2.base()
	if q1, q2 := freeQueue(b1.outqueues), freeQueue(b2.inqueues); q1 != -1 && q2 != -1 {
		return Link(m1, q1, m2, q2, LinkQueue)
	}
	if f1, f2 := freeFifo(b1.outfifos), freeFifo(b2.infifos); f1 != -1 && f2 != -1 {
		return Link(m1, f1, m2, f2, LinkFifo)
	}
	return errors.Wrapf(ErrNoFreePort, "could not link [%s] -> [%s]", m1.Name(), m2.Name())
}

// RemoveLinks tears down every connection from m1 to m2.
func RemoveLinks(m1, m2 Filter) error {
	b1 := m1.base()
	b2 := m2.base()
	removed := 0
	for i, fifo := range b1.outfifos {
		if fifo != nil && fifo.nextData == m2 {
			for j, in := range b2.infifos {
				if in == fifo {
					if err := Unlink(m1, i, m2, j, LinkFifo); err != nil {
						return err
					}
					removed++
					break
				}
			}
		}
	}
	for i, q := range b1.outqueues {
		if q != nil && q.nextData == m2 {
			for j, in := range b2.inqueues {
				if in == q {
					if err := Unlink(m1, i, m2, j, LinkQueue); err != nil {
						return err
					}
					removed++
					break
				}
			}
		}
	}
	if removed == 0 {
		return errors.Wrapf(ErrNotLinked, "[%s] -> [%s]", m1.Name(), m2.Name())
	}
	return nil
}

// Downstream lists the distinct filters fed by f through any connected output.
func Downstream(f Filter) []Filter {
	b := f.base()
	var out []Filter
	seen := make(map[Filter]bool)
	for _, fifo := range b.outfifos {
		if fifo != nil && fifo.nextData != nil && !seen[fifo.nextData] {
			seen[fifo.nextData] = true
			out = append(out, fifo.nextData)
		}
	}
	for _, q := range b.outqueues {
		if q != nil && q.nextData != nil && !seen[q.nextData] {
			seen[q.nextData] = true
			out = append(out, q.nextData)
		}
	}
	return out
}

// Upstream lists the distinct filters feeding f.
func Upstream(f Filter) []Filter {
	b := f.base()
	var in []Filter
	seen := make(map[Filter]bool)
	for _, fifo := range b.infifos {
		if fifo != nil && fifo.prevData != nil && !seen[fifo.prevData] {
			seen[fifo.prevData] = true
			in = append(in, fifo.prevData)
		}
	}
	for _, q := range b.inqueues {
		if q != nil && q.prevData != nil && !seen[q.prevData] {
			seen[q.prevData] = true
			in = append(in, q.prevData)
		}
	}
	return in
}

func freeQueue(qs []*Queue) int {
	for i, q := range qs {
		if q == nil {
			return i
		}
	}
	return -1
}

func freeFifo(fs []*Fifo) int {
	for i, f := range fs {
		if f == nil {
			return i
		}
	}
	return -1
}
