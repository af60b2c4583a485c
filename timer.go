package mediastreamer

import (
	"github.com/sirupsen/logrus"
	"time"
)

// Clock paces a Sync to real time. All methods are called from the sync's worker goroutine, except Close.
//
type Clock interface {
	// Reset makes now the origin of the tick schedule.
	Reset()
	// Synchronize blocks until the next tick is due and returns how late it already was.
	Synchronize(samplesPerTick int) time.Duration
	Close()
}

// Timer is the wall-clock Clock. Tick k is due at the sum of the intervals of the k ticks before it, each interval
// being samplesPerTick/rate seconds. A late timer does not skip ticks; it runs them back to back until caught up.
//
type Timer struct {
	rate   int
	warn   time.Duration
	origin time.Time
	due    time.Duration
}

func NewTimer(profile *Profile) *Timer {
	return &Timer{
		rate: profile.Rate,
		warn: time.Duration(profile.CatchupWarnMs) * time.Millisecond,
	}
}

func (self *Timer) Reset() {
	self.origin = time.Now()
	self.due = 0
}

func (self *Timer) Synchronize(samplesPerTick int) time.Duration {
	var behind time.Duration
	elapsed := time.Since(self.origin)
	if elapsed < self.due {
		time.Sleep(self.due - elapsed)
	} else {
		behind = elapsed - self.due
		if behind > self.warn {
			logrus.Warnf("we must catchup %d milliseconds", behind.Milliseconds())
		}
	}
	self.due += self.Interval(samplesPerTick)
	return behind
}

// Interval is the wall-clock length of a tick of samplesPerTick samples.
func (self *Timer) Interval(samplesPerTick int) time.Duration {
	return time.Duration(int64(samplesPerTick) * int64(time.Second) / int64(self.rate))
}

func (self *Timer) Close() {}

// NewTimerSync returns a Sync paced by a Timer built from profile.
func NewTimerSync(name string, profile *Profile, instrument Instrument) *Sync {
	if profile == nil {
		profile = NewBaselineProfile()
	}
	return NewSync(name, NewTimer(profile), profile, instrument)
}
