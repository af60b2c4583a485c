package mediastreamer

import (
	"github.com/openziti/mediastreamer/cf"
	"github.com/pkg/errors"
)

// Profile carries the tunables of a sync and the graph it drives.
//
type Profile struct {
	Rate           int `cf:"rate"`
	BytesPerSample int `cf:"bytes_per_sample"`
	SyncMaxFilters int `cf:"sync_max_filters"`
	QueueMaxLen    int `cf:"queue_max_len"`
	CatchupWarnMs  int `cf:"catchup_warn_ms"`
	PoolBufferSz   int `cf:"pool_buffer_sz"`
}

func NewBaselineProfile() *Profile {
	return &Profile{
		Rate:           8000,
		BytesPerSample: 2,
		SyncMaxFilters: 10,
		QueueMaxLen:    DefaultQueueMaxLen,
		CatchupWarnMs:  50,
		PoolBufferSz:   2048,
	}
}

// Load overlays the values found in data onto the profile and validates the result.
func (self *Profile) Load(data map[string]interface{}) error {
	if err := cf.Load(data, self); err != nil {
		return errors.Wrap(err, "error loading profile")
	}
	return self.Validate()
}

func (self *Profile) Validate() error {
	if self.Rate <= 0 {
		return errors.Errorf("invalid rate [%d]", self.Rate)
	}
	if self.BytesPerSample <= 0 {
		return errors.Errorf("invalid bytes_per_sample [%d]", self.BytesPerSample)
	}
	if self.SyncMaxFilters <= 0 {
		return errors.Errorf("invalid sync_max_filters [%d]", self.SyncMaxFilters)
	}
	if self.QueueMaxLen < 0 {
		return errors.Errorf("invalid queue_max_len [%d]", self.QueueMaxLen)
	}
	return nil
}

func (self *Profile) Dump() string {
	return cf.Dump("profile", self)
}
