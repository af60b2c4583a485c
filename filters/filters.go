// Package filters holds the stock filters a graph description can name: a counting source, a null sink, fifo
// regranulation, framing between fifos and queues, fan-out, file I/O and RTP encapsulation.
//
package filters

import (
	"github.com/openziti/mediastreamer/cf"
	"github.com/pkg/errors"
)

// Granule is the block every stock filter reads or writes on a fifo: 80 16-bit samples, 10ms at 8kHz.
const Granule = 160

func bind(params map[string]interface{}, config interface{}) error {
	if params == nil {
		return nil
	}
	if err := cf.Load(params, config); err != nil {
		return errors.Wrap(err, "invalid parameters")
	}
	return nil
}
