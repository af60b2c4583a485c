package mediastreamer

import (
	"github.com/openziti/mediastreamer/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	"os"
	"testing"
	"time"
)

func TestNewInstrument(t *testing.T) {
	i, err := NewInstrument("nil", nil)
	require.NoError(t, err)
	assert.NotNil(t, i.NewInstance("x"))

	i, err = NewInstrument("trace", map[string]interface{}{"ticks": true})
	require.NoError(t, err)
	ii := i.NewInstance("x")
	ii.Ticked(3)
	ii.Shutdown()

	_, err = NewInstrument("trace", map[string]interface{}{"nope": true})
	assert.Error(t, err)

	_, err = NewInstrument("bogus", nil)
	assert.Error(t, err)
}

func TestMetricsInstrumentWritesSamples(t *testing.T) {
	dir, err := ioutil.TempDir("", "metrics")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(dir) }()

	i, err := NewMetricsInstrument(map[string]interface{}{"path": dir, "snapshot_ms": 10})
	require.NoError(t, err)
	ii := i.NewInstance("sync0")
	ii.Ticked(4)
	ii.Ticked(2)
	ii.Stalled(nil)
	ii.Compiled(3, 2)
	ii.Shutdown()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, i.(*MetricsInstrument).WriteAllSamples())
	found, err := util.DiscoverMetrics(dir)
	require.NoError(t, err)
	require.Len(t, found, 1)
	for path, id := range found {
		assert.Equal(t, "sync0", id.Id)
		ticks, err := util.ReadSamples(path + "/ticks.csv")
		require.NoError(t, err)
		total := int64(0)
		for _, s := range ticks {
			total += s.V
		}
		assert.Equal(t, int64(2), total)

		calls, err := util.ReadSamples(path + "/calls.csv")
		require.NoError(t, err)
		total = 0
		for _, s := range calls {
			total += s.V
		}
		assert.Equal(t, int64(6), total)
	}
}
