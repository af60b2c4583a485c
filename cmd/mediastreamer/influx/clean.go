package influx

import (
	"github.com/openziti/mediastreamer/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"os"
)

func init() {
	influxCmd.AddCommand(influxCleanCmd)
}

var influxCleanCmd = &cobra.Command{
	Use:   "clean <metricsRoot>",
	Short: "Remove metrics directories below metricsRoot",
	Args:  cobra.ExactArgs(1),
	Run:   influxClean,
}

func influxClean(_ *cobra.Command, args []string) {
	syncs, err := util.DiscoverMetrics(args[0])
	if err != nil {
		logrus.Fatalf("error discovering metrics (%v)", err)
	}
	for path, id := range syncs {
		if err := os.RemoveAll(path); err != nil {
			logrus.Errorf("error removing [%s] (%v)", path, err)
			continue
		}
		logrus.Infof("removed [%s] for sync [%s]", path, id.Id)
	}
}
