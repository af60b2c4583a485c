package influx

import (
	"fmt"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/openziti/mediastreamer/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"io/ioutil"
	"path/filepath"
	"strings"
)

func init() {
	influxCmd.AddCommand(influxLoadCmd)
}

var influxLoadCmd = &cobra.Command{
	Use:   "load <metricsRoot>",
	Short: "Load sync metrics written by the metrics instrument",
	Args:  cobra.ExactArgs(1),
	Run:   influxLoad,
}

func influxLoad(_ *cobra.Command, args []string) {
	syncs, err := util.DiscoverMetrics(args[0])
	if err != nil {
		logrus.Fatalf("error discovering metrics (%v)", err)
	}
	if len(syncs) < 1 {
		logrus.Warnf("no metrics found in [%s]", args[0])
		return
	}

	authToken := ""
	if influxDbUsername != "" || influxDbPassword != "" {
		authToken = fmt.Sprintf("%s:%s", influxDbUsername, influxDbPassword)
	}
	client := influxdb2.NewClient(influxDbUrl, authToken)
	defer client.Close()
	writeApi := client.WriteAPI("", influxDbDatabase)

	for path, id := range syncs {
		datasets, err := discoverDatasets(path)
		if err != nil {
			logrus.Fatalf("error listing [%s] (%v)", path, err)
		}
		for _, dataset := range datasets {
			samples, err := util.ReadSamples(filepath.Join(path, dataset+".csv"))
			if err != nil {
				logrus.Fatalf("error reading dataset [%s] (%v)", dataset, err)
			}
			for _, sample := range samples {
				p := influxdb2.NewPoint(dataset, tags(id), map[string]interface{}{"v": sample.V}, sample.Ts)
				writeApi.WritePoint(p)
			}
			logrus.Infof("wrote [%d] points for sync [%s] dataset [%s]", len(samples), id.Id, dataset)
		}
	}
	writeApi.Flush()
}

func tags(id *util.MetricsId) map[string]string {
	tags := map[string]string{"sync": id.Id}
	for k, v := range id.Values {
		tags[k] = v
	}
	return tags
}

// discoverDatasets lists the sample files of one metrics directory, without their extension.
func discoverDatasets(path string) ([]string, error) {
	fis, err := ioutil.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var datasets []string
	for _, fi := range fis {
		if !fi.IsDir() && filepath.Ext(fi.Name()) == ".csv" {
			datasets = append(datasets, strings.TrimSuffix(fi.Name(), ".csv"))
		}
	}
	return datasets, nil
}
