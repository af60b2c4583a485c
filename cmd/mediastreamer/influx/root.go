package influx

import (
	"github.com/openziti/mediastreamer/cmd/mediastreamer/mediastreamer"
	"github.com/spf13/cobra"
)

func init() {
	influxCmd.PersistentFlags().StringVarP(&influxDbUrl, "url", "", "http://localhost:8086", "InfluxDB URL")
	influxCmd.PersistentFlags().StringVarP(&influxDbUsername, "username", "", "", "InfluxDB Username")
	influxCmd.PersistentFlags().StringVarP(&influxDbPassword, "password", "", "", "InfluxDB Password")
	influxCmd.PersistentFlags().StringVarP(&influxDbDatabase, "database", "", "mediastreamer", "InfluxDB Database")
	mediastreamer.RootCmd.AddCommand(influxCmd)
}

var influxCmd = &cobra.Command{
	Use:   "influx",
	Short: "Manage sync metrics in InfluxDB",
}
var influxDbUrl string
var influxDbUsername string
var influxDbPassword string
var influxDbDatabase string
