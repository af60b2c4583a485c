package ctrl

import (
	"fmt"
	"github.com/openziti/mediastreamer/cmd/mediastreamer/mediastreamer"
	"github.com/openziti/mediastreamer/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"strings"
)

func init() {
	mediastreamer.RootCmd.AddCommand(ctrlCmd)
}

var ctrlCmd = &cobra.Command{
	Use:   "ctrl <socketPath> <command...>",
	Short: "Send a command (start, stop, write, clean) to a running metrics instrument",
	Args:  cobra.MinimumNArgs(2),
	Run:   ctrl,
}

func ctrl(_ *cobra.Command, args []string) {
	reply, err := util.SendCtrl(args[0], strings.Join(args[1:], " "))
	if err != nil {
		logrus.Fatalf("error sending command (%v)", err)
	}
	fmt.Println(reply)
}
