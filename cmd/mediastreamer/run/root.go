package run

import (
	ms "github.com/openziti/mediastreamer"
	"github.com/openziti/mediastreamer/cmd/mediastreamer/mediastreamer"
	"github.com/openziti/mediastreamer/graph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func init() {
	runCmd.Flags().DurationVarP(&duration, "duration", "t", 0, "Stop after duration (0 runs until end of input or interrupt)")
	runCmd.Flags().BoolVarP(&dump, "dump", "d", false, "Dump the processed profile")
	mediastreamer.RootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run <graph.yaml>",
	Short: "Build and run a filter graph",
	Args:  cobra.ExactArgs(1),
	Run:   run,
}
var duration time.Duration
var dump bool

func run(_ *cobra.Command, args []string) {
	d, err := graph.Load(args[0])
	if err != nil {
		logrus.Fatalf("error loading graph (%v)", err)
	}
	g, err := graph.Build(d)
	if err != nil {
		logrus.Fatalf("error building graph (%v)", err)
	}
	if dump {
		logrus.Infof(g.Profile.Dump())
	}
	if err := g.Start(); err != nil {
		logrus.Fatalf("error starting graph (%v)", err)
	}
	logrus.Infof("running [%s] with filters %v", g.Name, g.Filters())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	var timeout <-chan time.Time
	if duration > 0 {
		timeout = time.After(duration)
	}

	wait(g, sigs, timeout)

	ticks := g.Sync.Ticks()
	if err := g.Teardown(); err != nil {
		logrus.Fatalf("error tearing down graph (%v)", err)
	}
	logrus.Infof("finished [%s] after [%d] ticks", g.Name, ticks)
}

func wait(g *graph.Graph, sigs chan os.Signal, timeout <-chan time.Time) {
	for {
		select {
		case n := <-g.Events():
			switch n.Event {
			case ms.EventEOF:
				logrus.Infof("[%s] reached end of input", n.Filter)
				return
			case ms.EventError:
				logrus.Errorf("[%s] failed (%v)", n.Filter, n.Arg)
				return
			default:
				logrus.Infof("[%s] raised event [%d] (%v)", n.Filter, n.Event, n.Arg)
			}
		case sig := <-sigs:
			logrus.Infof("received [%s]", sig)
			return
		case <-timeout:
			return
		}
	}
}
