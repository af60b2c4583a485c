package classes

import (
	"fmt"
	ms "github.com/openziti/mediastreamer"
	"github.com/openziti/mediastreamer/cmd/mediastreamer/mediastreamer"
	_ "github.com/openziti/mediastreamer/filters"
	"github.com/spf13/cobra"
	"os"
	"strings"
	"text/tabwriter"
)

func init() {
	mediastreamer.RootCmd.AddCommand(classesCmd)
}

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "List the registered filter classes",
	Args:  cobra.NoArgs,
	Run:   classes,
}

func classes(_ *cobra.Command, _ []string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tTYPE\tFIFO IN/OUT\tQUEUE IN/OUT\tR/W GRAN\tATTRIBUTES")
	for _, name := range ms.ClassNames() {
		c, found := ms.LookupClass(name)
		if !found {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d/%d\t%d/%d\t%s\n",
			c.Name, c.Type,
			c.MaxFInputs, c.MaxFOutputs,
			c.MaxQInputs, c.MaxQOutputs,
			c.RGranularity, c.WGranularity,
			attributes(c))
	}
	_ = w.Flush()
}

func attributes(c ms.Class) string {
	var attrs []string
	if c.Is(ms.IsSource) {
		attrs = append(attrs, "source")
	}
	if c.Is(ms.IsSink) {
		attrs = append(attrs, "sink")
	}
	if c.Is(ms.CanSync) {
		attrs = append(attrs, "sync")
	}
	return strings.Join(attrs, ",")
}
