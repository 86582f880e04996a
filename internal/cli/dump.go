package cli

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/PenroseTiles/amplification/eventfile"
	"github.com/PenroseTiles/amplification/internal/config"
	"github.com/PenroseTiles/amplification/metricslog"
	"github.com/PenroseTiles/amplification/plotting"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <log-path>",
	Short: "Print the scalars in an event log.",
	Long: `The dump command prints every scalar in the event files of an event log.
The argument is either the --log-path given to the log command, or the events directory itself.
With --summary, one line of statistics is printed per scalar instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.EventDir(args[0], metricslog.EventsDir)
		if err != nil {
			return err
		}
		if viper.GetBool("summary") {
			return dumpSummary(cmd.OutOrStdout(), dir)
		}
		return dumpEvents(cmd.OutOrStdout(), dir)
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)

	dumpCmd.Flags().Bool("summary", false, "print statistics for each scalar")

	err := viper.BindPFlags(dumpCmd.Flags())
	if err != nil {
		panic(err)
	}
}

func dumpEvents(out io.Writer, dir string) error {
	events, err := eventfile.ReadDir(dir)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "wall_time\tstep\ttag\tvalue")
	for _, ev := range events {
		wallTime := ev.Time().UTC().Format("2006-01-02T15:04:05.000Z")
		if ev.FileVersion != "" {
			fmt.Fprintf(tw, "%s\t\tfile_version\t%s\n", wallTime, ev.FileVersion)
			continue
		}
		for _, s := range ev.Scalars {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", wallTime, ev.Step, s.Tag, metricslog.Float(float64(s.Value)))
		}
	}
	return tw.Flush()
}

func dumpSummary(out io.Writer, dir string) error {
	series, err := plotting.Load(dir)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "tag\tcount\tmean\tstddev\tmin\tmax\tlast_step\tlast")
	for _, s := range series.Summarize() {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			s.Tag, s.Count,
			metricslog.Float(s.Mean),
			metricslog.Float(math.Sqrt(s.Variance)),
			metricslog.Float(s.Min),
			metricslog.Float(s.Max),
			s.Last.Step,
			metricslog.Float(s.Last.Value),
		)
	}
	return tw.Flush()
}
