package cli

import (
	"github.com/PenroseTiles/amplification/internal/config"
	"github.com/PenroseTiles/amplification/logging"
	"github.com/PenroseTiles/amplification/metricslog"
	"github.com/PenroseTiles/amplification/plotting"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// plotCmd represents the plot command
var plotCmd = &cobra.Command{
	Use:   "plot <log-path> <output-file>",
	Short: "Plot the scalars in an event log.",
	Long: `The plot command draws the scalars of an event log against their step and saves the plot.
The image format is chosen from the extension of the output file (png, svg, pdf, ...).`,
	Args: cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		dir, err := config.EventDir(args[0], metricslog.EventsDir)
		if err != nil {
			return err
		}
		series, err := plotting.Load(dir)
		if err != nil {
			return err
		}
		if err := series.Plot(args[1], viper.GetStringSlice("tags")...); err != nil {
			return err
		}
		logging.New("cli").Infof("Saved plot to %s", args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)

	plotCmd.Flags().StringSlice("tags", nil, "scalars to plot (default all)")

	err := viper.BindPFlags(plotCmd.Flags())
	if err != nil {
		panic(err)
	}
}
