package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/PenroseTiles/amplification/internal/config"
	"github.com/PenroseTiles/amplification/internal/profiling"
	"github.com/PenroseTiles/amplification/logging"
	"github.com/PenroseTiles/amplification/metricslog"
	"github.com/PenroseTiles/amplification/promexport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"
)

// logCmd represents the log command
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Log records of metric values.",
	Long: `The log command reads JSON objects, one record per object, from the input file or stdin.
Every record is printed as a table. If --log-path is given, the numeric values are also
written as scalar summaries to an event log in <log-path>/events, which can be opened
with TensorBoard. String values are printed, but not written to the event log.

By default all fields of a record are logged, and records are numbered 1, 2, 3, ...
Use --fields to select fields, and --step-field to take the step from a field of the record.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.NewLogConfig(viper.GetViper())
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
		defer cancel()
		return runLog(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(logCmd)

	logCmd.Flags().StringSlice("fields", nil, "fields to log, in order (default all fields)")
	logCmd.Flags().String("log-path", "", "directory to write the event log to (disabled by default)")
	logCmd.Flags().String("step-field", "", "field holding the step (default: count records)")
	logCmd.Flags().String("input", "", "file to read records from (default stdin)")
	logCmd.Flags().String("json-output", "", "file to write events to as JSON (disabled by default)")
	logCmd.Flags().String("metrics-addr", "", "address to serve Prometheus metrics on (disabled by default)")
	logCmd.Flags().Float64("rate-limit", math.Inf(1), "maximum number of records logged per second")

	logCmd.Flags().String("cpu-profile", "", "write a cpu profile to the given file")
	logCmd.Flags().String("mem-profile", "", "write a memory profile to the given file")
	logCmd.Flags().String("trace", "", "write an execution trace to the given file")
	logCmd.Flags().String("fgprof-profile", "", "write an fgprof profile to the given file")

	err := viper.BindPFlags(logCmd.Flags())
	if err != nil {
		panic(err)
	}
}

func runLog(ctx context.Context, cfg *config.LogConfig, stdin io.Reader, stdout io.Writer) (err error) {
	log := logging.New("cli")

	stopProfilers, err := profiling.Start(cfg.Profiles)
	if err != nil {
		return fmt.Errorf("failed to start profilers: %w", err)
	}
	defer func() {
		err = multierr.Append(err, stopProfilers())
	}()

	in := stdin
	if cfg.Input != "" && cfg.Input != "-" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var sinks []metricslog.Sink
	if cfg.JSONOutput != "" {
		f, err := os.Create(cfg.JSONOutput)
		if err != nil {
			return err
		}
		sink, err := metricslog.NewJSONSink(f)
		if err != nil {
			f.Close()
			return err
		}
		sinks = append(sinks, sink)
	}
	if cfg.MetricsAddr != "" {
		exporter := promexport.New("amplification")
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: exporter.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("metrics server failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err = multierr.Append(err, srv.Shutdown(shutdownCtx))
		}()
		log.Infof("Serving metrics on %s", cfg.MetricsAddr)
		sinks = append(sinks, exporter)
	}

	logger, err := metricslog.New(metricslog.Options{
		Fields:    cfg.Fields,
		Dir:       cfg.LogPath,
		StepField: cfg.StepField,
		Output:    stdout,
		Sinks:     sinks,
		Logger:    log,
	})
	if err != nil {
		for _, s := range sinks {
			err = multierr.Append(err, s.Close())
		}
		return err
	}
	defer func() {
		err = multierr.Append(err, logger.Close())
	}()

	limit := rate.Inf
	if !math.IsInf(cfg.RateLimit, 1) {
		limit = rate.Limit(cfg.RateLimit)
	}
	limiter := rate.NewLimiter(limit, 1)

	return logRecords(ctx, logger, limiter, in)
}

type decoded struct {
	record map[string]any
	err    error
}

// decodeRecords sends every JSON object read from in on the returned channel, and closes
// it after the first error, which is io.EOF at the end of the input. Numbers are kept as
// json.Number, so that integers are printed as integers.
func decodeRecords(ctx context.Context, in io.Reader) <-chan decoded {
	c := make(chan decoded)
	go func() {
		defer close(c)
		dec := json.NewDecoder(in)
		dec.UseNumber()
		for {
			var d decoded
			d.err = dec.Decode(&d.record)
			select {
			case c <- d:
			case <-ctx.Done():
				return
			}
			if d.err != nil {
				return
			}
		}
	}()
	return c
}

// logRecords logs every JSON object read from in. It returns when the input ends, or as soon
// as ctx is cancelled, even while waiting for input.
func logRecords(ctx context.Context, logger *metricslog.Logger, limiter *rate.Limiter, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	records := decodeRecords(ctx, in)
	for n := 1; ; n++ {
		var d decoded
		select {
		case d = <-records:
		case <-ctx.Done():
			return ctx.Err()
		}
		if errors.Is(d.err, io.EOF) {
			return nil
		}
		if d.err != nil {
			return fmt.Errorf("record %d: failed to decode: %w", n, d.err)
		}
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := logger.Log(d.record); err != nil {
			return fmt.Errorf("record %d: %w", n, err)
		}
	}
}
