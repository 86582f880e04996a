// Package profiling starts and stops the Go profilers for a command.
package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/felixge/fgprof"
	"go.uber.org/multierr"
)

// Profiles holds the output paths of the profiles to record. Empty paths are disabled.
type Profiles struct {
	CPU    string
	Mem    string
	Trace  string
	FgProf string
}

// Start starts the requested profilers. The returned function stops them and writes
// the memory profile; it must be called before the program exits.
func Start(p Profiles) (stop func() error, err error) {
	var (
		cpuProfile    *os.File
		traceFile     *os.File
		fgprofProfile *os.File
		fgprofStop    func() error
	)

	// stops whatever was started if a later profiler fails to start.
	cleanup := func() {
		if cpuProfile != nil {
			pprof.StopCPUProfile()
			cpuProfile.Close()
		}
		if fgprofProfile != nil {
			_ = fgprofStop()
			fgprofProfile.Close()
		}
	}

	if p.CPU != "" {
		cpuProfile, err = os.Create(p.CPU)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(cpuProfile); err != nil {
			cpuProfile.Close()
			return nil, fmt.Errorf("failed to start cpu profile: %w", err)
		}
	}

	if p.FgProf != "" {
		fgprofProfile, err = os.Create(p.FgProf)
		if err != nil {
			cleanup()
			return nil, err
		}
		fgprofStop = fgprof.Start(fgprofProfile, fgprof.FormatPprof)
	}

	if p.Trace != "" {
		traceFile, err = os.Create(p.Trace)
		if err != nil {
			cleanup()
			return nil, err
		}
		if err := trace.Start(traceFile); err != nil {
			cleanup()
			traceFile.Close()
			return nil, fmt.Errorf("failed to start trace: %w", err)
		}
	}

	return func() (err error) {
		if p.Mem != "" {
			err = multierr.Append(err, writeHeapProfile(p.Mem))
		}

		if cpuProfile != nil {
			pprof.StopCPUProfile()
			err = multierr.Append(err, cpuProfile.Close())
		}

		if fgprofProfile != nil {
			err = multierr.Append(err, fgprofStop())
			err = multierr.Append(err, fgprofProfile.Close())
		}

		if traceFile != nil {
			trace.Stop()
			err = multierr.Append(err, traceFile.Close())
		}
		return err
	}, nil
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	runtime.GC() // get up-to-date statistics
	if err := pprof.WriteHeapProfile(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
