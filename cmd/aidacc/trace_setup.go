package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"aidacc/internal/trace"
)

// traceConfig reads the --trace* persistent flags. Naming an output without
// a level traces phases.
func traceConfig(cmd *cobra.Command) (trace.Config, error) {
	flags := cmd.Root().PersistentFlags()
	var (
		cfg                 trace.Config
		level, mode, format string
		errs                [5]error
	)
	cfg.OutputPath, errs[0] = flags.GetString("trace")
	level, errs[1] = flags.GetString("trace-level")
	mode, errs[2] = flags.GetString("trace-mode")
	format, errs[3] = flags.GetString("trace-format")
	cfg.RingSize, errs[4] = flags.GetInt("trace-ring-size")
	for _, err := range errs {
		if err != nil {
			return cfg, err
		}
	}

	var err error
	if cfg.Level, err = trace.ParseLevel(level); err != nil {
		return cfg, err
	}
	if cfg.Level == trace.LevelOff && cfg.OutputPath != "" {
		cfg.Level = trace.LevelPhase
	}
	if cfg.Mode, err = trace.ParseMode(mode); err != nil {
		return cfg, err
	}
	cfg.Format, err = trace.ParseFormat(format)
	return cfg, err
}

// setupTracing attaches the configured tracer to the command context and
// returns the function that closes it.
func setupTracing(cmd *cobra.Command) (func(), error) {
	cfg, err := traceConfig(cmd)
	if err != nil {
		return nil, err
	}
	tracer, err := trace.Open(cfg)
	if err != nil {
		return nil, err
	}
	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)
	if tracer == trace.Nop {
		return func() {}, nil
	}
	return func() {
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: %v\n", err)
		}
	}, nil
}

// dumpTrace replays the in-memory trace of a failed run on stderr.
func dumpTrace(cmd *cobra.Command) {
	d, ok := trace.FromContext(cmd.Context()).(trace.Dumper)
	if !ok {
		return
	}
	fmt.Fprintln(os.Stderr, "--- trace of the failed run ---")
	if err := d.Dump(os.Stderr, trace.FormatText); err != nil {
		fmt.Fprintf(os.Stderr, "trace: %v\n", err)
	}
}
