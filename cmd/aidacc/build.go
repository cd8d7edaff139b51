package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"aidacc/internal/driver"
	"aidacc/internal/project"
)

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Build an aidacc project",
	Long:  "Build an aidacc project using aidacc.toml as the definition of inputs and generation targets.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  buildExecution,
}

var genCmd = &cobra.Command{
	Use:   "gen [flags] <input>...",
	Short: "Run one backend over input documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  genExecution,
}

func init() {
	buildCmd.Flags().Int("jobs", 0, "backends run in parallel (0 = GOMAXPROCS)")

	genCmd.Flags().StringP("backend", "b", "", "backend to run (see aidacc backends)")
	genCmd.Flags().StringP("output", "o", "", "output path (- for stdout)")
	genCmd.Flags().StringArrayP("option", "G", nil, "backend option key=value (repeatable)")
	_ = genCmd.MarkFlagRequired("backend")
}

func buildExecution(cmd *cobra.Command, args []string) error {
	start := "."
	if len(args) == 1 {
		start = args[0]
	}
	manifest, ok, err := project.LoadManifest(start)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no %s found in %s or its parents", project.ManifestName, start)
	}
	if len(manifest.Config.Generate) == 0 {
		return fmt.Errorf("%s: no [[generate]] targets", manifest.Path)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}

	opts := driver.Options{
		Inputs:     manifest.Inputs(),
		LedgerPath: manifest.LedgerPath(),
		Jobs:       jobs,
	}
	for _, g := range manifest.Config.Generate {
		opts.Targets = append(opts.Targets, driver.Target{
			Backend: g.Backend,
			Output:  manifest.Output(g),
			Options: g.Options,
		})
	}
	return runDriver(cmd, opts)
}

func genExecution(cmd *cobra.Command, args []string) error {
	backendName, err := cmd.Flags().GetString("backend")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	options, err := cmd.Flags().GetStringArray("option")
	if err != nil {
		return err
	}
	for _, opt := range options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("empty backend option")
		}
	}
	return runDriver(cmd, driver.Options{
		Inputs:  args,
		Targets: []driver.Target{{Backend: backendName, Output: output, Options: options}},
	})
}

// runDriver applies the global flags to opts, runs the build and reports
// its diagnostics.
func runDriver(cmd *cobra.Command, opts driver.Options) error {
	flags := cmd.Root().PersistentFlags()
	maxDiagnostics, err := flags.GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	ledgerPath, err := flags.GetString("ledger")
	if err != nil {
		return fmt.Errorf("failed to get ledger flag: %w", err)
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := flags.GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	colorize, err := useColor(cmd, os.Stderr)
	if err != nil {
		return err
	}

	opts.MaxDiagnostics = maxDiagnostics
	if ledgerPath != "" {
		opts.LedgerPath = ledgerPath
	}
	opts.Stdout = cmd.OutOrStdout()

	res, buildErr := driver.Build(cmd.Context(), opts)
	if err := printDiagnostics(cmd.ErrOrStderr(), res.Bag, colorize, quiet); err != nil {
		return err
	}
	if showTimings {
		printTimings(cmd.ErrOrStderr(), res.Timings)
	}
	if buildErr != nil {
		dumpTrace(cmd)
		if errors.Is(buildErr, driver.ErrFailed) {
			return fmt.Errorf("%w with %d diagnostic(s)", buildErr, res.Bag.Len())
		}
		return buildErr
	}
	if !quiet {
		for _, path := range res.Written {
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
		}
	}
	return nil
}
