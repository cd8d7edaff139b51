package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"aidacc/internal/diag"
	"aidacc/internal/driver"
	"aidacc/internal/idhash"
	"aidacc/internal/ledger"
)

var hashCmd = &cobra.Command{
	Use:   "hash [flags] [input]...",
	Short: "Print the dispatch tags of input documents",
	Long: `Print every dispatch tag minted for the implementation types of the inputs.
With --lookup, print the declaration a tag belongs to, consulting the tag
ledger when no input declares it.`,
	RunE: hashExecution,
}

func init() {
	hashCmd.Flags().String("subject", "", "only declarations with this name or namespace prefix")
	hashCmd.Flags().String("lookup", "", "find the declaration behind a 32 digit hex tag")
	hashCmd.Flags().Bool("feeds", false, "print the digest feed of each tag")
	hashCmd.Flags().Bool("cinit", false, "print tags as C initializers")
}

func hashExecution(cmd *cobra.Command, args []string) error {
	subject, err := cmd.Flags().GetString("subject")
	if err != nil {
		return err
	}
	lookup, err := cmd.Flags().GetString("lookup")
	if err != nil {
		return err
	}
	feeds, err := cmd.Flags().GetBool("feeds")
	if err != nil {
		return err
	}
	cinit, err := cmd.Flags().GetBool("cinit")
	if err != nil {
		return err
	}
	if len(args) == 0 && lookup == "" {
		return fmt.Errorf("no input documents given")
	}

	var entries []idhash.Entry
	if len(args) > 0 {
		entries, err = loadTags(cmd, args)
		if err != nil {
			return err
		}
	}

	if lookup != "" {
		tag, err := idhash.ParseTag(lookup)
		if err != nil {
			return err
		}
		return lookupTag(cmd, tag, entries)
	}

	var shown []idhash.Entry
	for _, e := range entries {
		if matchSubject(e.Subject, subject) {
			shown = append(shown, e)
		}
	}
	writeEntries(cmd.OutOrStdout(), shown, feeds, cinit)
	return nil
}

// loadTags loads args into a unit and mints its tags, printing load
// diagnostics on failure.
func loadTags(cmd *cobra.Command, args []string) ([]idhash.Entry, error) {
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	colorize, err := useColor(cmd, os.Stderr)
	if err != nil {
		return nil, err
	}
	bag := diag.NewBag(maxDiagnostics)
	u := driver.LoadUnit(cmd.Context(), args, bag)
	if bag.HasErrors() {
		if err := printDiagnostics(cmd.ErrOrStderr(), bag, colorize, false); err != nil {
			return nil, err
		}
		dumpTrace(cmd)
		return nil, driver.ErrFailed
	}
	return driver.Tags(u)
}

func lookupTag(cmd *cobra.Command, tag idhash.Tag, entries []idhash.Entry) error {
	out := cmd.OutOrStdout()
	for _, e := range entries {
		if e.Tag == tag {
			fmt.Fprintf(out, "%s %s\n  feed: %s\n", e.Subject, e.Purpose, e.Feed)
			return nil
		}
	}
	path, err := cmd.Root().PersistentFlags().GetString("ledger")
	if err != nil {
		return fmt.Errorf("failed to get ledger flag: %w", err)
	}
	if path == "" {
		return fmt.Errorf("tag %s not found", tag)
	}
	l, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer l.Close()
	feed, ok, err := l.Feed(tag)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("tag %s not found in %s", tag, path)
	}
	fmt.Fprintf(out, "recorded in %s\n  feed: %s\n", path, feed)
	return nil
}

func matchSubject(s, want string) bool {
	if want == "" || s == want {
		return true
	}
	return strings.HasPrefix(s, strings.TrimSuffix(want, "::")+"::")
}

func writeEntries(w io.Writer, entries []idhash.Entry, feeds, cinit bool) {
	render := func(t idhash.Tag) string {
		if cinit {
			return t.CInit()
		}
		return t.String()
	}
	tagWidth, purposeWidth := 0, 0
	for _, e := range entries {
		tagWidth = max(tagWidth, runewidth.StringWidth(render(e.Tag)))
		purposeWidth = max(purposeWidth, runewidth.StringWidth(e.Purpose))
	}
	for _, e := range entries {
		line := runewidth.FillRight(render(e.Tag), tagWidth) + "  " +
			runewidth.FillRight(e.Purpose, purposeWidth) + "  " + e.Subject
		if feeds {
			line += "\n    " + e.Feed
		}
		fmt.Fprintln(w, line)
	}
}
