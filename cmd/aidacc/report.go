package main

import (
	"fmt"
	"io"
	"time"

	"aidacc/internal/diag"
	"aidacc/internal/driver"
)

// printDiagnostics renders bag sorted by location. quiet drops everything
// below errors.
func printDiagnostics(w io.Writer, bag *diag.Bag, colorize, quiet bool) error {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	shown := bag
	if quiet {
		shown = diag.NewBag(bag.Cap())
		for _, d := range bag.Items() {
			if d.Severity == diag.SevError {
				shown.Add(d)
			}
		}
	}
	shown.Dedup()
	shown.Sort()
	return diag.Render(w, shown, diag.RenderOpts{Color: colorize, ShowNotes: true})
}

func printTimings(w io.Writer, timings []driver.Timing) {
	for _, t := range timings {
		fmt.Fprintf(w, "%s %.1f ms\n", t.Name, toMillis(t.Elapsed))
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
