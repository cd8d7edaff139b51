package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// RenderOpts configures Render.
type RenderOpts struct {
	Color     bool
	ShowNotes bool
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	locColor     = color.New(color.Bold)
	noteColor    = color.New(color.FgBlue)
)

func severityColor(s Severity) *color.Color {
	switch s {
	case SevError:
		return errorColor
	case SevWarning:
		return warningColor
	default:
		return infoColor
	}
}

// Render writes one line per diagnostic:
//
//	<file>:<line>: <SEV> <AIDnnnn>: <message>
//
// followed by indented notes. Diagnostics without a location omit the prefix.
func Render(w io.Writer, bag *Bag, opts RenderOpts) error {
	paint := func(c *color.Color, s string) string {
		if !opts.Color {
			return s
		}
		c.EnableColor()
		return c.Sprint(s)
	}
	for _, d := range bag.Items() {
		if loc := d.Primary.String(); loc != "" {
			if _, err := fmt.Fprint(w, paint(locColor, loc+":"), " "); err != nil {
				return err
			}
		}
		sev := paint(severityColor(d.Severity), d.Severity.String())
		if _, err := fmt.Fprintf(w, "%s %s: %s\n", sev, d.Code.ID(), d.Message); err != nil {
			return err
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			prefix := ""
			if loc := n.Loc.String(); loc != "" {
				prefix = loc + ": "
			}
			if _, err := fmt.Fprintf(w, "  %s %s%s\n", paint(noteColor, "note:"), prefix, n.Msg); err != nil {
				return err
			}
		}
	}
	return nil
}
