package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"aidacc/internal/decl"
	"aidacc/internal/diag"
	"aidacc/internal/driver"
	"aidacc/internal/idhash"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [flags] <input>...",
	Short: "Print the declaration graph of input documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  inspectExecution,
}

func init() {
	inspectCmd.Flags().Bool("tags", true, "show dispatch tags")
}

func inspectExecution(cmd *cobra.Command, args []string) error {
	showTags, err := cmd.Flags().GetBool("tags")
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	errColor, err := useColor(cmd, os.Stderr)
	if err != nil {
		return err
	}
	outColor, err := useColor(cmd, os.Stdout)
	if err != nil {
		return err
	}

	bag := diag.NewBag(maxDiagnostics)
	u := driver.LoadUnit(cmd.Context(), args, bag)
	if bag.HasErrors() {
		if err := printDiagnostics(cmd.ErrOrStderr(), bag, errColor, false); err != nil {
			return err
		}
		dumpTrace(cmd)
		return driver.ErrFailed
	}
	return renderInspect(cmd.OutOrStdout(), u, inspectOptions{color: outColor, tags: showTags})
}

type inspectOptions struct {
	color bool
	tags  bool
}

type inspectStyles struct {
	namespace lipgloss.Style
	kind      lipgloss.Style
	name      lipgloss.Style
	flag      lipgloss.Style
	tag       lipgloss.Style
	member    lipgloss.Style
}

func newInspectStyles(w io.Writer, colorize bool) inspectStyles {
	r := lipgloss.NewRenderer(w)
	if colorize {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return inspectStyles{
		namespace: r.NewStyle().Bold(true).Foreground(lipgloss.Color("7")),
		kind:      r.NewStyle().Foreground(lipgloss.Color("6")),
		name:      r.NewStyle().Bold(true),
		flag:      r.NewStyle().Foreground(lipgloss.Color("3")),
		tag:       r.NewStyle().Faint(true),
		member:    r.NewStyle().Foreground(lipgloss.Color("2")),
	}
}

// renderInspect writes the namespace tree of u. Each level indents by two
// spaces.
func renderInspect(w io.Writer, u *decl.Unit, opts inspectOptions) (err error) {
	defer decl.Catch(&err)
	p := &inspectPrinter{w: w, st: newInspectStyles(w, opts.color), tags: opts.tags}
	for _, ns := range u.Roots() {
		p.namespace(ns, 0)
	}
	return p.err
}

type inspectPrinter struct {
	w    io.Writer
	st   inspectStyles
	tags bool
	err  error
}

func (p *inspectPrinter) line(depth int, parts ...string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, strings.Repeat("  ", depth)+strings.Join(parts, " "))
}

func (p *inspectPrinter) namespace(ns *decl.Namespace, depth int) {
	p.line(depth, p.st.kind.Render("namespace"), p.st.namespace.Render(ns.FullName()))
	for _, c := range ns.Consts() {
		parts := []string{p.st.kind.Render("const"), p.st.name.Render(c.Name), "=", fmt.Sprint(c.Value)}
		if ns.IsImplName(c.Name) {
			parts = append(parts, p.st.flag.Render("impl"))
		}
		p.line(depth+1, parts...)
	}
	for _, t := range ns.Types() {
		p.typ(t, depth+1)
	}
	for _, child := range ns.Children() {
		p.namespace(child, depth+1)
	}
}

func (p *inspectPrinter) typ(t *decl.Type, depth int) {
	parts := []string{p.st.kind.Render(t.Storage().Spelling()), p.st.name.Render(t.Name())}
	if t.IsImpl() {
		parts = append(parts, p.st.flag.Render("impl"))
	}
	if t.IsForward() {
		parts = append(parts, p.st.flag.Render("forward"))
	}
	if origin := t.TypedefOrigin(); origin != nil {
		parts = append(parts, p.st.flag.Render("typedef "+origin.FullName()))
	}
	if p.tags && !t.IsForward() {
		parts = append(parts, p.st.tag.Render(idhash.TypeHash(t).String()))
	}
	p.line(depth, parts...)
	if t.IsForward() || t.TypedefOrigin() != nil {
		return
	}

	switch pl := t.Payload().(type) {
	case *decl.Enum:
		for _, o := range pl.Options() {
			p.line(depth+1, p.st.member.Render(o.Ident), "=", fmt.Sprint(o.Value))
		}
	case *decl.Record:
		p.fields(pl.Fields(), depth+1)
	case *decl.Sequence:
		if el, ok := pl.Elements(); ok {
			p.line(depth+1, p.st.kind.Render("elements"), p.st.member.Render(el.Ident), el.Type.FullName())
		}
	case *decl.Interface:
		for _, pre := range pl.Prerequisites() {
			p.line(depth+1, p.st.kind.Render("prerequisite"), pre.FullName())
		}
		p.fields(pl.Fields(), depth+1)
		for _, m := range pl.Methods() {
			p.method(m, "method", depth+1)
		}
		for _, s := range pl.Signals() {
			p.method(s, "signal", depth+1)
		}
	}
}

func (p *inspectPrinter) fields(fields []decl.Field, depth int) {
	for _, f := range fields {
		p.line(depth, p.st.kind.Render("field"), p.st.member.Render(f.Ident), f.Type.FullName())
	}
}

func (p *inspectPrinter) method(m *decl.Type, kind string, depth int) {
	fn := m.Function()
	args := make([]string, 0, len(fn.Args()))
	for _, a := range fn.Args() {
		arg := a.Type.FullName() + " " + a.Ident
		if a.DefaultInit != "" {
			arg += " = " + a.DefaultInit
		}
		args = append(args, arg)
	}
	parts := []string{p.st.kind.Render(kind), p.st.member.Render(m.Name()) + "(" + strings.Join(args, ", ") + ")"}
	if ret := fn.Return(); ret != nil {
		parts = append(parts, "->", ret.FullName())
	}
	if fn.IsSignal() && fn.Collector() != decl.DefaultCollector {
		parts = append(parts, p.st.flag.Render("collect "+fn.Collector()))
	}
	if p.tags {
		parts = append(parts, p.st.tag.Render(idhash.TypeHash(m).String()))
	}
	p.line(depth, parts...)
}
