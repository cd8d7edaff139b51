// Package tagtable emits the dispatch tags of every implementation type so
// that runtimes written outside this toolchain can route calls by tag.
package tagtable

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/vmihailenco/msgpack/v5"

	"aidacc/internal/backend"
	"aidacc/internal/decl"
	"aidacc/internal/idhash"
)

// Name is the registry name of the backend.
const Name = "tagtable"

// Format selects the serialization of the table.
type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// Current schema version - bump when Row changes shape.
const schemaVersion uint16 = 1

// Row is one minted tag.
type Row struct {
	Subject string `json:"subject" msgpack:"subject"`
	Purpose string `json:"purpose" msgpack:"purpose"`
	Class   string `json:"class" msgpack:"class"`
	Tag     string `json:"tag" msgpack:"tag"`
	Feed    string `json:"feed,omitempty" msgpack:"feed,omitempty"`
}

// Table is the serialized document for json and msgpack output.
type Table struct {
	Schema uint16 `json:"schema" msgpack:"schema"`
	Source string `json:"source" msgpack:"source"`
	Rows   []Row  `json:"rows" msgpack:"rows"`
}

// Backend returns the registry entry for the tag table generator.
func Backend() backend.Backend {
	return backend.Backend{
		Name:     Name,
		Doc:      "dispatch tag table (format=text|json|msgpack, tag-style=hex|cinit, feeds=true)",
		Generate: Generate,
	}
}

// Generate builds the tag table for impl. Forward declarations are skipped;
// their defining declaration carries the same tags.
func Generate(impl []*decl.Type, cfg backend.Config) ([]backend.Artifact, error) {
	if cfg.Output == "" {
		cfg.Output = backend.Stdout
	}
	format := FormatText
	if v, ok := cfg.Option("format"); ok {
		format = Format(v)
	}
	style, _ := cfg.Option("tag-style")
	feeds, _ := cfg.Option("feeds")

	switch format {
	case FormatText, FormatJSON:
	case FormatMsgpack:
		if cfg.Output == backend.Stdout {
			return nil, &backend.ConfigError{Backend: Name, Msg: "-: msgpack output needs a file"}
		}
	default:
		return nil, &backend.ConfigError{Backend: Name, Msg: fmt.Sprintf("unknown format %q", format)}
	}
	switch style {
	case "", "hex", "cinit":
	default:
		return nil, &backend.ConfigError{Backend: Name, Msg: fmt.Sprintf("unknown tag-style %q", style)}
	}

	tbl := Table{Schema: schemaVersion, Source: strings.Join(cfg.Files, ",")}
	for _, tp := range impl {
		if tp.IsForward() {
			continue
		}
		for _, e := range idhash.Collect(tp) {
			row := Row{
				Subject: e.Subject,
				Purpose: e.Purpose,
				Class:   e.Tag.Class().String(),
				Tag:     e.Tag.String(),
			}
			if style == "cinit" {
				row.Tag = e.Tag.CInit()
			}
			if feeds == "true" {
				row.Feed = e.Feed
			}
			tbl.Rows = append(tbl.Rows, row)
		}
	}

	data, err := encode(tbl, format)
	if err != nil {
		return nil, fmt.Errorf("%s: encode %s: %w", Name, format, err)
	}
	return []backend.Artifact{cfg.Emit(data)}, nil
}

func encode(tbl Table, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(tbl); err != nil {
			return nil, err
		}
	case FormatMsgpack:
		if err := msgpack.NewEncoder(&buf).Encode(&tbl); err != nil {
			return nil, err
		}
	default:
		writeText(&buf, tbl)
	}
	return buf.Bytes(), nil
}

// Decode reads a msgpack table back.
func Decode(data []byte) (Table, error) {
	var tbl Table
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&tbl); err != nil {
		return Table{}, err
	}
	if tbl.Schema != schemaVersion {
		return Table{}, fmt.Errorf("tag table schema %d, want %d", tbl.Schema, schemaVersion)
	}
	return tbl, nil
}

func writeText(buf *bytes.Buffer, tbl Table) {
	fmt.Fprintf(buf, "# aidacc tag table, source %s\n", tbl.Source)
	tagWidth, purposeWidth := 0, 0
	for _, r := range tbl.Rows {
		tagWidth = max(tagWidth, runewidth.StringWidth(r.Tag))
		purposeWidth = max(purposeWidth, runewidth.StringWidth(r.Purpose))
	}
	for _, r := range tbl.Rows {
		buf.WriteString(runewidth.FillRight(r.Tag, tagWidth))
		buf.WriteString("  ")
		buf.WriteString(runewidth.FillRight(r.Purpose, purposeWidth))
		buf.WriteString("  ")
		buf.WriteString(r.Subject)
		if r.Feed != "" {
			buf.WriteString("  # ")
			buf.WriteString(r.Feed)
		}
		buf.WriteByte('\n')
	}
}
