// Package project reads the aidacc.toml manifest that names a project's input
// documents, its generation targets and the tag ledger.
package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is a loaded aidacc.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Project  ProjectConfig    `toml:"project"`
	Generate []GenerateConfig `toml:"generate"`
	Ledger   LedgerConfig     `toml:"ledger"`
}

type ProjectConfig struct {
	Name   string   `toml:"name"`
	Inputs []string `toml:"inputs"`
}

// GenerateConfig is one [[generate]] table: a backend run.
type GenerateConfig struct {
	Backend string   `toml:"backend"`
	Output  string   `toml:"output"`
	Options []string `toml:"options"`
}

type LedgerConfig struct {
	Path string `toml:"path"`
}

// LoadManifest finds aidacc.toml above startDir and loads it. ok is false
// when there is no manifest.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// LoadConfig decodes and validates the manifest at path.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("project") {
		return Config{}, fmt.Errorf("%s: missing [project]", path)
	}
	if !meta.IsDefined("project", "name") || strings.TrimSpace(cfg.Project.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [project].name", path)
	}
	if !meta.IsDefined("project", "inputs") || len(cfg.Project.Inputs) == 0 {
		return Config{}, fmt.Errorf("%s: missing [project].inputs", path)
	}
	for i, g := range cfg.Generate {
		if strings.TrimSpace(g.Backend) == "" {
			return Config{}, fmt.Errorf("%s: missing [[generate]] #%d backend", path, i+1)
		}
	}
	if meta.IsDefined("ledger") && strings.TrimSpace(cfg.Ledger.Path) == "" {
		return Config{}, fmt.Errorf("%s: missing [ledger].path", path)
	}
	return cfg, nil
}

// Inputs returns the input documents as paths relative to the working
// directory of the process.
func (m *Manifest) Inputs() []string {
	out := make([]string, len(m.Config.Project.Inputs))
	for i, in := range m.Config.Project.Inputs {
		out[i] = m.resolve(in)
	}
	return out
}

// Output resolves a [[generate]] output; "-" stays standard output.
func (m *Manifest) Output(g GenerateConfig) string {
	if g.Output == "" || g.Output == "-" {
		return g.Output
	}
	return m.resolve(g.Output)
}

// LedgerPath returns the resolved ledger database, empty when disabled.
func (m *Manifest) LedgerPath() string {
	if m.Config.Ledger.Path == "" {
		return ""
	}
	return m.resolve(m.Config.Ledger.Path)
}

func (m *Manifest) resolve(p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, p)
}
