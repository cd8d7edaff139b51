// Package backend defines how code generators plug into the compiler.
//
// A backend is a pure function from the frozen implementation-type list and a
// Config to a set of artifacts. Backends never write files themselves; the
// driver writes the artifacts once every requested backend succeeded.
package backend

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"aidacc/internal/decl"
)

// Stdout is the Output value that requests generation to standard output.
const Stdout = "-"

// ErrConfig matches every backend configuration fault via errors.Is.
var ErrConfig = errors.New("backend configuration error")

// ConfigError reports a configuration the backend cannot work with. It is
// fatal to the invocation that produced it only.
type ConfigError struct {
	Backend string
	Msg     string
}

func (e *ConfigError) Error() string { return e.Backend + ": " + e.Msg }

// Unwrap lets errors.Is match ErrConfig.
func (e *ConfigError) Unwrap() error { return ErrConfig }

// Config is the output configuration passed to a backend.
type Config struct {
	Output  string   // output path, Stdout for standard output
	Files   []string // IDL input files of the compilation unit
	Options []string // opaque key=value options, passed through verbatim
}

// Option returns the value of the last key=value option matching key.
func (c Config) Option(key string) (string, bool) {
	vals := c.OptionValues(key)
	if len(vals) == 0 {
		return "", false
	}
	return vals[len(vals)-1], true
}

// OptionValues returns every value given for key, in order.
func (c Config) OptionValues(key string) []string {
	var out []string
	prefix := key + "="
	for _, opt := range c.Options {
		if v, ok := strings.CutPrefix(opt, prefix); ok {
			out = append(out, v)
		}
	}
	return out
}

// ArtifactKind tells the driver how to deliver an artifact.
type ArtifactKind uint8

const (
	ArtifactFile ArtifactKind = iota
	ArtifactStdout
)

// Artifact is one generated output.
type Artifact struct {
	Kind ArtifactKind
	Path string // empty for ArtifactStdout
	Data []byte
}

// Func generates artifacts from the implementation types of a frozen unit.
// It must not mutate the declarations.
type Func func(impl []*decl.Type, cfg Config) ([]Artifact, error)

// Backend is a named generator.
type Backend struct {
	Name     string
	Doc      string
	Generate Func
}

// Run invokes the generator and tags configuration faults with its name.
func (b Backend) Run(impl []*decl.Type, cfg Config) ([]Artifact, error) {
	if b.Generate == nil {
		return nil, &ConfigError{Backend: b.Name, Msg: "no generator"}
	}
	arts, err := b.Generate(impl, cfg)
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) && ce.Backend == "" {
			ce.Backend = b.Name
		}
		return nil, err
	}
	return arts, nil
}

// Registry maps backend names to generators.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Backend
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Backend)}
}

// Register adds b. Names must be unique and non-empty.
func (r *Registry) Register(b Backend) error {
	if b.Name == "" {
		return fmt.Errorf("register backend: empty name")
	}
	if b.Generate == nil {
		return fmt.Errorf("register backend %q: nil generator", b.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[b.Name]; dup {
		return fmt.Errorf("register backend %q: already registered", b.Name)
	}
	r.byName[b.Name] = b
	return nil
}

// Lookup returns the backend called name.
func (r *Registry) Lookup(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byName[name]
	return b, ok
}

// Names lists registered backends sorted by name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered backends sorted by name.
func (r *Registry) All() []Backend {
	names := r.Names()
	out := make([]Backend, 0, len(names))
	for _, name := range names {
		b, _ := r.Lookup(name)
		out = append(out, b)
	}
	return out
}
