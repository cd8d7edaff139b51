package backend

import "fmt"

// RequireSingleInput fails unless exactly one IDL file feeds the unit.
func (c Config) RequireSingleInput(name string) error {
	if len(c.Files) != 1 {
		return &ConfigError{Backend: name, Msg: fmt.Sprintf("exactly one IDL input file is required, got %d", len(c.Files))}
	}
	return nil
}

// RequireFileOutput fails when the output is standard output, which cannot
// hold multi-file generation.
func (c Config) RequireFileOutput(name string) error {
	if c.Output == Stdout {
		return &ConfigError{Backend: name, Msg: "-: stdout is not supported for generation of multiple files"}
	}
	if c.Output == "" {
		return &ConfigError{Backend: name, Msg: "no output path given"}
	}
	return nil
}

// Emit wraps data as a single artifact addressed by c.Output.
func (c Config) Emit(data []byte) Artifact {
	if c.Output == Stdout {
		return Artifact{Kind: ArtifactStdout, Data: data}
	}
	return Artifact{Kind: ArtifactFile, Path: c.Output, Data: data}
}
