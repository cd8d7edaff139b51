package driver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"aidacc/internal/backend"
	"aidacc/internal/decl"
	"aidacc/internal/diag"
)

// writeArtifacts stores file artifacts and copies stdout artifacts to w in
// order. Two artifacts addressing the same path are rejected before anything
// is written.
func writeArtifacts(arts []backend.Artifact, w io.Writer, bag *diag.Bag) []string {
	seen := make(map[string]bool, len(arts))
	for _, a := range arts {
		if a.Kind != backend.ArtifactFile {
			continue
		}
		clean := filepath.Clean(a.Path)
		if seen[clean] {
			bag.Add(diag.NewError(diag.BackendOutput, decl.Loc{File: a.Path}, "output written by more than one backend"))
		}
		seen[clean] = true
	}
	if bag.HasErrors() {
		return nil
	}

	var written []string
	for _, a := range arts {
		switch a.Kind {
		case backend.ArtifactStdout:
			if _, err := w.Write(a.Data); err != nil {
				bag.Add(diag.NewError(diag.BackendOutput, decl.Loc{}, fmt.Sprintf("write stdout: %v", err)))
			}
		case backend.ArtifactFile:
			if err := writeFile(a.Path, a.Data); err != nil {
				bag.Add(diag.NewError(diag.BackendOutput, decl.Loc{File: a.Path}, err.Error()))
				continue
			}
			written = append(written, a.Path)
		}
	}
	return written
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
