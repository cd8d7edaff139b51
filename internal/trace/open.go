package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Mode chooses where events go.
type Mode uint8

const (
	ModeStream Mode = iota + 1 // written as they happen
	ModeRing                   // kept in memory for failure dumps
	ModeBoth
)

var modeNames = [...]string{ModeStream: "stream", ModeRing: "ring", ModeBoth: "both"}

func (m Mode) String() string {
	if int(m) < len(modeNames) && modeNames[m] != "" {
		return modeNames[m]
	}
	return "unknown"
}

func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name != "" && strings.EqualFold(s, name) {
			return Mode(m), nil
		}
	}
	return ModeStream, fmt.Errorf("invalid trace mode %q (stream|ring|both)", s)
}

// Config describes the tracer of one command run.
type Config struct {
	Level      Level
	Mode       Mode
	Format     Format    // FormatAuto picks from OutputPath
	Output     io.Writer // overrides OutputPath
	OutputPath string    // "" or "-" is stderr
	RingSize   int       // <= 0 means DefaultRecent
}

// Open builds the tracer cfg describes. At LevelError events are only kept
// in memory, whatever the mode.
func Open(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	if cfg.Level == LevelError {
		cfg.Mode = ModeRing
	}
	switch cfg.Mode {
	case ModeRing:
		return NewRecent(cfg.RingSize, cfg.Level), nil
	case ModeStream, ModeBoth:
	default:
		return nil, fmt.Errorf("unknown trace mode %v", cfg.Mode)
	}
	stream, err := openStream(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Mode == ModeStream {
		return stream, nil
	}
	return NewTee(cfg.Level, stream, NewRecent(cfg.RingSize, cfg.Level)), nil
}

func openStream(cfg Config) (*Stream, error) {
	format := cfg.Format
	if format == FormatAuto {
		format = formatFor(cfg.OutputPath)
	}
	switch {
	case cfg.Output != nil:
		return NewStream(cfg.Output, cfg.Level, format), nil
	case cfg.OutputPath == "" || cfg.OutputPath == "-":
		return NewStream(os.Stderr, cfg.Level, format), nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("open trace output: %w", err)
	}
	s := NewStream(f, cfg.Level, format)
	s.file = f
	return s, nil
}
