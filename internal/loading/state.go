package loading

import "fmt"

// Phase is the coarse loading phase.
type Phase int

const (
	Empty Phase = iota
	Partial
	Stable
	Failed
)

func (p Phase) String() string {
	switch p {
	case Empty:
		return "empty"
	case Partial:
		return "partial"
	case Stable:
		return "stable"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText renders the phase name for JSON and YAML output.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name written by MarshalText.
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "empty":
		*p = Empty
	case "partial":
		*p = Partial
	case "stable":
		*p = Stable
	case "failed":
		*p = Failed
	default:
		return fmt.Errorf("unknown loading phase %q", text)
	}
	return nil
}

// State is a loading phase plus the cue count observed with it. Count is zero
// for Empty and Failed. Unavailable marks an Empty state that will never
// fill because the media carries no captions at all; it is informational and
// distinct from Failed.
type State struct {
	Phase       Phase `json:"phase" yaml:"phase"`
	Count       int   `json:"count" yaml:"count"`
	Unavailable bool  `json:"unavailable,omitempty" yaml:"unavailable,omitempty"`
}

func (s State) String() string {
	if s.Unavailable {
		return "unavailable"
	}
	switch s.Phase {
	case Partial, Stable:
		return fmt.Sprintf("%s(%d)", s.Phase, s.Count)
	default:
		return s.Phase.String()
	}
}

// Renderable reports whether a renderer should draw the transcript now.
// Stable, Failed and Unavailable always are; Partial only when renderPartial
// is set.
func (s State) Renderable(renderPartial bool) bool {
	if s.Unavailable {
		return true
	}
	switch s.Phase {
	case Stable, Failed:
		return true
	case Partial:
		return renderPartial
	default:
		return false
	}
}

// Terminal reports whether the machine will no longer change on its own.
func (s State) Terminal() bool {
	return s.Phase == Failed || s.Unavailable
}
