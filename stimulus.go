package fsmodel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/enetx/g"
)

// StimulusKind tags the variant held by a Stimulus.
type StimulusKind int

const (
	StimNone StimulusKind = iota
	StimPeriodic
	StimSporadic
	StimValueChanges
)

// ValueChange is a single (time, value) step of a ValueChanges stimulus.
type ValueChange struct {
	Time  int
	Value int
}

// Stimulus describes how an input signal is driven during simulation.
// Only the fields matching Kind are meaningful.
type Stimulus struct {
	Kind    StimulusKind
	Period  int
	Start   int
	End     int
	Dates   g.Slice[int]
	Changes g.Slice[ValueChange]
}

// NoStimulus is the zero Stimulus.
var NoStimulus = Stimulus{}

// Periodic returns a stimulus firing every period units from start to end.
func Periodic(period, start, end int) Stimulus {
	return Stimulus{Kind: StimPeriodic, Period: period, Start: start, End: end}
}

// Sporadic returns a stimulus firing at the given dates.
func Sporadic(dates ...int) Stimulus {
	return Stimulus{Kind: StimSporadic, Dates: g.SliceOf(dates...)}
}

// ValueChanges returns a stimulus assigning values at the given times.
func ValueChanges(changes ...ValueChange) Stimulus {
	return Stimulus{Kind: StimValueChanges, Changes: g.SliceOf(changes...)}
}

// IsNone reports whether no stimulus is attached.
func (s Stimulus) IsNone() bool { return s.Kind == StimNone }

// Clone returns a deep copy of s.
func (s Stimulus) Clone() Stimulus {
	c := s
	if s.Dates != nil {
		c.Dates = s.Dates.Clone()
	}
	if s.Changes != nil {
		c.Changes = s.Changes.Clone()
	}
	return c
}

// String returns the persisted form of the stimulus, as stored in the
// "stim" field of a model file. The None stimulus is the empty string.
func (s Stimulus) String() string {
	switch s.Kind {
	case StimPeriodic:
		return fmt.Sprintf("Periodic(%d,%d,%d)", s.Period, s.Start, s.End)
	case StimSporadic:
		return "Sporadic(" + joinInts(s.Dates) + ")"
	case StimValueChanges:
		return "ValueChanges(" + joinChanges(s.Changes) + ")"
	default:
		return ""
	}
}

// RFSM returns the stimulus literal used in RFSM input declarations.
// The None stimulus has no literal and yields the empty string.
func (s Stimulus) RFSM() g.String {
	switch s.Kind {
	case StimPeriodic:
		return g.String(fmt.Sprintf("periodic(%d,%d,%d)", s.Period, s.Start, s.End))
	case StimSporadic:
		return g.String("sporadic(" + joinInts(s.Dates) + ")")
	case StimValueChanges:
		return g.String("value_changes(" + joinChanges(s.Changes) + ")")
	default:
		return ""
	}
}

// ParseStimulus parses the persisted form produced by Stimulus.String.
// Both "" and "None" denote the None stimulus.
func ParseStimulus(text string) (Stimulus, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == "None" {
		return NoStimulus, nil
	}

	open := strings.IndexByte(text, '(')
	if open < 0 || !strings.HasSuffix(text, ")") {
		return NoStimulus, fmt.Errorf("malformed stimulus %q", text)
	}

	head, body := text[:open], text[open+1:len(text)-1]
	args := splitList(body)

	switch head {
	case "Periodic":
		if len(args) != 3 {
			return NoStimulus, fmt.Errorf("periodic stimulus %q: want 3 arguments, got %d", text, len(args))
		}
		ns, err := atois(args)
		if err != nil {
			return NoStimulus, fmt.Errorf("periodic stimulus %q: %w", text, err)
		}
		return Periodic(ns[0], ns[1], ns[2]), nil
	case "Sporadic":
		ns, err := atois(args)
		if err != nil {
			return NoStimulus, fmt.Errorf("sporadic stimulus %q: %w", text, err)
		}
		return Sporadic(ns...), nil
	case "ValueChanges":
		vcs := make([]ValueChange, 0, len(args))
		for _, arg := range args {
			t, v, ok := strings.Cut(arg, ":")
			if !ok {
				return NoStimulus, fmt.Errorf("value change %q: missing ':'", arg)
			}
			ns, err := atois([]string{t, v})
			if err != nil {
				return NoStimulus, fmt.Errorf("value change %q: %w", arg, err)
			}
			vcs = append(vcs, ValueChange{Time: ns[0], Value: ns[1]})
		}
		return ValueChanges(vcs...), nil
	default:
		return NoStimulus, fmt.Errorf("unknown stimulus kind %q", head)
	}
}

func atois(ss []string) ([]int, error) {
	ns := make([]int, 0, len(ss))
	for _, s := range ss {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		ns = append(ns, n)
	}
	return ns, nil
}

func joinInts(ns g.Slice[int]) string {
	parts := make([]string, 0, len(ns))
	for _, n := range ns {
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, ",")
}

func joinChanges(vcs g.Slice[ValueChange]) string {
	parts := make([]string, 0, len(vcs))
	for _, vc := range vcs {
		parts = append(parts, strconv.Itoa(vc.Time)+":"+strconv.Itoa(vc.Value))
	}
	return strings.Join(parts, ",")
}
