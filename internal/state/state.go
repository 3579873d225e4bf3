// Package state tracks the progress of a single run.
//
// A run moves strictly forward:
//
//	Idle -> Resolving -> Locating -> Building -> Done
//
// and may drop into Failed from Resolving, Locating or Building.
// Done and Failed are terminal.
package state

import "fmt"

// Stage is a point in the run lifecycle.
type Stage int

const (
	Idle Stage = iota
	Resolving
	Locating
	Building
	Done
	Failed
)

func (s Stage) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Resolving:
		return "Resolving"
	case Locating:
		return "Locating"
	case Building:
		return "Building"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool {
	return s == Done || s == Failed
}

// next is the only forward move allowed from each stage.
var next = map[Stage]Stage{
	Idle:      Resolving,
	Resolving: Locating,
	Locating:  Building,
	Building:  Done,
}

// Machine holds the current stage of a run. The zero value is Idle.
type Machine struct {
	current Stage
	history []Stage
	onEnter func(from, to Stage)
}

// NewMachine returns a machine in Idle. onEnter, if non-nil, is called after
// every successful transition.
func NewMachine(onEnter func(from, to Stage)) *Machine {
	return &Machine{current: Idle, history: []Stage{Idle}, onEnter: onEnter}
}

// Current returns the current stage.
func (m *Machine) Current() Stage {
	return m.current
}

// History returns every stage visited, starting with Idle.
func (m *Machine) History() []Stage {
	if len(m.history) == 0 {
		return []Stage{m.current}
	}
	out := make([]Stage, len(m.history))
	copy(out, m.history)
	return out
}

// Advance moves to the next stage. It fails when to is not the immediate
// successor of the current stage.
func (m *Machine) Advance(to Stage) error {
	if want, ok := next[m.current]; !ok || want != to {
		return fmt.Errorf("invalid transition %s -> %s", m.current, to)
	}
	m.enter(to)
	return nil
}

// Fail moves to Failed. Only Resolving, Locating and Building can fail.
func (m *Machine) Fail() error {
	switch m.current {
	case Resolving, Locating, Building:
		m.enter(Failed)
		return nil
	default:
		return fmt.Errorf("invalid transition %s -> %s", m.current, Failed)
	}
}

func (m *Machine) enter(to Stage) {
	from := m.current
	if len(m.history) == 0 {
		m.history = append(m.history, from)
	}
	m.current = to
	m.history = append(m.history, to)
	if m.onEnter != nil {
		m.onEnter(from, to)
	}
}
