// Package selection holds the single focused ride shared by the list panel and the map.
//
// A Machine is not safe for concurrent use; it is owned by the console session loop.
package selection

// Reason says why a selection changed.
type Reason string

const (
	ReasonSelected Reason = "selected" // a different ride was picked
	ReasonToggled  Reason = "toggled"  // the selected ride was picked again
	ReasonCleared  Reason = "cleared"  // an empty id was picked
	ReasonVanished Reason = "vanished" // a poll no longer lists the selected ride
)

// Change describes one transition. From and To are "" for Unselected.
type Change struct {
	From   string
	To     string
	Reason Reason
}

// Machine is the Unselected / Selected(id) state machine.
type Machine struct {
	current   string
	listeners []func(Change)
}

// New returns a machine in the Unselected state.
func New() *Machine {
	return &Machine{}
}

// Current returns the selected ride id and whether one is selected.
func (m *Machine) Current() (string, bool) {
	return m.current, m.current != ""
}

// OnChange registers fn to observe every transition.
func (m *Machine) OnChange(fn func(Change)) {
	m.listeners = append(m.listeners, fn)
}

// Select picks id, or returns to Unselected when id is already selected or empty.
// List rows and map entities both go through here.
func (m *Machine) Select(id string) {
	switch {
	case id == "":
		m.transition("", ReasonCleared)
	case id == m.current:
		m.transition("", ReasonToggled)
	default:
		m.transition(id, ReasonSelected)
	}
}

// Reconcile clears the selection when ids no longer contains it.
// It reports whether the selection was cleared.
func (m *Machine) Reconcile(ids []string) bool {
	if m.current == "" {
		return false
	}
	for _, id := range ids {
		if id == m.current {
			return false
		}
	}
	m.transition("", ReasonVanished)
	return true
}

func (m *Machine) transition(to string, reason Reason) {
	if to == m.current {
		return
	}
	change := Change{From: m.current, To: to, Reason: reason}
	m.current = to
	for _, fn := range m.listeners {
		fn(change)
	}
}
