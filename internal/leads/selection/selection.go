// Package selection models which lead is open for detail viewing and the
// disjoint multi-select set used by bulk operations. Transitions run
// through a pure reducer so the sync rules live in one place.
package selection

import (
	"sort"

	"estate_admin_backend/internal/leads/domain"
)

// State is a tagged union: Closed, or Open with the lead id and the cached
// snapshot from the most recent collection refresh.
type State struct {
	open     bool
	id       string
	snapshot domain.Lead
}

// Closed is the initial state.
func Closed() State {
	return State{}
}

// IsOpen reports whether a lead detail view is open.
func (s State) IsOpen() bool {
	return s.open
}

// OpenID returns the open lead id, or "" when closed.
func (s State) OpenID() string {
	if !s.open {
		return ""
	}
	return s.id
}

// Snapshot returns the cached lead and whether one is open.
func (s State) Snapshot() (domain.Lead, bool) {
	return s.snapshot, s.open
}

// Event is a selection transition input.
type Event interface {
	isSelectionEvent()
}

// Opened opens a lead for detail viewing.
type Opened struct {
	Lead domain.Lead
}

// Dismissed closes the detail view.
type Dismissed struct{}

// CollectionRefreshed re-resolves the open lead against the latest
// collection snapshot.
type CollectionRefreshed struct {
	Leads []domain.Lead
}

func (Opened) isSelectionEvent()              {}
func (Dismissed) isSelectionEvent()           {}
func (CollectionRefreshed) isSelectionEvent() {}

// Reduce applies one event. A refresh replaces the cached snapshot with the
// fresh record for the open id; a stale object is never kept once a newer
// one exists. If the id has vanished from the collection the view stays
// open on the last snapshot rather than force-closing.
func Reduce(s State, e Event) State {
	switch event := e.(type) {
	case Opened:
		return State{open: true, id: event.Lead.ID, snapshot: event.Lead}
	case Dismissed:
		return Closed()
	case CollectionRefreshed:
		if !s.open {
			return s
		}
		for _, lead := range event.Leads {
			if lead.ID == s.id {
				return State{open: true, id: s.id, snapshot: lead}
			}
		}
		return s
	default:
		return s
	}
}

// Checked is the multi-select id set feeding bulk operations. It is owned
// exclusively by the engine's control flow and is not safe for concurrent
// use on its own.
type Checked struct {
	ids map[string]struct{}
}

// NewChecked creates an empty selection set.
func NewChecked() *Checked {
	return &Checked{ids: make(map[string]struct{})}
}

// Toggle adds the id if absent and removes it if present.
func (c *Checked) Toggle(id string) {
	if _, ok := c.ids[id]; ok {
		delete(c.ids, id)
		return
	}
	c.ids[id] = struct{}{}
}

// Has reports whether the id is checked.
func (c *Checked) Has(id string) bool {
	_, ok := c.ids[id]
	return ok
}

// Len returns the number of checked ids.
func (c *Checked) Len() int {
	return len(c.ids)
}

// IDs returns the checked ids in stable order.
func (c *Checked) IDs() []string {
	out := make([]string, 0, len(c.ids))
	for id := range c.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clear empties the set.
func (c *Checked) Clear() {
	c.ids = make(map[string]struct{})
}
