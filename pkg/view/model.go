// Package view holds the in-memory list view the host renders into.
//
// Model implements ports.View. Every change bumps a version and is broadcast
// to subscribers, which is how the admin server streams view updates.
package view

import (
	"sync"

	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/aretw0/todosoa/pkg/ports"
)

// Change kinds published to subscribers.
const (
	ChangeList    = "list"
	ChangeRow     = "row"
	ChangeRemove  = "remove"
	ChangeEdit    = "edit"
	ChangeCounter = "counter"
	ChangeClear   = "clear"
	ChangeToggle  = "toggle"
	ChangeFrame   = "frame"
	ChangeFilter  = "filter"
)

// Change describes one mutation of the model.
type Change struct {
	Kind    string `json:"kind"`
	ID      string `json:"id,omitempty"`
	Version uint64 `json:"version"`
}

// Row is a displayed entry.
type Row struct {
	domain.Item
	Markup  string `json:"markup"`
	Editing bool   `json:"editing,omitempty"`
}

// Snapshot is a consistent copy of the whole view.
type Snapshot struct {
	Version      uint64       `json:"version"`
	Rows         []Row        `json:"rows"`
	Counter      string       `json:"counter"`
	ClearButton  string       `json:"clear_button"`
	ClearVisible bool         `json:"clear_visible"`
	ToggleAll    bool         `json:"toggle_all"`
	FrameVisible bool         `json:"frame_visible"`
	Filter       domain.Route `json:"filter"`
}

// Model is a concurrency-safe ports.View.
type Model struct {
	mu    sync.RWMutex
	state Snapshot

	subMu       sync.RWMutex
	subscribers map[chan Change]struct{}
}

var _ ports.View = (*Model)(nil)

// New creates an empty model showing the "all" filter with the frame visible.
func New() *Model {
	return &Model{
		state: Snapshot{
			Rows:         []Row{},
			FrameVisible: true,
			Filter:       domain.RouteAll,
		},
		subscribers: make(map[chan Change]struct{}),
	}
}

// Snapshot returns a copy of the current state.
func (m *Model) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.state
	s.Rows = make([]Row, len(m.state.Rows))
	copy(s.Rows, m.state.Rows)
	return s
}

// Row returns the displayed row of an item.
func (m *Model) Row(id string) (Row, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.index(id); i >= 0 {
		return m.state.Rows[i], true
	}
	return Row{}, false
}

// Subscribe returns a channel of changes and a function to stop receiving.
// Slow subscribers miss changes rather than block the model.
func (m *Model) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 16)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subMu.Lock()
			defer m.subMu.Unlock()
			delete(m.subscribers, ch)
			close(ch)
		})
	}
}

func (m *Model) publish(c Change) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	for ch := range m.subscribers {
		select {
		case ch <- c:
		default:
		}
	}
}

// update applies fn under the write lock, then publishes when fn reports a change.
func (m *Model) update(kind, id string, fn func(*Snapshot) bool) bool {
	m.mu.Lock()
	changed := fn(&m.state)
	if changed {
		m.state.Version++
	}
	version := m.state.Version
	m.mu.Unlock()

	if changed {
		m.publish(Change{Kind: kind, ID: id, Version: version})
	}
	return changed
}

// index must be called with mu held.
func (m *Model) index(id string) int {
	for i, r := range m.state.Rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (m *Model) ReplaceList(rows []ports.Row) {
	m.update(ChangeList, "", func(s *Snapshot) bool {
		next := make([]Row, len(rows))
		for i, r := range rows {
			next[i] = Row{Item: r.Item, Markup: r.Markup}
		}
		s.Rows = next
		return true
	})
}

func (m *Model) UpdateRow(row ports.Row) bool {
	return m.update(ChangeRow, row.Item.ID, func(s *Snapshot) bool {
		i := m.index(row.Item.ID)
		if i < 0 {
			return false
		}
		s.Rows[i] = Row{Item: row.Item, Markup: row.Markup, Editing: s.Rows[i].Editing}
		return true
	})
}

func (m *Model) RemoveRow(id string) bool {
	return m.update(ChangeRemove, id, func(s *Snapshot) bool {
		i := m.index(id)
		if i < 0 {
			return false
		}
		s.Rows = append(s.Rows[:i:i], s.Rows[i+1:]...)
		return true
	})
}

func (m *Model) EditRow(id string) bool {
	return m.update(ChangeEdit, id, func(s *Snapshot) bool {
		i := m.index(id)
		if i < 0 {
			return false
		}
		s.Rows[i].Editing = true
		return true
	})
}

func (m *Model) EndEdit(id string) {
	m.update(ChangeEdit, id, func(s *Snapshot) bool {
		i := m.index(id)
		if i < 0 || !s.Rows[i].Editing {
			return false
		}
		s.Rows[i].Editing = false
		return true
	})
}

func (m *Model) SetCounter(markup string) {
	m.update(ChangeCounter, "", func(s *Snapshot) bool {
		if s.Counter == markup {
			return false
		}
		s.Counter = markup
		return true
	})
}

func (m *Model) SetClearButton(markup string, visible bool) {
	m.update(ChangeClear, "", func(s *Snapshot) bool {
		if s.ClearButton == markup && s.ClearVisible == visible {
			return false
		}
		s.ClearButton = markup
		s.ClearVisible = visible
		return true
	})
}

func (m *Model) SetToggleAll(checked bool) {
	m.update(ChangeToggle, "", func(s *Snapshot) bool {
		if s.ToggleAll == checked {
			return false
		}
		s.ToggleAll = checked
		return true
	})
}

func (m *Model) SetFrameVisible(visible bool) {
	m.update(ChangeFrame, "", func(s *Snapshot) bool {
		if s.FrameVisible == visible {
			return false
		}
		s.FrameVisible = visible
		return true
	})
}

func (m *Model) SelectFilter(route domain.Route) {
	m.update(ChangeFilter, string(route), func(s *Snapshot) bool {
		if s.Filter == route {
			return false
		}
		s.Filter = route
		return true
	})
}
