package listview

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultHeight is the viewport height used until a size is set.
const DefaultHeight = 20

// RenderFunc renders a single item. selected reports whether the row holds
// the cursor.
type RenderFunc[T any] func(item T, selected bool) string

// KeyFunc returns the stable identity of an item.
type KeyFunc[T any] func(item T) string

// Model is a viewport over a slice of items with a single selected row.
type Model[T any] struct {
	items  []T
	key    KeyFunc[T]
	render RenderFunc[T]

	selected int
	offset   int
	height   int
	width    int
}

// New creates an empty list. key may be nil, in which case selection is kept
// by index when items are replaced.
func New[T any](key KeyFunc[T], render RenderFunc[T]) *Model[T] {
	return &Model[T]{
		key:    key,
		render: render,
		height: DefaultHeight,
	}
}

// Init implements tea.Model.
func (m *Model[T]) Init() tea.Cmd {
	return nil
}

// Update handles navigation keys and resizes.
func (m *Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	}
	return m, nil
}

//nolint:exhaustive // Only navigation keys are handled.
func (m *Model[T]) handleKey(msg tea.KeyMsg) {
	if len(m.items) == 0 {
		return
	}

	switch msg.Type {
	case tea.KeyUp:
		m.move(-1)
	case tea.KeyDown:
		m.move(1)
	case tea.KeyPgUp:
		m.move(-m.height)
	case tea.KeyPgDown:
		m.move(m.height)
	case tea.KeyHome:
		m.Select(0)
	case tea.KeyEnd:
		m.Select(len(m.items) - 1)
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "j":
			m.move(1)
		case "k":
			m.move(-1)
		}
	default:
	}
}

func (m *Model[T]) move(delta int) {
	m.Select(m.selected + delta)
}

// SetItems replaces the list contents. When a key func is set and the
// previously selected item is still present, the cursor stays on it.
func (m *Model[T]) SetItems(items []T) {
	var current string
	hadSelection := m.key != nil && m.selected < len(m.items)
	if hadSelection {
		current = m.key(m.items[m.selected])
	}

	m.items = items
	if hadSelection {
		for i, it := range items {
			if m.key(it) == current {
				m.Select(i)
				return
			}
		}
	}
	m.Select(m.selected)
}

// Items returns the current items.
func (m *Model[T]) Items() []T {
	return m.items
}

// Select moves the cursor to index, clamped to the list bounds, and scrolls
// the viewport so the cursor stays visible.
func (m *Model[T]) Select(index int) {
	switch {
	case len(m.items) == 0:
		m.selected = 0
	case index < 0:
		m.selected = 0
	case index >= len(m.items):
		m.selected = len(m.items) - 1
	default:
		m.selected = index
	}
	m.scroll()
}

func (m *Model[T]) scroll() {
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+m.height {
		m.offset = m.selected - m.height + 1
	}
	if maxOffset := len(m.items) - m.height; m.offset > maxOffset {
		m.offset = max(maxOffset, 0)
	}
}

// SetSize sets the viewport dimensions. Heights below one row are raised to one.
func (m *Model[T]) SetSize(width, height int) {
	m.width = width
	m.height = max(height, 1)
	m.scroll()
}

// View renders the rows inside the viewport, one per line.
func (m *Model[T]) View() string {
	if len(m.items) == 0 {
		return ""
	}

	end := min(m.offset+m.height, len(m.items))
	var b strings.Builder
	for i := m.offset; i < end; i++ {
		if i > m.offset {
			b.WriteByte('\n')
		}
		b.WriteString(m.render(m.items[i], i == m.selected))
	}
	return b.String()
}

// Len returns the number of items.
func (m *Model[T]) Len() int {
	return len(m.items)
}

// Selected returns the cursor index.
func (m *Model[T]) Selected() int {
	return m.selected
}

// Offset returns the index of the first visible row.
func (m *Model[T]) Offset() int {
	return m.offset
}

// Height returns the viewport height.
func (m *Model[T]) Height() int {
	return m.height
}

// SelectedItem returns the item under the cursor, or nil for an empty list.
func (m *Model[T]) SelectedItem() *T {
	if m.selected >= len(m.items) {
		return nil
	}
	return &m.items[m.selected]
}
