package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/iamsmart/masterclass/internal/ui/theme"
)

// MenuItem represents a single item in a navigation menu.
type MenuItem struct {
	Label    string
	Action   func() tea.Cmd
	Disabled bool
	// Note is shown dimmed after the label, e.g. a lock reason.
	Note string
}

// Menu is a vertical navigation menu.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu creates a new menu with the first enabled item selected.
func NewMenu(items []MenuItem) Menu {
	selected := 0
	for i, item := range items {
		if !item.Disabled {
			selected = i
			break
		}
	}
	return Menu{
		Items:    items,
		Selected: selected,
	}
}

// Select moves the cursor to i when it is in range, enabled or not.
func (m *Menu) Select(i int) {
	if i >= 0 && i < len(m.Items) {
		m.Selected = i
	}
}

// Update handles keyboard navigation. Disabled items can be highlighted
// but not activated.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Items)-1 {
			m.Selected++
		}
	case "enter":
		if m.Selected >= 0 && m.Selected < len(m.Items) {
			item := m.Items[m.Selected]
			if item.Action != nil && !item.Disabled {
				return m, item.Action()
			}
		}
	}

	return m, nil
}

// View renders the menu.
func (m Menu) View() string {
	var b strings.Builder
	for i, item := range m.Items {
		prefix := "    "
		style := theme.Unselected
		if item.Disabled {
			style = theme.Disabled
		}
		if i == m.Selected {
			prefix = "  ▸ "
			if !item.Disabled {
				style = theme.Selected
			}
		}
		b.WriteString(style.Render(prefix + item.Label))
		if item.Note != "" {
			b.WriteString("  " + theme.Hint.Render(item.Note))
		}
		b.WriteString("\n")
	}
	return b.String()
}
