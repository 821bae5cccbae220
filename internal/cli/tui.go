package cli

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// errNoSelection is returned when the user quits a picker.
var errNoSelection = errors.New("nothing selected")

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// pickItem is one choice in a picker. Detail is shown in a second column.
type pickItem struct {
	Label  string
	Detail string
}

// =============================================================================
// PickerModel - Interactive selection with type-to-filter
// =============================================================================

// PickerModel is the bubbletea model for choosing a package, class or
// method. Typing narrows the list to items containing the typed text.
type PickerModel struct {
	Title    string
	Items    []pickItem
	Cursor   int
	Offset   int
	Height   int
	Filter   string
	Selected *pickItem

	visible []int
}

// NewPickerModel creates a picker over items.
func NewPickerModel(title string, items []pickItem) PickerModel {
	m := PickerModel{Title: title, Items: items, Height: 15}
	m.applyFilter()
	return m
}

func (m *PickerModel) applyFilter() {
	needle := strings.ToLower(m.Filter)
	visible := make([]int, 0, len(m.Items))
	for i, it := range m.Items {
		if needle == "" || strings.Contains(strings.ToLower(it.Label), needle) {
			visible = append(visible, i)
		}
	}
	m.visible = visible
	m.Cursor, m.Offset = 0, 0
}

func (m PickerModel) Init() tea.Cmd {
	return nil
}

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case tea.KeyDown:
			if m.Cursor < len(m.visible)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case tea.KeyEnter:
			if len(m.visible) == 0 {
				return m, nil
			}
			it := m.Items[m.visible[m.Cursor]]
			m.Selected = &it
			return m, tea.Quit
		case tea.KeyBackspace:
			if m.Filter != "" {
				m.Filter = m.Filter[:len(m.Filter)-1]
				m.applyFilter()
			}
		case tea.KeyRunes:
			m.Filter += string(msg.Runes)
			m.applyFilter()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m PickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  type to filter  esc quit"))
	b.WriteString("\n")
	if m.Filter != "" {
		b.WriteString(listNormalStyle.Render("filter: " + m.Filter))
	}
	b.WriteString("\n")

	if len(m.visible) == 0 {
		b.WriteString(listDimStyle.Render("  no matches"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.visible))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		it := m.Items[m.visible[i]]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, it.Label, it.Detail})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col == 2 {
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.visible))))
	return b.String()
}

// pick runs a picker over plain labels.
func pick(title string, labels []string) (string, error) {
	items := make([]pickItem, len(labels))
	for i, l := range labels {
		items[i] = pickItem{Label: l}
	}
	it, err := pickDetailed(title, items)
	if err != nil {
		return "", err
	}
	return it.Label, nil
}

// pickDetailed runs a picker and returns the chosen item.
func pickDetailed(title string, items []pickItem) (pickItem, error) {
	final, err := tea.NewProgram(NewPickerModel(title, items)).Run()
	if err != nil {
		return pickItem{}, fmt.Errorf("picker: %w", err)
	}
	m, ok := final.(PickerModel)
	if !ok || m.Selected == nil {
		return pickItem{}, errNoSelection
	}
	return *m.Selected, nil
}
