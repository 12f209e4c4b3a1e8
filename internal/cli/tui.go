package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/jzagalv/ssaa-designer/pkg/validate"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// IssueListModel is the bubbletea model for the interactive issue browser.
// It renders a scrollable table of findings and supports filtering by
// severity.
type IssueListModel struct {
	Entries []issueEntry
	Cursor  int
	Height  int
	Offset  int

	// filter narrows the list to one severity; empty shows everything.
	filter validate.Level
}

// NewIssueListModel creates a new issue list model.
func NewIssueListModel(entries []issueEntry) IssueListModel {
	return IssueListModel{
		Entries: entries,
		Height:  15,
	}
}

func (m IssueListModel) Init() tea.Cmd {
	return nil
}

func (m IssueListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.visible())-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "e":
			m = m.setFilter(validate.LevelError)
		case "w":
			m = m.setFilter(validate.LevelWarn)
		case "i":
			m = m.setFilter(validate.LevelInfo)
		case "a":
			m = m.setFilter("")
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m IssueListModel) setFilter(level validate.Level) IssueListModel {
	if m.filter == level {
		level = ""
	}
	m.filter = level
	m.Cursor = 0
	m.Offset = 0
	return m
}

// visible returns the entries matching the active severity filter.
func (m IssueListModel) visible() []issueEntry {
	if m.filter == "" {
		return m.Entries
	}
	var out []issueEntry
	for _, e := range m.Entries {
		if e.Issue.Level == m.filter {
			out = append(out, e)
		}
	}
	return out
}

func (m IssueListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Issues"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  e/w/i filter  a all  q quit"))
	b.WriteString("\n\n")

	entries := m.visible()
	if len(entries) == 0 {
		b.WriteString(listDimStyle.Render("  nothing matches the filter"))
		return b.String()
	}

	end := m.Offset + m.Height
	if end > len(entries) {
		end = len(entries)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		e := entries[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		loc := e.Issue.NodeID
		if loc == "" {
			loc = e.Issue.EdgeID
		}
		rows = append(rows, []string{cursor, e.Layer, string(e.Issue.Level), string(e.Issue.Code), loc, e.Issue.Message})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Layer", "Level", "Code", "Where", "Message").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			actualIdx := m.Offset + row
			if actualIdx >= len(entries) {
				return lipgloss.NewStyle()
			}
			base := levelStyle(entries[actualIdx].Issue.Level)
			if actualIdx == m.Cursor {
				return base.Bold(true)
			}
			if col != 2 {
				return lipgloss.NewStyle().Foreground(colorWhite)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(entries))))
	if m.filter != "" {
		b.WriteString(listDimStyle.Render("  filter: " + string(m.filter)))
	}

	return b.String()
}
