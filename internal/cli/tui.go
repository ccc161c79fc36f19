package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/fwerkmann/stackflow/pkg/store"
)

// List styles
var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// DiagramListModel - Interactive diagram selection
// =============================================================================

// DiagramListModel is the bubbletea model for picking a stored diagram.
type DiagramListModel struct {
	Items  []store.Summary
	Cursor int
	Offset int
	Height int
	Choice string
}

// NewDiagramListModel creates a new diagram list model.
func NewDiagramListModel(items []store.Summary) DiagramListModel {
	return DiagramListModel{
		Items:  items,
		Height: 15,
	}
}

func (m DiagramListModel) Init() tea.Cmd {
	return nil
}

func (m DiagramListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.Choice = m.Items[m.Cursor].Name
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m DiagramListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Diagram"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Items) {
		end = len(m.Items)
	}

	b.WriteString(diagramTableRange(m.Items, m.Offset, end, m.Cursor))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Items))))

	return b.String()
}

// pickDiagram runs the interactive picker and returns the chosen diagram
// name. An empty name means the picker was dismissed.
func pickDiagram(items []store.Summary) (string, error) {
	p := tea.NewProgram(NewDiagramListModel(items))
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}
	fm, ok := finalModel.(DiagramListModel)
	if !ok {
		return "", nil
	}
	return fm.Choice, nil
}

// =============================================================================
// Helpers
// =============================================================================

// diagramTable renders store summaries as a bordered table. A cursor of -1
// renders every row plain, for non-interactive listings.
func diagramTable(items []store.Summary, cursor int) string {
	return diagramTableRange(items, 0, len(items), cursor)
}

func diagramTableRange(items []store.Summary, start, end, cursor int) string {
	rows := [][]string{}
	for i := start; i < end; i++ {
		s := items[i]

		marker := "  "
		if i == cursor {
			marker = "▸ "
		}

		title := s.Title
		if title == "" {
			title = "—"
		}

		rows = append(rows, []string{
			marker,
			s.Name,
			title,
			strconv.Itoa(s.NodeCount),
			strconv.Itoa(s.EdgeCount),
			formatRelativeTime(s.UpdatedAt),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Name", "Title", "Nodes", "Edges", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if start+row == cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col >= 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	return t.Render()
}

func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}

	diff := time.Since(t)
	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
