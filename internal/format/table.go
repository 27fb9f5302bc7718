package format

import (
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/inkwell-ai/inkwell/internal/store"
)

type TableFormatter struct {
	headerStyle  lipgloss.Style
	cellStyle    lipgloss.Style
	oddRowStyle  lipgloss.Style
	evenRowStyle lipgloss.Style
	borderStyle  lipgloss.Style
}

func NewTableFormatter() *TableFormatter {
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")

	return &TableFormatter{
		headerStyle: lipgloss.NewStyle().
			Foreground(purple).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 1),
		cellStyle: lipgloss.NewStyle().
			Padding(0, 1).
			Width(24),
		oddRowStyle: lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1).
			Width(24),
		evenRowStyle: lipgloss.NewStyle().
			Foreground(lightGray).
			Padding(0, 1).
			Width(24),
		borderStyle: lipgloss.NewStyle().
			Foreground(purple),
	}
}

func (f *TableFormatter) FormatSessions(sessions []store.SessionMeta) (string, error) {
	if len(sessions) == 0 {
		return "No sessions found", nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.headerStyle
			case row%2 == 0:
				return f.evenRowStyle
			default:
				return f.oddRowStyle
			}
		}).
		Headers("ID", "Title", "Story", "Status", "Updated")

	for _, s := range sessions {
		t.Row(
			s.ID,
			truncateString(s.Title, 24),
			truncateString(s.StoryID, 24),
			s.Status,
			s.UpdatedAt.Format(time.RFC3339),
		)
	}

	return t.String(), nil
}

func (f *TableFormatter) FormatSession(s *store.SessionMeta) (string, error) {
	if s == nil {
		return "No session found", nil
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return f.headerStyle
			}
			return f.cellStyle
		})

	t.Row("ID", s.ID)
	t.Row("Title", s.Title)
	t.Row("Story", s.StoryID)
	t.Row("Model", s.ModelName)
	t.Row("Status", s.Status)
	t.Row("Created", s.CreatedAt.Format(time.RFC3339))
	t.Row("Updated", s.UpdatedAt.Format(time.RFC3339))

	return t.String(), nil
}
