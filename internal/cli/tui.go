package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/portlayout/pkg/graph"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// Rank summaries
// =============================================================================

// vertexRow is one vertex of a rank with its ports split by side.
type vertexRow struct {
	ID     string
	Label  string
	X      float64
	Width  float64
	Top    []string
	Bottom []string
}

// rankRows lists the vertices of rank r from left to right.
func rankRows(d *graph.Drawing, r int) []vertexRow {
	if r < 0 || r >= len(d.Ranks) {
		return nil
	}
	rows := make([]vertexRow, 0, len(d.Ranks[r]))
	byVertex := map[string][]graph.PortShape{}
	for _, p := range d.Ports {
		byVertex[p.Vertex] = append(byVertex[p.Vertex], p)
	}
	for _, id := range d.Ranks[r] {
		v, ok := d.Vertex(id)
		if !ok {
			continue
		}
		row := vertexRow{ID: id, Label: v.Label, X: v.Rect.X, Width: v.Rect.W}
		mid := v.Rect.Y + v.Rect.H/2
		for _, p := range byVertex[id] {
			if p.Rect.Y+p.Rect.H/2 < mid {
				row.Top = append(row.Top, p.ID)
			} else {
				row.Bottom = append(row.Bottom, p.ID)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func joinOrDash(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, " ")
}

// =============================================================================
// InspectModel - Interactive rank browser
// =============================================================================

// InspectModel is the bubbletea model of the inspect command. The upper
// table lists the ranks, the lower one the vertices of the selected rank.
type InspectModel struct {
	Title   string
	Drawing graph.Drawing
	Cursor  int
	Height  int
	Offset  int
}

// NewInspectModel creates a model showing d.
func NewInspectModel(title string, d graph.Drawing) InspectModel {
	return InspectModel{Title: title, Drawing: d, Height: 8}
}

func (m InspectModel) Init() tea.Cmd {
	return nil
}

func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Drawing.Ranks)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = max(len(m.Drawing.Ranks)-1, 0)
			m.Offset = max(m.Cursor-m.Height+1, 0)
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height/3, 3)
	}
	return m, nil
}

func (m InspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%.0f×%.0f · %d ranks · %d crossings",
		m.Drawing.Width, m.Drawing.Height, len(m.Drawing.Ranks), m.Drawing.Crossings)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ select rank  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(m.Drawing.Ranks) == 0 {
		b.WriteString(listDimStyle.Render("  no ranks"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Drawing.Ranks))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, fmt.Sprint(i), fmt.Sprint(len(m.Drawing.Ranks[i])), strings.Join(m.Drawing.Ranks[i], " ")})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	ranks := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Rank", "Size", "Vertices").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
	b.WriteString(ranks.Render())
	b.WriteString("\n\n")

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Rank %d", m.Cursor)))
	b.WriteString("\n")
	b.WriteString(renderRankTable(rankRows(&m.Drawing, m.Cursor)))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Drawing.Ranks))))

	return b.String()
}

// renderRankTable draws the vertices of one rank.
func renderRankTable(rows []vertexRow) string {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = []string{r.ID, r.Label, fmt.Sprintf("%.1f", r.X), fmt.Sprintf("%.1f", r.Width), joinOrDash(r.Top), joinOrDash(r.Bottom)}
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Vertex", "Label", "X", "Width", "Top ports", "Bottom ports").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col >= 4:
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}
