package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/reposgraph/pkg/graph"
	"github.com/matzehuels/reposgraph/pkg/render"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// ExploreModel - Interactive graph browser
// =============================================================================

// exploreLevel is one screen of the browser: a list of repositories and the
// cursor position within it.
type exploreLevel struct {
	title  string
	items  []string
	cursor int
	offset int
}

// ExploreModel is the bubbletea model for browsing a crawled graph.
// The top level lists every repository; enter drills into the dependencies
// of the selected one and backspace returns to the previous list.
type ExploreModel struct {
	Height int

	g          *graph.Graph
	opts       render.Options
	dependents map[string]int
	stack      []exploreLevel
}

// NewExploreModel creates a browser over g, labelling nodes with opts.
func NewExploreModel(g *graph.Graph, opts render.Options) ExploreModel {
	dependents := make(map[string]int)
	for _, e := range g.Edges() {
		dependents[e.To]++
	}
	return ExploreModel{
		Height:     15,
		g:          g,
		opts:       opts,
		dependents: dependents,
		stack:      []exploreLevel{{title: "Repositories", items: g.Nodes()}},
	}
}

func (m ExploreModel) Init() tea.Cmd {
	return nil
}

func (m ExploreModel) current() *exploreLevel {
	return &m.stack[len(m.stack)-1]
}

// Selected returns the repository under the cursor, or "" for an empty list.
func (m ExploreModel) Selected() string {
	lvl := m.current()
	if len(lvl.items) == 0 {
		return ""
	}
	return lvl.items[lvl.cursor]
}

// Depth returns the number of drill-downs from the top-level list.
func (m ExploreModel) Depth() int {
	return len(m.stack) - 1
}

// breadcrumb joins the titles of every level above the current one.
func (m ExploreModel) breadcrumb() string {
	titles := make([]string, 0, m.Depth())
	for _, lvl := range m.stack[:m.Depth()] {
		titles = append(titles, lvl.title)
	}
	return strings.Join(titles, " › ")
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		lvl := m.current()
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if lvl.cursor > 0 {
				lvl.cursor--
				if lvl.cursor < lvl.offset {
					lvl.offset = lvl.cursor
				}
			}
		case "down", "j":
			if lvl.cursor < len(lvl.items)-1 {
				lvl.cursor++
				if lvl.cursor >= lvl.offset+m.Height {
					lvl.offset = lvl.cursor - m.Height + 1
				}
			}
		case "enter":
			sel := m.Selected()
			targets := m.g.Targets(sel)
			if len(targets) == 0 {
				return m, nil
			}
			stack := make([]exploreLevel, len(m.stack), len(m.stack)+1)
			copy(stack, m.stack)
			m.stack = append(stack, exploreLevel{title: m.opts.Label(sel), items: targets})
		case "backspace", "left", "h":
			if len(m.stack) > 1 {
				m.stack = m.stack[:len(m.stack)-1]
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m ExploreModel) View() string {
	var b strings.Builder
	lvl := m.current()

	b.WriteString(StyleTitle.Render(lvl.title))
	if m.Depth() > 0 {
		b.WriteString(listDimStyle.Render("  " + m.breadcrumb()))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ dependencies  ⌫ back  q quit"))
	b.WriteString("\n\n")

	end := min(lvl.offset+m.Height, len(lvl.items))

	rows := [][]string{}
	for i := lvl.offset; i < end; i++ {
		id := lvl.items[i]
		cursor := "  "
		if i == lvl.cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			m.opts.Label(id),
			strconv.Itoa(len(m.g.Targets(id))),
			strconv.Itoa(m.dependents[id]),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Repository", "Deps", "Dependents").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := lvl.offset + row
			if idx >= len(lvl.items) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if col >= 2 {
				base = base.Foreground(colorGray)
			}
			if idx == lvl.cursor {
				return base.Foreground(colorGreen).Bold(true)
			}
			if len(m.g.Targets(lvl.items[idx])) == 0 {
				return base.Foreground(colorDim)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	pos := 0
	if len(lvl.items) > 0 {
		pos = lvl.cursor + 1
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", pos, len(lvl.items))))

	return b.String()
}

// runExplorer opens the graph browser on stderr and blocks until it exits.
func runExplorer(g *graph.Graph, opts render.Options) error {
	_, err := tea.NewProgram(NewExploreModel(g, opts), tea.WithOutput(os.Stderr)).Run()
	return err
}
