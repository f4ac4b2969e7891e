package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forge/pkg/config"
	"github.com/matzehuels/forge/pkg/forge"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// DocumentListModel - Interactive document selection
// =============================================================================

// pickItem is one row of the document picker.
type pickItem struct {
	Doc      forge.Document
	Modified time.Time
}

// DocumentListModel is the bubbletea model for interactive document selection.
// Tab cycles through a kind filter.
type DocumentListModel struct {
	Items    []pickItem
	Cursor   int
	Selected *forge.Document
	Height   int
	Offset   int

	filter  int // index into filters; 0 shows every kind
	filters []forge.Kind
	now     time.Time
}

// NewDocumentListModel creates a new document list model.
func NewDocumentListModel(items []pickItem, now time.Time) DocumentListModel {
	filters := []forge.Kind{""}
	seen := map[forge.Kind]bool{}
	for _, it := range items {
		if !seen[it.Doc.Kind] {
			seen[it.Doc.Kind] = true
			filters = append(filters, it.Doc.Kind)
		}
	}
	return DocumentListModel{
		Items:   items,
		Height:  15,
		filters: filters,
		now:     now,
	}
}

// visible returns the items passing the current filter.
func (m DocumentListModel) visible() []pickItem {
	k := m.filters[m.filter]
	if k == "" {
		return m.Items
	}
	var out []pickItem
	for _, it := range m.Items {
		if it.Doc.Kind == k {
			out = append(out, it)
		}
	}
	return out
}

func (m DocumentListModel) Init() tea.Cmd {
	return nil
}

func (m DocumentListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	items := m.visible()
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
			if m.Cursor < len(items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "tab":
			m.filter = (m.filter + 1) % len(m.filters)
			m.Cursor, m.Offset = 0, 0
		case "enter":
			if len(items) == 0 {
				return m, nil
			}
			doc := items[m.Cursor].Doc
			m.Selected = &doc
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m DocumentListModel) View() string {
	var b strings.Builder
	items := m.visible()

	title := "Select Document"
	if k := m.filters[m.filter]; k != "" {
		title += " · " + string(k)
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⇥ filter kind  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(items))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		it := items[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		status := "✓"
		if it.Doc.Problem != "" {
			status = "!"
		}
		rows = append(rows, []string{cursor, it.Doc.Name, string(it.Doc.Kind), status, formatRelativeTime(it.Modified, m.now), it.Doc.Path})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Name", "Kind", "OK", "Modified", "Path").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(items) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if col >= 4 {
				base = base.Foreground(colorDim)
			}
			if items[idx].Doc.Problem != "" {
				base = base.Foreground(colorYellow)
			}
			if idx == m.Cursor {
				if col < 4 {
					base = base.Foreground(colorGreen)
				}
				return base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	if len(items) == 0 {
		b.WriteString(listDimStyle.Render("  no documents"))
	} else {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(items))))
	}

	return b.String()
}

// =============================================================================
// pick
// =============================================================================

func (c *CLI) pickCommand() *cobra.Command {
	var (
		kind string
		show bool
	)

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Choose a document interactively and print its path",
		Long: `Open an interactive list of workspace documents. The chosen path is
printed to stdout, so the picker composes with other commands:

  forge diagram validate $(forge pick -k diagram)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadWorkspace()
			if err != nil {
				return err
			}
			docs, err := listDocuments(cfg, kind)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				printInfo("No documents to pick from")
				return nil
			}

			p := tea.NewProgram(NewDocumentListModel(pickItems(cfg, docs), time.Now()), tea.WithOutput(os.Stderr))
			final, err := p.Run()
			if err != nil {
				return err
			}
			m, ok := final.(DocumentListModel)
			if !ok || m.Selected == nil {
				return nil
			}
			if !show {
				_, err := fmt.Fprintln(c.Out, m.Selected.Path)
				return err
			}
			_, content, err := readDocument(cfg, m.Selected.Path)
			if err != nil {
				return err
			}
			out, err := renderMarkdown(content, 0)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(c.Out, out)
			return err
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "only offer documents of this kind")
	cmd.Flags().BoolVar(&show, "show", false, "render the chosen document instead of printing its path")
	return cmd
}

func pickItems(cfg config.Config, docs []forge.Document) []pickItem {
	items := make([]pickItem, len(docs))
	for i, d := range docs {
		items[i].Doc = d
		if info, err := os.Stat(filepath.Join(cfg.Root, filepath.FromSlash(d.Path))); err == nil {
			items[i].Modified = info.ModTime()
		}
	}
	return items
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
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
