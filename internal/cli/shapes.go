package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forge/pkg/shapes"
)

func (c *CLI) shapesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shapes",
		Short: "List the node classifiers diagrams can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(c.Out, shapesTable(shapes.All()))
			return nil
		},
	}
}

func shapesTable(all []shapes.Shape) string {
	rows := make([][]string, len(all))
	for i, s := range all {
		rows[i] = []string{
			s.Classifier,
			s.Name,
			string(s.Category),
			fmt.Sprintf("%gx%g", s.Width, s.Height),
			s.Color,
			s.GraphvizShape,
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Classifier", "Name", "Category", "Size", "Color", "Graphviz").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return lipgloss.NewStyle().Foreground(colorCyan)
			case col == 4 && row < len(all):
				return lipgloss.NewStyle().Foreground(lipgloss.Color(all[row].Color))
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
