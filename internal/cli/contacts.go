package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/boardviz/pkg/board"
)

// contactsCommand creates the contacts command listing the board layout.
func (c *CLI) contactsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "contacts",
		Short: "List contacts with their tiles and layout positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			g, err := newGraph(cfg, loggerFromContext(cmd.Context()))
			if err != nil {
				return err
			}
			printContacts(cmd.OutOrStdout(), g)
			return nil
		},
	}
}

// printContacts writes the contact table for g.
func printContacts(w io.Writer, g *board.Graph) {
	rows := [][]string{}
	for _, c := range g.Contacts() {
		rows = append(rows, []string{
			c.ID,
			fmt.Sprintf("(%d, %d)", c.Tile.X, c.Tile.Y),
			formatCoord(c.Pos.X),
			formatCoord(c.Pos.Y),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Contact", "Tile", "X", "Y").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == -1:
				return base.Inherit(styleHeader)
			case col == 0:
				return base.Inherit(StyleHighlight)
			default:
				return base.Inherit(StyleValue)
			}
		})

	fmt.Fprintln(w, StyleTitle.Render(boardTitle))
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("%d×%d grid on a %s square", g.GridSize(), g.GridSize(), formatCoord(g.CoordSize()))))
	fmt.Fprintln(w, t.Render())
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
