package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/portlayout/pkg/graph"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "inspect <layout>",
		Short: "Browse the ranks of a layout",
		Long: `Browse the ranks of a layout in the terminal: the vertex order of every
rank and, for the selected rank, each vertex's position and the ports on its
top and bottom side.

With --plain every rank is printed once, without interaction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := graph.ReadDrawingFile(args[0])
			if err != nil {
				return fmt.Errorf("load layout %s: %w", args[0], err)
			}
			if plain {
				out := cmd.OutOrStdout()
				for r := range d.Ranks {
					fmt.Fprintf(out, "%s\n%s\n", StyleTitle.Render(fmt.Sprintf("Rank %d", r)), renderRankTable(rankRows(&d, r)))
				}
				return nil
			}
			_, err = tea.NewProgram(NewInspectModel(args[0], d), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print all ranks and exit")

	return cmd
}
