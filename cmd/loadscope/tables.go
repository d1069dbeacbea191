package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loadscope/loadscope/pkg/loadout"
	"github.com/loadscope/loadscope/pkg/surface"
)

func newTablesCmd(root *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Print the rarity and category tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if err := (&surface.TerminalRenderer{}).RenderRarityTable(w); err != nil {
				return err
			}

			names := make([]string, 0, len(loadout.AllCategories()))
			for _, c := range loadout.AllCategories() {
				names = append(names, string(c))
			}
			fmt.Fprintf(w, "\nCategories: %s\n", strings.Join(names, ", "))

			m := root.cfg.Engine().Matcher()
			fmt.Fprintf(w, "Playstyles (match at %.0f%% similarity):\n", m.Threshold*100)
			for _, a := range m.Archetypes {
				fmt.Fprintf(w, "  %s\n", a.Name)
			}
			return nil
		},
	}
}
