package main

import (
	"github.com/spf13/cobra"

	"github.com/loadscope/loadscope/pkg/surface"
)

func newStrategyCmd(root *rootOpts) *cobra.Command {
	var (
		in      loadoutFlags
		ranking bool
	)

	cmd := &cobra.Command{
		Use:   "strategy",
		Short: "Match a loadout against the known playstyles",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := in.resolve(cmd.Context(), root)
			if err != nil {
				return err
			}
			result := root.cfg.Engine().Matcher().Match(l)
			return (&surface.TerminalRenderer{}).RenderStrategy(cmd.OutOrStdout(), result, ranking)
		},
	}

	in.register(cmd)
	cmd.Flags().BoolVar(&ranking, "ranking", true, "Show the similarity to every playstyle")

	return cmd
}
