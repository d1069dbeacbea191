package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSuggestCmd(root *rootOpts) *cobra.Command {
	var in loadoutFlags

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest upgrades for the weakest slots",
		Long: `Suggest upgrades for the lowest-rarity slots of a complete loadout.
Every category must be assigned; use None for an empty slot.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := in.resolve(cmd.Context(), root)
			if err != nil {
				return err
			}
			text, err := root.cfg.Engine().Suggest(l)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	in.register(cmd)
	return cmd
}
