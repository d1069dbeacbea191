package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loadscope/loadscope/internal/source"
	"github.com/loadscope/loadscope/pkg/loadout"
)

// loadoutFlags are the input flags shared by every command that takes a
// loadout: a document location plus per-slot overrides.
type loadoutFlags struct {
	location string
	slots    []string
}

func (f *loadoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.location, "loadout", "l", "", "Loadout file (YAML, JSON or TOML); local path, s3://bucket/key or gs://bucket/object")
	cmd.Flags().StringArrayVarP(&f.slots, "slot", "s", nil, "Slot assignment Category=Rarity (repeatable, applied over --loadout)")
}

// resolve reads the loadout document, if any, and applies the slot flags.
func (f *loadoutFlags) resolve(ctx context.Context, root *rootOpts) (loadout.Loadout, error) {
	if f.location == "" && len(f.slots) == 0 {
		return loadout.Loadout{}, fmt.Errorf("%w: pass --loadout or at least one --slot", loadout.ErrInvalidInput)
	}

	var l loadout.Loadout
	if f.location != "" {
		router := source.NewRouter(root.cfg.Source.S3)
		defer func() { _ = router.Close() }()

		var err error
		l, err = source.Load(ctx, router, f.location)
		if err != nil {
			return loadout.Loadout{}, err
		}
		root.logger.Debug("loaded loadout",
			zap.String("location", f.location),
			zap.Int("slots", l.Len()))
	}

	overrides, err := loadout.ParseAssignments(f.slots)
	if err != nil {
		return loadout.Loadout{}, err
	}
	for _, s := range overrides {
		if l, err = l.With(s.Category, s.Rarity); err != nil {
			return loadout.Loadout{}, err
		}
	}
	return l, nil
}
