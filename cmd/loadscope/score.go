package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loadscope/loadscope/pkg/surface"
)

type scoreOpts struct {
	in      loadoutFlags
	output  string
	outPath string
}

func newScoreCmd(root *rootOpts) *cobra.Command {
	opts := &scoreOpts{}

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a loadout",
		Long: `Score a loadout out of 100 and show the per-slot breakdown, the matched
playstyle and upgrade suggestions.`,
		Example: `  loadscope score -s AR=Rare -s Shotgun=Epic -s SMG=Epic -s Sniper=Common -s Heals=Uncommon
  loadscope score --loadout s3://team-loadouts/main.yaml --output json
  loadscope score --loadout loadout.toml --output xlsx --out report.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd.Context(), root, opts, cmd.OutOrStdout())
		},
	}

	opts.in.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "Output format: text, json, xlsx")
	cmd.Flags().StringVar(&opts.outPath, "out", "", "Write to a file instead of stdout (required for xlsx)")

	return cmd
}

func runScore(ctx context.Context, root *rootOpts, opts *scoreOpts, stdout io.Writer) error {
	renderer, err := surface.ForFormat(opts.output)
	if err != nil {
		return err
	}
	if surface.Format(opts.output) == surface.FormatXLSX && opts.outPath == "" {
		return fmt.Errorf("--output xlsx requires --out")
	}

	l, err := opts.in.resolve(ctx, root)
	if err != nil {
		return err
	}
	report, err := root.cfg.Engine().Evaluate(l)
	if err != nil {
		return err
	}
	root.logger.Debug("scored loadout",
		zap.Int("score", report.Score),
		zap.String("band", string(report.Band)))

	if opts.outPath == "" {
		return renderer.Render(stdout, report)
	}

	f, err := os.Create(opts.outPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := renderer.Render(f, report); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", opts.outPath)
	return nil
}
