package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/loadscope/loadscope/pkg/advisor"
	"github.com/loadscope/loadscope/pkg/loadout"
	"github.com/loadscope/loadscope/pkg/scoring"
	"github.com/loadscope/loadscope/pkg/textgen"
)

type askOpts struct {
	in      loadoutFlags
	score   int
	offline bool
	json    bool
}

func newAskCmd(root *rootOpts) *cobra.Command {
	opts := &askOpts{}

	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask a question about a loadout",
		Long: `Answer a free-form question about a complete loadout. When a text
generation backend is configured it writes the answer; otherwise, or when
the backend fails, a canned answer is picked from the question's keywords.`,
		Example: `  loadscope ask -l loadout.yaml "how good is my sniper?"
  loadscope ask -l loadout.yaml --offline what should I upgrade`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), root, opts, strings.Join(args, " "), cmd.OutOrStdout())
		},
	}

	opts.in.register(cmd)
	cmd.Flags().IntVar(&opts.score, "score", computeScore, "Score to discuss, 0-100 (default: computed from the loadout)")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Never call the text generation backend")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the answer with its metadata as JSON")

	return cmd
}

// computeScore is the --score value that asks for the loadout's own score.
const computeScore = -1

func runAsk(ctx context.Context, root *rootOpts, opts *askOpts, query string, stdout io.Writer) error {
	if opts.score != computeScore && (opts.score < 0 || opts.score > 100) {
		return fmt.Errorf("%w: --score must be within [0,100], got %d", loadout.ErrInvalidInput, opts.score)
	}

	l, err := opts.in.resolve(ctx, root)
	if err != nil {
		return err
	}

	score := opts.score
	if score == computeScore {
		score = scoring.Score(l)
	}

	var gen textgen.Generator
	if !opts.offline {
		gen, err = textgen.NewFromOptions(ctx, root.cfg.TextGenOptions())
		if err != nil {
			return fmt.Errorf("text generation: %w", err)
		}
	}
	if gen == nil {
		root.logger.Debug("no text generation backend, answering locally")
	}

	dispatcher := advisor.New(root.cfg.Advisor(gen, root.logger))
	ans, err := dispatcher.Ask(ctx, l, query, score)
	if err != nil {
		return err
	}
	root.logger.Debug("answered",
		zap.String("rule", string(ans.Rule)),
		zap.String("source", string(ans.Source)))

	if opts.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ans)
	}
	fmt.Fprintln(stdout, ans.Text)
	return nil
}
