// Package advisor answers free-text questions about a loadout.
//
// A Dispatcher routes each query through a fixed keyword priority
// (category, score, improve, strategy, default) to a canned answer built
// from the scoring engine. When a text generator is configured it is tried
// first; any failure falls back to the canned answer for the same input.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/loadscope/loadscope/pkg/loadout"
	"github.com/loadscope/loadscope/pkg/scoring"
	"github.com/loadscope/loadscope/pkg/textgen"
)

// Source records where an answer came from.
type Source string

const (
	SourceRules     Source = "rules"
	SourceGenerator Source = "generator"
)

// Answer is the dispatcher's reply to one query.
type Answer struct {
	Text     string           `json:"text"`
	Source   Source           `json:"source"`
	Rule     Rule             `json:"rule"` // branch of the canned path, set even when generated
	Category loadout.Category `json:"category,omitempty"`
	Backend  string           `json:"backend,omitempty"`
}

// Config configures a Dispatcher. The zero value answers from rules only.
type Config struct {
	// Generator is optional; nil means the service is unavailable.
	Generator   textgen.Generator
	Model       string
	MaxTokens   int
	Temperature float64

	// Engine supplies thresholds and archetypes; nil selects the defaults.
	Engine *scoring.Engine
	Logger *zap.Logger
}

// DefaultConfig returns a rules-only configuration with the default
// completion parameters.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   150,
		Temperature: 0.7,
	}
}

// Dispatcher answers queries. Safe for concurrent use if its Generator is.
type Dispatcher struct {
	cfg    Config
	engine *scoring.Engine
	logger *zap.Logger
}

// New creates a dispatcher.
func New(cfg Config) *Dispatcher {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	engine := cfg.Engine
	if engine == nil {
		engine = scoring.DefaultEngine()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{cfg: cfg, engine: engine, logger: logger}
}

// HasGenerator reports whether a text generator is configured.
func (d *Dispatcher) HasGenerator() bool { return d.cfg.Generator != nil }

// Ask answers query for a complete loadout with the given precomputed
// score. The only errors are input errors (ErrInvalidInput); generator
// failures are logged and replaced by the canned answer.
func (d *Dispatcher) Ask(ctx context.Context, l loadout.Loadout, query string, score int) (Answer, error) {
	if err := validate(l, score); err != nil {
		return Answer{}, err
	}

	local, err := d.answer(l, query, score)
	if err != nil {
		return Answer{}, err
	}
	if d.cfg.Generator == nil {
		return local, nil
	}

	start := time.Now()
	text, err := d.cfg.Generator.Generate(ctx, textgen.Request{
		Model:       d.cfg.Model,
		Prompt:      d.prompt(l, query, score),
		MaxTokens:   d.cfg.MaxTokens,
		Temperature: d.cfg.Temperature,
	})
	if err != nil {
		d.logger.Warn("text generation failed, using canned answer",
			zap.String("backend", d.cfg.Generator.Name()),
			zap.String("rule", string(local.Rule)),
			zap.Error(err))
		return local, nil
	}
	d.logger.Debug("text generation answered",
		zap.String("backend", d.cfg.Generator.Name()),
		zap.Duration("latency", time.Since(start)))

	local.Text = text
	local.Source = SourceGenerator
	local.Backend = d.cfg.Generator.Name()
	return local, nil
}

// Answer returns the canned answer without consulting the generator.
func (d *Dispatcher) Answer(l loadout.Loadout, query string, score int) (Answer, error) {
	if err := validate(l, score); err != nil {
		return Answer{}, err
	}
	return d.answer(l, query, score)
}

func validate(l loadout.Loadout, score int) error {
	if err := l.RequireComplete(); err != nil {
		return fmt.Errorf("ask: %w", err)
	}
	if score < 0 || score > 100 {
		return fmt.Errorf("ask: %w: score %d outside [0,100]", loadout.ErrInvalidInput, score)
	}
	return nil
}

func (d *Dispatcher) answer(l loadout.Loadout, query string, score int) (Answer, error) {
	rule, category := classify(query)
	ans := Answer{Source: SourceRules, Rule: rule, Category: category}

	switch rule {
	case RuleCategory:
		r, _ := l.Get(category)
		ans.Text = categoryAnswer(category, r)

	case RuleScore:
		ans.Text = scoreAnswer(d.engine.Thresholds().Band(score), score)

	case RuleImprove:
		text, err := d.engine.Suggest(l)
		if err != nil {
			return Answer{}, err
		}
		ans.Text = text

	case RuleStrategy:
		ans.Text = d.engine.Matcher().Match(l).Message + "\n" + scoreLine(score)

	default:
		text, err := d.engine.Suggest(l)
		if err != nil {
			return Answer{}, err
		}
		ans.Text = strings.Join([]string{scoreLine(score), text, MoreQuestionsPrompt}, "\n")
	}
	return ans, nil
}
