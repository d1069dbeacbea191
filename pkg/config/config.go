// Package config handles loading and managing Loadscope configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/loadscope/loadscope/pkg/advisor"
	"github.com/loadscope/loadscope/pkg/archetype"
	"github.com/loadscope/loadscope/pkg/scoring"
	"github.com/loadscope/loadscope/pkg/textgen"
)

// Config is the top-level configuration for Loadscope.
type Config struct {
	TextGen TextGenConfig `yaml:"textgen"`
	Scoring ScoringConfig `yaml:"scoring"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Source  SourceConfig  `yaml:"source"`
}

// TextGenConfig selects the optional text generation backend.
type TextGenConfig struct {
	// Provider is one of auto, none, openai, gemini, ollama. "auto" picks
	// whichever provider has an API key in the environment.
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Timeout     int     `yaml:"timeout"` // seconds
	RateLimit   float64 `yaml:"rate_limit"`
	Burst       int     `yaml:"burst"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// ScoringConfig controls scoring behavior.
type ScoringConfig struct {
	Excellent    int     `yaml:"excellent"`
	Solid        int     `yaml:"solid"`
	Average      int     `yaml:"average"`
	UpgradeCount int     `yaml:"upgrade_count"`
	Similarity   float64 `yaml:"similarity"`

	// Archetypes replaces the built-in table when non-empty.
	Archetypes []archetype.Archetype `yaml:"archetypes"`
}

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	Port           string   `yaml:"port"`
	APIKey         string   `yaml:"api_key"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	CacheSize      int      `yaml:"cache_size"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// SourceConfig configures loadout sources.
type SourceConfig struct {
	// LocalDir is the only directory the HTTP service reads local
	// locations from. Empty disables local locations in the service; the
	// CLI ignores it.
	LocalDir string   `yaml:"local_dir"`
	S3       S3Config `yaml:"s3"`
}

// S3Config configures the S3 loadout source. Empty credentials select the
// default AWS credential chain.
type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	t := scoring.DefaultThresholds()
	return &Config{
		TextGen: TextGenConfig{
			Provider:    "auto",
			Timeout:     15,
			Burst:       1,
			MaxTokens:   150,
			Temperature: 0.7,
		},
		Scoring: ScoringConfig{
			Excellent:    t.Excellent,
			Solid:        t.Solid,
			Average:      t.Average,
			UpgradeCount: t.UpgradeCount,
			Similarity:   t.Similarity,
		},
		Server: ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"*"},
			CacheSize:      512,
		},
		Log: LogConfig{
			Level: "info",
		},
		Source: SourceConfig{
			S3: S3Config{Region: "us-east-1"},
		},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// FindConfigFile looks for .loadscope/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".loadscope", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// ApplyEnv overrides fields from environment variables and resolves the
// "auto" provider.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("LOADSCOPE_TEXTGEN_PROVIDER"); v != "" {
		c.TextGen.Provider = v
	}
	if v := os.Getenv("LOADSCOPE_TEXTGEN_MODEL"); v != "" {
		c.TextGen.Model = v
	}
	if v := os.Getenv("LOADSCOPE_TEXTGEN_API_KEY"); v != "" {
		c.TextGen.APIKey = v
	}
	if v := os.Getenv("LOADSCOPE_TEXTGEN_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("LOADSCOPE_TEXTGEN_RATE_LIMIT: %w", err)
		}
		c.TextGen.RateLimit = f
	}
	if v := os.Getenv("LOADSCOPE_API_KEY"); v != "" {
		c.Server.APIKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("LOADSCOPE_SOURCE_LOCAL_DIR"); v != "" {
		c.Source.LocalDir = v
	}
	if v := os.Getenv("LOADSCOPE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	openaiKey := os.Getenv("OPENAI_API_KEY")
	geminiKey := os.Getenv("GEMINI_API_KEY")

	provider := strings.ToLower(strings.TrimSpace(c.TextGen.Provider))
	if provider == "auto" || provider == "" {
		switch {
		case c.TextGen.APIKey != "" || openaiKey != "":
			provider = textgen.ProviderOpenAI
		case geminiKey != "":
			provider = textgen.ProviderGemini
		default:
			provider = textgen.ProviderNone
		}
	}
	c.TextGen.Provider = provider

	if c.TextGen.APIKey == "" {
		switch provider {
		case textgen.ProviderOpenAI:
			c.TextGen.APIKey = openaiKey
		case textgen.ProviderGemini:
			c.TextGen.APIKey = geminiKey
		}
	}
	return nil
}

// Validate rejects out-of-range values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.TextGen.Provider) {
	case "auto", "", textgen.ProviderNone, textgen.ProviderOpenAI, textgen.ProviderGemini, textgen.ProviderOllama:
	default:
		return fmt.Errorf("textgen.provider: unknown provider %q", c.TextGen.Provider)
	}
	if c.TextGen.Timeout < 0 {
		return fmt.Errorf("textgen.timeout must be non-negative, got %d", c.TextGen.Timeout)
	}
	if c.TextGen.RateLimit < 0 {
		return fmt.Errorf("textgen.rate_limit must be non-negative, got %g", c.TextGen.RateLimit)
	}
	if c.TextGen.Temperature < 0 || c.TextGen.Temperature > 2 {
		return fmt.Errorf("textgen.temperature must be within [0,2], got %g", c.TextGen.Temperature)
	}
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	for i, a := range c.Scoring.Archetypes {
		if a.Name == "" {
			return fmt.Errorf("scoring.archetypes[%d]: name is required", i)
		}
		for cat, tier := range a.Targets {
			if !cat.Valid() {
				return fmt.Errorf("scoring.archetypes[%d]: unknown category %q", i, cat)
			}
			if tier < 0 || tier > 5 {
				return fmt.Errorf("scoring.archetypes[%d]: tier for %s must be within [0,5], got %d", i, cat, tier)
			}
		}
	}
	if c.Server.CacheSize < 0 {
		return fmt.Errorf("server.cache_size must be non-negative, got %d", c.Server.CacheSize)
	}
	return nil
}

// Thresholds returns the scoring cut-offs.
func (c *Config) Thresholds() scoring.Thresholds {
	return scoring.Thresholds{
		Excellent:    c.Scoring.Excellent,
		Solid:        c.Scoring.Solid,
		Average:      c.Scoring.Average,
		UpgradeCount: c.Scoring.UpgradeCount,
		Similarity:   c.Scoring.Similarity,
	}
}

// Engine builds a scoring engine from the scoring section.
func (c *Config) Engine() *scoring.Engine {
	var table []archetype.Archetype
	if len(c.Scoring.Archetypes) > 0 {
		table = c.Scoring.Archetypes
	}
	return scoring.NewEngine(c.Thresholds(), table)
}

// TextGenOptions maps the textgen section onto backend options. An
// unresolved "auto" provider maps to none.
func (c *Config) TextGenOptions() textgen.Options {
	provider := c.TextGen.Provider
	if provider == "auto" {
		provider = textgen.ProviderNone
	}
	return textgen.Options{
		Provider:  provider,
		Model:     c.TextGen.Model,
		BaseURL:   c.TextGen.BaseURL,
		APIKey:    c.TextGen.APIKey,
		Timeout:   time.Duration(c.TextGen.Timeout) * time.Second,
		RateLimit: c.TextGen.RateLimit,
		Burst:     c.TextGen.Burst,
	}
}

// Advisor builds the dispatcher configuration around an optional
// generator.
func (c *Config) Advisor(gen textgen.Generator, logger *zap.Logger) advisor.Config {
	return advisor.Config{
		Generator:   gen,
		Model:       c.TextGen.Model,
		MaxTokens:   c.TextGen.MaxTokens,
		Temperature: c.TextGen.Temperature,
		Engine:      c.Engine(),
		Logger:      logger,
	}
}
