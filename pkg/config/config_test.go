package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/loadscope/loadscope/pkg/loadout"
	"github.com/loadscope/loadscope/pkg/scoring"
	"github.com/loadscope/loadscope/pkg/textgen"
)

// clearEnv blanks every variable ApplyEnv reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LOADSCOPE_TEXTGEN_PROVIDER", "LOADSCOPE_TEXTGEN_MODEL", "LOADSCOPE_TEXTGEN_API_KEY",
		"LOADSCOPE_TEXTGEN_RATE_LIMIT", "LOADSCOPE_API_KEY", "PORT", "LOADSCOPE_LOG_LEVEL",
		"OPENAI_API_KEY", "GEMINI_API_KEY", "LOADSCOPE_SOURCE_LOCAL_DIR",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.TextGen.Provider != "auto" {
		t.Errorf("expected default provider 'auto', got %q", cfg.TextGen.Provider)
	}
	if cfg.TextGen.MaxTokens != 150 {
		t.Errorf("expected default max tokens 150, got %d", cfg.TextGen.MaxTokens)
	}
	if cfg.Thresholds() != scoring.DefaultThresholds() {
		t.Errorf("expected default thresholds, got %+v", cfg.Thresholds())
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		create  bool
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "non-existent file returns defaults",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Scoring.Excellent != 80 {
					t.Errorf("expected default excellent 80, got %d", cfg.Scoring.Excellent)
				}
			},
		},
		{
			name:   "valid YAML overrides defaults",
			create: true,
			yaml: `
textgen:
  provider: ollama
  model: llama3.1
  timeout: 5
scoring:
  excellent: 90
  upgrade_count: 3
  archetypes:
    - name: Rusher
      description: "Rusher: all in."
      targets:
        Shotgun: 5
        SMG: 5
server:
  port: "9000"
log:
  level: debug
source:
  s3:
    endpoint: http://localhost:9000
    use_path_style: true
`,
			check: func(t *testing.T, cfg *Config) {
				if cfg.TextGen.Provider != "ollama" || cfg.TextGen.Model != "llama3.1" {
					t.Errorf("unexpected textgen section %+v", cfg.TextGen)
				}
				if cfg.TextGen.MaxTokens != 150 {
					t.Errorf("unset fields should keep defaults, got max tokens %d", cfg.TextGen.MaxTokens)
				}
				if cfg.Scoring.Excellent != 90 || cfg.Scoring.Solid != 60 || cfg.Scoring.UpgradeCount != 3 {
					t.Errorf("unexpected scoring section %+v", cfg.Scoring)
				}
				if len(cfg.Scoring.Archetypes) != 1 || cfg.Scoring.Archetypes[0].Target(loadout.Shotgun) != 5 {
					t.Errorf("unexpected archetypes %+v", cfg.Scoring.Archetypes)
				}
				if cfg.Server.Port != "9000" || cfg.Log.Level != "debug" {
					t.Errorf("unexpected server/log %+v %+v", cfg.Server, cfg.Log)
				}
				if !cfg.Source.S3.UsePathStyle || cfg.Source.S3.Region != "us-east-1" {
					t.Errorf("unexpected s3 section %+v", cfg.Source.S3)
				}
			},
		},
		{
			name:    "invalid YAML returns error",
			create:  true,
			yaml:    "{{invalid yaml",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")

			if tc.create {
				if err := os.WriteFile(path, []byte(tc.yaml), 0o644); err != nil {
					t.Fatalf("write test config: %v", err)
				}
			}

			cfg, err := Load(path)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.check != nil {
				tc.check(t, cfg)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name         string
		provider     string
		env          map[string]string
		wantProvider string
		wantKey      string
	}{
		{
			name:         "auto without keys",
			provider:     "auto",
			wantProvider: textgen.ProviderNone,
		},
		{
			name:         "auto picks openai",
			provider:     "auto",
			env:          map[string]string{"OPENAI_API_KEY": "sk-1", "GEMINI_API_KEY": "g-1"},
			wantProvider: textgen.ProviderOpenAI,
			wantKey:      "sk-1",
		},
		{
			name:         "auto picks gemini",
			provider:     "auto",
			env:          map[string]string{"GEMINI_API_KEY": "g-1"},
			wantProvider: textgen.ProviderGemini,
			wantKey:      "g-1",
		},
		{
			name:         "explicit provider env wins",
			provider:     "none",
			env:          map[string]string{"LOADSCOPE_TEXTGEN_PROVIDER": "Gemini", "GEMINI_API_KEY": "g-2"},
			wantProvider: textgen.ProviderGemini,
			wantKey:      "g-2",
		},
		{
			name:         "generic key beats provider key",
			provider:     "openai",
			env:          map[string]string{"LOADSCOPE_TEXTGEN_API_KEY": "mine", "OPENAI_API_KEY": "sk-1"},
			wantProvider: textgen.ProviderOpenAI,
			wantKey:      "mine",
		},
		{
			name:         "none stays none",
			provider:     "none",
			env:          map[string]string{"OPENAI_API_KEY": "sk-1"},
			wantProvider: textgen.ProviderNone,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg := DefaultConfig()
			cfg.TextGen.Provider = tc.provider
			if err := cfg.ApplyEnv(); err != nil {
				t.Fatalf("ApplyEnv: %v", err)
			}
			if cfg.TextGen.Provider != tc.wantProvider {
				t.Errorf("provider = %q, want %q", cfg.TextGen.Provider, tc.wantProvider)
			}
			if cfg.TextGen.APIKey != tc.wantKey {
				t.Errorf("api key = %q, want %q", cfg.TextGen.APIKey, tc.wantKey)
			}
		})
	}
}

func TestApplyEnvServerAndLog(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7070")
	t.Setenv("LOADSCOPE_API_KEY", "secret")
	t.Setenv("LOADSCOPE_LOG_LEVEL", "warn")
	t.Setenv("LOADSCOPE_TEXTGEN_RATE_LIMIT", "0.5")
	t.Setenv("LOADSCOPE_SOURCE_LOCAL_DIR", "/srv/loadouts")

	cfg := DefaultConfig()
	if cfg.Source.LocalDir != "" {
		t.Errorf("local dir should default to empty, got %q", cfg.Source.LocalDir)
	}
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Server.Port != "7070" || cfg.Server.APIKey != "secret" || cfg.Log.Level != "warn" {
		t.Errorf("unexpected overrides: %+v %+v", cfg.Server, cfg.Log)
	}
	if cfg.TextGen.RateLimit != 0.5 {
		t.Errorf("rate limit = %g, want 0.5", cfg.TextGen.RateLimit)
	}
	if cfg.Source.LocalDir != "/srv/loadouts" {
		t.Errorf("local dir = %q, want /srv/loadouts", cfg.Source.LocalDir)
	}

	t.Setenv("LOADSCOPE_TEXTGEN_RATE_LIMIT", "fast")
	if err := DefaultConfig().ApplyEnv(); err == nil {
		t.Error("expected error for malformed rate limit")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"unknown provider", func(cfg *Config) { cfg.TextGen.Provider = "clippy" }},
		{"negative timeout", func(cfg *Config) { cfg.TextGen.Timeout = -1 }},
		{"negative rate", func(cfg *Config) { cfg.TextGen.RateLimit = -1 }},
		{"hot temperature", func(cfg *Config) { cfg.TextGen.Temperature = 3 }},
		{"unordered bands", func(cfg *Config) { cfg.Scoring.Solid = 90 }},
		{"similarity above one", func(cfg *Config) { cfg.Scoring.Similarity = 1.5 }},
		{"unnamed archetype", func(cfg *Config) {
			cfg.Scoring.Archetypes = append(cfg.Scoring.Archetypes, cfg.Engine().Matcher().Archetypes[0])
			cfg.Scoring.Archetypes[0].Name = ""
		}},
		{"bad archetype tier", func(cfg *Config) {
			a := cfg.Engine().Matcher().Archetypes[0]
			a.Targets[loadout.AR] = 9
			cfg.Scoring.Archetypes = append(cfg.Scoring.Archetypes, a)
		}},
		{"negative cache", func(cfg *Config) { cfg.Server.CacheSize = -1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestTextGenOptions(t *testing.T) {
	cfg := DefaultConfig()
	opts := cfg.TextGenOptions()
	if opts.Provider != textgen.ProviderNone {
		t.Errorf("unresolved auto should map to none, got %q", opts.Provider)
	}
	if opts.Timeout != 15*time.Second {
		t.Errorf("timeout = %v, want 15s", opts.Timeout)
	}

	cfg.TextGen.Provider = "ollama"
	cfg.TextGen.RateLimit = 2
	opts = cfg.TextGenOptions()
	if opts.Provider != "ollama" || opts.RateLimit != 2 || opts.Burst != 1 {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestEngineUsesCustomArchetypes(t *testing.T) {
	cfg := DefaultConfig()
	if got := len(cfg.Engine().Matcher().Archetypes); got != 5 {
		t.Fatalf("expected 5 built-in archetypes, got %d", got)
	}

	cfg.Scoring.Archetypes = cfg.Engine().Matcher().Archetypes[:1]
	cfg.Scoring.Similarity = 0.5
	m := cfg.Engine().Matcher()
	if len(m.Archetypes) != 1 || m.Threshold != 0.5 {
		t.Errorf("unexpected matcher %+v", m)
	}

	adv := cfg.Advisor(nil, nil)
	if adv.MaxTokens != 150 || adv.Engine == nil || adv.Generator != nil {
		t.Errorf("unexpected advisor config %+v", adv)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Run("found in current directory", func(t *testing.T) {
		root := t.TempDir()
		configDir := filepath.Join(root, ".loadscope")
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			t.Fatalf("create config dir: %v", err)
		}
		configPath := filepath.Join(configDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("{}"), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		got := FindConfigFile(root)
		if got != configPath {
			t.Errorf("FindConfigFile = %q, want %q", got, configPath)
		}
	})

	t.Run("found in parent directory", func(t *testing.T) {
		root := t.TempDir()
		configDir := filepath.Join(root, ".loadscope")
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			t.Fatalf("create config dir: %v", err)
		}
		configPath := filepath.Join(configDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("{}"), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		sub := filepath.Join(root, "a", "b", "c")
		if err := os.MkdirAll(sub, 0o755); err != nil {
			t.Fatalf("create sub: %v", err)
		}

		got := FindConfigFile(sub)
		if got != configPath {
			t.Errorf("FindConfigFile = %q, want %q", got, configPath)
		}
	})

	t.Run("not found", func(t *testing.T) {
		root := t.TempDir()
		got := FindConfigFile(root)
		if got != "" {
			t.Errorf("FindConfigFile = %q, want empty", got)
		}
	})
}
