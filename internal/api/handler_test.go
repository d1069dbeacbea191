package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/loadscope/loadscope/internal/api"
	"github.com/loadscope/loadscope/internal/source"
	"github.com/loadscope/loadscope/pkg/config"
	"github.com/loadscope/loadscope/pkg/advisor"
	"github.com/loadscope/loadscope/pkg/textgen"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const aggressiveBody = `{"loadout":{"AR":"Rare","Shotgun":"Epic","SMG":"Epic","Sniper":"Common","Heals":"Uncommon"}`

func newMux(opts api.Options) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewHandler(opts).RegisterRoutes(mux)
	return mux
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestScore(t *testing.T) {
	rec := do(t, newMux(api.Options{}), http.MethodPost, "/v1/score", aggressiveBody+"}")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	out := decodeBody(t, rec)
	assert.EqualValues(t, 56, out["score"])
	assert.Equal(t, "average", out["band"])
	assert.Equal(t, "Aggressive", out["strategy"].(map[string]any)["archetype"])
	assert.Len(t, out["suggestions"], 2)
}

func TestScorePartialLoadout(t *testing.T) {
	rec := do(t, newMux(api.Options{}), http.MethodPost, "/v1/score", `{"loadout":{"Sniper":"Legendary"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	assert.EqualValues(t, 100, out["score"])
	assert.Equal(t, []any{"AR", "Shotgun", "SMG", "Heals"}, out["missing"])
	assert.NotContains(t, out, "suggestions")
}

func TestBadRequests(t *testing.T) {
	mux := newMux(api.Options{})

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"empty body", "/v1/score", "", http.StatusBadRequest},
		{"invalid json", "/v1/score", "{", http.StatusBadRequest},
		{"unknown rarity", "/v1/score", `{"loadout":{"AR":"Shiny"}}`, http.StatusBadRequest},
		{"unknown category", "/v1/strategy", `{"loadout":{"Bow":"Rare"}}`, http.StatusBadRequest},
		{"no loadout", "/v1/score", `{}`, http.StatusBadRequest},
		{"location without source", "/v1/score", `{"location":"s3://b/k.yaml"}`, http.StatusBadRequest},
		{"incomplete suggest", "/v1/suggest", `{"loadout":{"AR":"Rare"}}`, http.StatusBadRequest},
		{"incomplete ask", "/v1/ask", `{"loadout":{"AR":"Rare"},"query":"rate"}`, http.StatusBadRequest},
		{"score out of range", "/v1/ask", aggressiveBody + `,"score":120}`, http.StatusBadRequest},
		{"too large", "/v1/score", `{"query":"` + strings.Repeat("a", 70<<10) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}
}

func TestSuggest(t *testing.T) {
	rec := do(t, newMux(api.Options{}), http.MethodPost, "/v1/suggest",
		`{"loadout":{"AR":"Legendary","Shotgun":"Legendary","SMG":"Legendary","Sniper":"Legendary","Heals":"Legendary"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	assert.Equal(t, []any{}, out["suggestions"])
	assert.Equal(t, "Your loadout is well-balanced. Keep it up!", out["text"])
}

func TestStrategy(t *testing.T) {
	rec := do(t, newMux(api.Options{}), http.MethodPost, "/v1/strategy",
		`{"loadout":{"AR":"None","Shotgun":"None","SMG":"None","Sniper":"None","Heals":"None"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	assert.Equal(t, false, out["matched"])
	assert.Contains(t, out["message"], "doesn't follow a common strategy pattern")
	assert.Len(t, out["ranking"], 5)
}

func TestAskRules(t *testing.T) {
	rec := do(t, newMux(api.Options{}), http.MethodPost, "/v1/ask", aggressiveBody+`,"query":"rate my loadout"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	assert.Equal(t, "Your loadout is average (56/100). Focus on upgrading your weakest slots.", out["text"])
	assert.Equal(t, "rules", out["source"])
	assert.Equal(t, "score", out["rule"])
	assert.EqualValues(t, 56, out["score"])
	assert.Equal(t, false, out["cached"])
}

func TestAskCachesGeneratedAnswers(t *testing.T) {
	calls := 0
	gen := textgen.GeneratorFunc(func(ctx context.Context, req textgen.Request) (string, error) {
		calls++
		return "Keep pushing.", nil
	})
	cache := api.NewAnswerCache(8)
	mux := newMux(api.Options{
		Dispatcher: advisor.New(advisor.Config{Generator: gen}),
		Cache:      cache,
	})

	first := decodeBody(t, do(t, mux, http.MethodPost, "/v1/ask", aggressiveBody+`,"query":"Any tips?"}`))
	assert.Equal(t, "Keep pushing.", first["text"])
	assert.Equal(t, false, first["cached"])

	// Same question, different case and spacing.
	second := decodeBody(t, do(t, mux, http.MethodPost, "/v1/ask", aggressiveBody+`,"query":"  any   TIPS? "}`))
	assert.Equal(t, "Keep pushing.", second["text"])
	assert.Equal(t, true, second["cached"])

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.Len())
}

func TestAskDoesNotCacheFallbacks(t *testing.T) {
	gen := textgen.GeneratorFunc(func(ctx context.Context, req textgen.Request) (string, error) {
		return "", errors.New("backend down")
	})
	cache := api.NewAnswerCache(8)
	mux := newMux(api.Options{
		Dispatcher: advisor.New(advisor.Config{Generator: gen}),
		Cache:      cache,
	})

	out := decodeBody(t, do(t, mux, http.MethodPost, "/v1/ask", aggressiveBody+`,"query":"sniper?"}`))
	assert.Equal(t, "rules", out["source"])
	assert.Equal(t, "category", out["rule"])
	assert.Equal(t, 0, cache.Len())
}

type mapSource map[string]string

func (s mapSource) Fetch(ctx context.Context, location string) ([]byte, error) {
	data, ok := s[location]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(data), nil
}

func TestLocation(t *testing.T) {
	mux := newMux(api.Options{Source: mapSource{"s3://team/main.yaml": "Sniper: Legendary\nAR: Epic\n"}})

	rec := do(t, mux, http.MethodPost, "/v1/score", `{"location":"s3://team/main.yaml"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decodeBody(t, rec)
	assert.EqualValues(t, 90, out["score"])
	assert.Equal(t, "Legendary Sniper, Epic AR", out["description"])

	rec = do(t, mux, http.MethodPost, "/v1/score", `{"location":"s3://team/other.yaml"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLocalLocationsConfined(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "loadouts")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.yaml"), []byte("Sniper: Legendary\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.yaml"), []byte("db_password: hunter2\n"), 0o644))
	secret := filepath.Join(base, "secrets.yaml")
	require.NoError(t, os.WriteFile(secret, []byte("db_password: hunter2\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	mux := newMux(api.Options{Source: source.NewServiceRouter(config.SourceConfig{LocalDir: dir})})

	rec := do(t, mux, http.MethodPost, "/v1/score", `{"location":"main.yaml"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 100, decodeBody(t, rec)["score"])

	tests := []struct {
		name     string
		location string
		want     int
	}{
		{"absolute path", secret, http.StatusBadRequest},
		{"file url", "file://" + secret, http.StatusBadRequest},
		{"parent traversal", "../secrets.yaml", http.StatusBadRequest},
		{"system file", "/etc/passwd", http.StatusBadRequest},
		{"directory", "sub", http.StatusBadRequest},
		{"not a loadout", "notes.yaml", http.StatusBadRequest},
		{"missing", "other.yaml", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(map[string]string{"location": tt.location})
			require.NoError(t, err)
			rec := do(t, mux, http.MethodPost, "/v1/score", string(body))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())

			msg, _ := decodeBody(t, rec)["error"].(string)
			assert.NotEmpty(t, msg)
			assert.NotContains(t, msg, base)
			assert.NotContains(t, msg, "db_password")
			assert.NotContains(t, msg, "passwd")
		})
	}
}

func TestLocalLocationsDisabledByDefault(t *testing.T) {
	mux := newMux(api.Options{Source: source.NewServiceRouter(config.SourceConfig{})})

	for _, location := range []string{"/etc/passwd", "main.yaml"} {
		body, err := json.Marshal(map[string]string{"location": location})
		require.NoError(t, err)
		rec := do(t, mux, http.MethodPost, "/v1/score", string(body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		assert.Contains(t, decodeBody(t, rec)["error"], "location not allowed")
	}
}

func TestTablesAndHealth(t *testing.T) {
	mux := newMux(api.Options{})

	rec := do(t, mux, http.MethodGet, "/v1/tables", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody(t, rec)
	assert.Len(t, out["categories"], 5)
	assert.Len(t, out["rarities"], 6)
	assert.Len(t, out["archetypes"], 5)
	assert.InDelta(t, 0.7, out["threshold"], 1e-9)
	legendary := out["rarities"].([]any)[5].(map[string]any)
	assert.Equal(t, "orange", legendary["color"])

	rec = do(t, mux, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])

	rec = do(t, mux, http.MethodGet, "/v1/score", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := api.Chain(newMux(api.Options{}),
		api.CORS([]string{"https://app.example"}),
		api.RequestLogger(zap.New(core)),
		api.APIKeyAuth("secret"),
	)

	// Missing key.
	rec := do(t, h, http.MethodPost, "/v1/score", aggressiveBody+"}")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	// Health checks skip auth.
	rec = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Valid key, known origin, client request ID.
	req := httptest.NewRequest(http.MethodPost, "/v1/score", strings.NewReader(aggressiveBody+"}"))
	req.Header.Set("X-API-Key", "secret")
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("X-Request-ID", "req-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	// Preflight.
	req = httptest.NewRequest(http.MethodOptions, "/v1/score", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 3)
	assert.EqualValues(t, http.StatusUnauthorized, entries[0].ContextMap()["status"])
	assert.Equal(t, "req-42", entries[2].ContextMap()["request_id"])
}

func TestAnswerCacheEviction(t *testing.T) {
	c := api.NewAnswerCache(2)
	c.Put("a", advisor.Answer{Text: "A"})
	c.Put("b", advisor.Answer{Text: "B"})

	// Touch a so b becomes the oldest.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", advisor.Answer{Text: "C"})
	_, ok = c.Get("b")
	assert.False(t, ok)
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", got.Text)
	assert.Equal(t, 2, c.Len())
}
