// Package api implements the Loadscope REST API.
// It exposes scoring, strategy matching, upgrade suggestions and the
// question dispatcher over JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/loadscope/loadscope/internal/source"
	"github.com/loadscope/loadscope/pkg/advisor"
	"github.com/loadscope/loadscope/pkg/archetype"
	"github.com/loadscope/loadscope/pkg/loadout"
	"github.com/loadscope/loadscope/pkg/scoring"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Handler is the top-level API handler for the Loadscope service.
type Handler struct {
	engine     *scoring.Engine
	dispatcher *advisor.Dispatcher
	cache      *AnswerCache
	source     source.Source
	logger     *zap.Logger
}

// Options configures a Handler. Nil fields select defaults; a nil Source
// disables the "location" request field.
type Options struct {
	Engine     *scoring.Engine
	Dispatcher *advisor.Dispatcher
	Cache      *AnswerCache
	Source     source.Source
	Logger     *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(opts Options) *Handler {
	h := &Handler{
		engine:     opts.Engine,
		dispatcher: opts.Dispatcher,
		cache:      opts.Cache,
		source:     opts.Source,
		logger:     opts.Logger,
	}
	if h.engine == nil {
		h.engine = scoring.DefaultEngine()
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.dispatcher == nil {
		h.dispatcher = advisor.New(advisor.Config{Engine: h.engine, Logger: h.logger})
	}
	if h.cache == nil {
		h.cache = NewAnswerCache(0)
	}
	return h
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/score", h.handleScore)
	mux.HandleFunc("POST /v1/suggest", h.handleSuggest)
	mux.HandleFunc("POST /v1/strategy", h.handleStrategy)
	mux.HandleFunc("POST /v1/ask", h.handleAsk)
	mux.HandleFunc("GET /v1/tables", h.handleTables)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// loadoutRequest is the common JSON body. Either Loadout or Location
// must be set.
type loadoutRequest struct {
	Loadout  *loadout.Loadout `json:"loadout"`
	Location string           `json:"location,omitempty"`
	Query    string           `json:"query,omitempty"`
	Score    *int             `json:"score,omitempty"`
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (loadoutRequest, loadout.Loadout, error) {
	var req loadoutRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return req, loadout.Loadout{}, err
		}
		if errors.Is(err, io.EOF) {
			return req, loadout.Loadout{}, fmt.Errorf("%w: empty request body", loadout.ErrInvalidInput)
		}
		return req, loadout.Loadout{}, fmt.Errorf("%w: invalid request JSON: %v", loadout.ErrInvalidInput, err)
	}

	switch {
	case req.Loadout != nil:
		return req, *req.Loadout, nil
	case req.Location != "" && h.source != nil:
		l, err := source.Load(r.Context(), h.source, req.Location)
		if err != nil {
			return req, loadout.Loadout{}, h.locationErr(r, err)
		}
		return req, l, nil
	case req.Location != "":
		return req, loadout.Loadout{}, fmt.Errorf("%w: remote locations are not enabled", loadout.ErrInvalidInput)
	default:
		return req, loadout.Loadout{}, fmt.Errorf("%w: request needs a loadout or a location", loadout.ErrInvalidInput)
	}
}

// locationErr replaces a source error with one that names neither the
// resolved path nor the document's contents.
func (h *Handler) locationErr(r *http.Request, err error) error {
	h.logger.Debug("loading location failed",
		zap.String("request_id", RequestIDFrom(r.Context())),
		zap.Error(err))

	switch {
	case errors.Is(err, source.ErrLocationNotAllowed):
		return source.ErrLocationNotAllowed
	case errors.Is(err, source.ErrTooLarge):
		return source.ErrTooLarge
	case errors.Is(err, fs.ErrNotExist):
		return fs.ErrNotExist
	case errors.Is(err, loadout.ErrInvalidInput):
		return fmt.Errorf("%w: location does not hold a valid loadout", loadout.ErrInvalidInput)
	default:
		return err
	}
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	_, l, err := h.decode(w, r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	report, err := h.engine.Evaluate(l)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type suggestResponse struct {
	Suggestions []string `json:"suggestions"`
	Text        string   `json:"text"`
}

func (h *Handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	_, l, err := h.decode(w, r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	lines, err := scoring.Suggestions(l, h.engine.Thresholds().UpgradeCount)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	text, err := h.engine.Suggest(l)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, suggestResponse{Suggestions: lines, Text: text})
}

func (h *Handler) handleStrategy(w http.ResponseWriter, r *http.Request) {
	_, l, err := h.decode(w, r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Matcher().Match(l))
}

type askResponse struct {
	advisor.Answer
	Score  int  `json:"score"`
	Cached bool `json:"cached"`
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	req, l, err := h.decode(w, r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	score := scoring.Score(l)
	if req.Score != nil {
		score = *req.Score
	}

	key := cacheKey(l, req.Query, score)
	if ans, ok := h.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, askResponse{Answer: ans, Score: score, Cached: true})
		return
	}

	ans, err := h.dispatcher.Ask(r.Context(), l, req.Query, score)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	// Canned answers are cheap; only generated ones are worth keeping.
	if ans.Source == advisor.SourceGenerator {
		h.cache.Put(key, ans)
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: ans, Score: score})
}

func cacheKey(l loadout.Loadout, query string, score int) string {
	q := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	return fmt.Sprintf("%s|%d|%s", l.Key(), score, q)
}

type rarityRow struct {
	Rarity loadout.Rarity `json:"rarity"`
	Score  int            `json:"score"`
	Tier   int            `json:"tier"`
	Color  string         `json:"color"`
}

type tablesResponse struct {
	Categories []loadout.Category    `json:"categories"`
	Rarities   []rarityRow           `json:"rarities"`
	Archetypes []archetype.Archetype `json:"archetypes"`
	Threshold  float64               `json:"threshold"`
}

func (h *Handler) handleTables(w http.ResponseWriter, r *http.Request) {
	resp := tablesResponse{
		Categories: loadout.AllCategories(),
		Archetypes: h.engine.Matcher().Archetypes,
		Threshold:  h.engine.Matcher().Threshold,
	}
	for _, rarity := range loadout.AllRarities() {
		resp.Rarities = append(resp.Rarities, rarityRow{
			Rarity: rarity,
			Score:  rarity.Score(),
			Tier:   rarity.Tier(),
			Color:  rarity.Color(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"generator": h.dispatcher.HasGenerator(),
	})
}

// writeErr maps input errors to 400 and everything else to 500.
func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, loadout.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, fs.ErrNotExist):
		writeError(w, http.StatusNotFound, "loadout not found")
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
	default:
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
