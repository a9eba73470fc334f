// Package api serves the HTTP surface: song generation, the gallery
// listing, artifact downloads, health, stats, and admin routes.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/aranel/songsmith/internal/audit"
	"github.com/aranel/songsmith/internal/collab"
	"github.com/aranel/songsmith/internal/health"
	"github.com/aranel/songsmith/internal/learning"
	"github.com/aranel/songsmith/internal/licensing"
	"github.com/aranel/songsmith/internal/metrics"
	"github.com/aranel/songsmith/internal/pipeline"
	"github.com/aranel/songsmith/internal/storage"
	"github.com/aranel/songsmith/internal/styles"
	"github.com/aranel/songsmith/internal/worker"
)

const (
	maxBodySize = 1 << 20 // 1MB
	maxThemeLen = 200
	defaultPage = 12
	maxPerPage  = 100
)

// Deps carries everything the router needs.
type Deps struct {
	Store      *storage.Store
	Pipeline   *pipeline.Pipeline
	Monitor    *health.Monitor
	Metrics    *metrics.Metrics
	Auditor    *audit.Auditor
	Collab     *collab.Manager // nil disables collaboration routes
	MediaDir   string
	AdminToken string
	Pages      func(chi.Router) // server-rendered pages, registered alongside the API
}

// NewRouter builds the API router.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth(deps))
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", handleGenerate(deps))
		r.Get("/generations", handleListGenerations(deps))
		r.Get("/generations/{id}", handleGetGeneration(deps))
		r.Get("/stats", handleStats(deps))

		r.Get("/licensing/tiers", handleLicensingTiers(deps))
		r.Post("/licensing/quote", handleLicensingQuote(deps))

		if deps.Collab != nil {
			r.Route("/collab/sessions", func(r chi.Router) {
				r.Post("/", handleCollabCreate(deps))
				r.Get("/", handleCollabList(deps))
				r.Get("/{id}", handleCollabGet(deps))
				r.Post("/{id}/join", handleCollabJoin(deps))
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(BearerAuth(deps.AdminToken))
			if deps.Auditor != nil {
				r.Use(deps.Auditor.Middleware("ADMIN_ACCESS"))
			}
			r.Get("/audit", handleAuditLog(deps))
			r.Delete("/learning", handlePruneLearning(deps))
		})
	})

	r.Get("/download/{id}/{kind}", handleDownload(deps))

	if deps.Pages != nil {
		deps.Pages(r)
	}

	return r
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"success": false,
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

// display converts a record for API output. Running records past the
// stale threshold are shown as failed so the UI never spins forever on
// a run that died with the process.
func display(g storage.Generation, now time.Time) storage.Generation {
	return g.Displayed(now)
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Theme      string `json:"theme"`
	Title      string `json:"title"`
	VoiceStyle string `json:"voice_style"`
	MusicStyle string `json:"music_style"`
	Async      bool   `json:"async"`
}

func handleGenerate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		// Validation happens before any row exists: a rejected request
		// leaves no trace in the gallery.
		req.Theme = strings.TrimSpace(req.Theme)
		if req.Theme == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "theme is required")
			return
		}
		if len(req.Theme) > maxThemeLen {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "theme exceeds %d characters", maxThemeLen)
			return
		}
		if req.VoiceStyle != "" && !styles.ValidVoice(req.VoiceStyle) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown voice style %q", req.VoiceStyle)
			return
		}
		if req.MusicStyle != "" && !styles.ValidMusic(req.MusicStyle) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown music style %q", req.MusicStyle)
			return
		}

		voiceStyle, musicStyle := styles.Suggest(req.Theme, req.VoiceStyle, req.MusicStyle)

		g, err := deps.Store.CreateGeneration(storage.NewGeneration{
			Title:      req.Title,
			Theme:      req.Theme,
			VoiceStyle: voiceStyle,
			MusicStyle: musicStyle,
		})
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "creating generation: %v", err)
			return
		}
		deps.Auditor.LogRequest(r, "GENERATION_REQUEST", "theme: "+req.Theme, "INFO")

		if req.Async {
			payload, _ := json.Marshal(worker.Payload{GenerationID: g.ID})
			err := deps.Store.EnqueueJob(storage.Job{
				ID:          uuid.New().String(),
				Type:        worker.JobType,
				PayloadJSON: string(payload),
			})
			if err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "enqueuing job: %v", err)
				return
			}
			writeJSON(w, http.StatusAccepted, map[string]any{
				"success":    true,
				"generation": g,
			})
			return
		}

		// Synchronous: the request rides the whole pipeline.
		if err := deps.Pipeline.Run(r.Context(), g.ID); err != nil {
			final, getErr := deps.Store.GetGeneration(g.ID)
			if getErr != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "generation failed: %v", err)
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"success":    false,
				"generation": final,
				"error": map[string]any{
					"message": final.Error,
					"type":    "generation_error",
				},
			})
			return
		}

		final, err := deps.Store.GetGeneration(g.ID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading result: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"generation": final,
		})
	}
}

func handleListGenerations(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		page := parseIntParam(r, "page", 1)
		perPage := parseIntParam(r, "per_page", defaultPage)
		if perPage > maxPerPage {
			perPage = maxPerPage
		}

		list, err := deps.Store.ListGenerations(status, page, perPage)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing generations: %v", err)
			return
		}
		total, err := deps.Store.CountGenerations(status)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "counting generations: %v", err)
			return
		}

		now := time.Now().UTC()
		out := make([]storage.Generation, len(list))
		for i, g := range list {
			out[i] = display(g, now)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success":     true,
			"generations": out,
			"total":       total,
			"page":        page,
			"per_page":    perPage,
		})
	}
}

func handleGetGeneration(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := deps.Store.GetGeneration(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "generation not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading generation: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"generation":   display(g, time.Now().UTC()),
			"audio_exists": artifactExists(deps.MediaDir, g.AudioFile),
			"video_exists": artifactExists(deps.MediaDir, g.VideoFile),
		})
	}
}

// artifactExists reports whether a recorded artifact is actually on disk.
func artifactExists(mediaDir, rel string) bool {
	if rel == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(mediaDir, filepath.FromSlash(rel)))
	return err == nil
}

func handleDownload(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		kind := chi.URLParam(r, "kind")
		if kind != "audio" && kind != "video" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "kind must be audio or video")
			return
		}

		g, err := deps.Store.GetGeneration(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "generation not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading generation: %v", err)
			return
		}

		rel := g.AudioFile
		contentType := "audio/wav"
		if kind == "video" {
			rel = g.VideoFile
			contentType = "video/mp4"
		}
		if g.Status != storage.StatusCompleted || rel == "" {
			httpError(w, http.StatusNotFound, "not_found_error", "no %s artifact for this generation", kind)
			return
		}

		abs := filepath.Join(deps.MediaDir, filepath.FromSlash(rel))
		f, err := os.Open(abs)
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found_error", "artifact missing from disk")
			return
		}
		defer f.Close()

		deps.Auditor.LogRequest(r, "ARTIFACT_DOWNLOAD", kind+": "+id, "INFO")
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(abs)))
		w.Header().Set("X-Watermark", audit.Watermark(strings.ToUpper(kind), id))
		http.ServeContent(w, r, filepath.Base(abs), g.CreatedAt, f)
	}
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := deps.Monitor.Current()
		code := http.StatusOK
		if snap.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, snap)
	}
}

func handleStats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := learning.Compute(deps.Store)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "computing stats: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"stats":   st,
		})
	}
}

func handleLicensingTiers(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"tiers":   licensing.Tiers,
		})
	}
}

func handleLicensingQuote(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Tier  string `json:"tier"`
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		q, err := licensing.NewQuote(req.Tier, req.Email)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		deps.Auditor.LogRequest(r, "LICENSE_QUOTE", "tier: "+req.Tier, "INFO")
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"quote":   q,
		})
	}
}

func handleCollabCreate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Theme string `json:"theme"`
			Host  string `json:"host"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if strings.TrimSpace(req.Host) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "host is required")
			return
		}
		s := deps.Collab.Create(req.Theme, req.Host)
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"session": s,
		})
	}
}

func handleCollabList(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":  true,
			"sessions": deps.Collab.List(),
		})
	}
}

func handleCollabGet(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := deps.Collab.Get(chi.URLParam(r, "id"))
		if errors.Is(err, collab.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found_error", "session not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"session": s,
		})
	}
}

func handleCollabJoin(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "name is required")
			return
		}
		s, err := deps.Collab.Join(chi.URLParam(r, "id"), req.Name)
		switch {
		case errors.Is(err, collab.ErrNotFound):
			httpError(w, http.StatusNotFound, "not_found_error", "session not found")
			return
		case errors.Is(err, collab.ErrFull):
			httpError(w, http.StatusConflict, "invalid_request_error", "session is full")
			return
		case err != nil:
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"session": s,
		})
	}
}

func handleAuditLog(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 100)
		events, err := deps.Store.ListAuditEvents(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing audit events: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"events":  events,
		})
	}
}

func handlePruneLearning(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keep := parseIntParam(r, "keep", 100)
		removed, err := deps.Store.PruneLearningEntries(keep)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "pruning learning entries: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"removed": removed,
			"kept":    keep,
		})
	}
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
