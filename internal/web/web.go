// Package web serves the server-rendered pages: home, generate,
// gallery, results, and licensing.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aranel/songsmith/internal/health"
	"github.com/aranel/songsmith/internal/learning"
	"github.com/aranel/songsmith/internal/licensing"
	"github.com/aranel/songsmith/internal/lyrics"
	"github.com/aranel/songsmith/internal/storage"
	"github.com/aranel/songsmith/internal/styles"
	"github.com/aranel/songsmith/internal/worker"
)

//go:embed templates/*.html
var templatesFS embed.FS

const galleryPerPage = 12

// Handler renders the HTML pages.
type Handler struct {
	store   *storage.Store
	monitor *health.Monitor
	tmpl    *template.Template
	log     *slog.Logger
}

// New parses the embedded templates and returns a page handler.
func New(store *storage.Store, monitor *health.Monitor, log *slog.Logger) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Handler{store: store, monitor: monitor, tmpl: tmpl, log: log}, nil
}

// Register attaches the page routes to the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/generate", h.generateForm)
	r.Post("/generate", h.generateSubmit)
	r.Get("/gallery", h.gallery)
	r.Get("/results/{id}", h.results)
	r.Get("/licensing", h.licensingPage)
	r.NotFound(h.notFound)
}

func (h *Handler) render(w http.ResponseWriter, code int, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		h.log.Error("rendering template", "template", name, "error", err)
	}
}

func (h *Handler) errorPage(w http.ResponseWriter, code int, message string) {
	h.render(w, code, "error.html", map[string]any{
		"Code":    code,
		"Message": message,
	})
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.errorPage(w, http.StatusNotFound, "Page not found")
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	recent, err := h.store.ListGenerations(storage.StatusCompleted, 1, 5)
	if err != nil {
		h.log.Error("listing recent generations", "error", err)
	}
	stats, err := learning.Compute(h.store)
	if err != nil {
		h.log.Error("computing stats", "error", err)
	}
	h.render(w, http.StatusOK, "index.html", map[string]any{
		"Recent": recent,
		"Stats":  stats,
		"Health": h.monitor.Current(),
	})
}

func (h *Handler) generateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "generate.html", map[string]any{
		"Theme":       "",
		"Title":       "",
		"VoiceStyles": styles.VoiceStyles,
		"MusicStyles": styles.MusicStyles,
	})
}

func (h *Handler) generateSubmit(w http.ResponseWriter, r *http.Request) {
	theme := strings.TrimSpace(r.FormValue("theme"))
	title := strings.TrimSpace(r.FormValue("title"))
	voiceStyle := r.FormValue("voice_style")
	musicStyle := r.FormValue("music_style")

	fail := func(message string) {
		h.render(w, http.StatusBadRequest, "generate.html", map[string]any{
			"Error":       message,
			"Theme":       theme,
			"Title":       title,
			"VoiceStyles": styles.VoiceStyles,
			"MusicStyles": styles.MusicStyles,
		})
	}

	if theme == "" {
		fail("Theme is required")
		return
	}
	if voiceStyle != "" && !styles.ValidVoice(voiceStyle) {
		fail("Unknown voice style")
		return
	}
	if musicStyle != "" && !styles.ValidMusic(musicStyle) {
		fail("Unknown music style")
		return
	}
	voiceStyle, musicStyle = styles.Suggest(theme, voiceStyle, musicStyle)

	g, err := h.store.CreateGeneration(storage.NewGeneration{
		Title:      title,
		Theme:      theme,
		VoiceStyle: voiceStyle,
		MusicStyle: musicStyle,
	})
	if err != nil {
		h.log.Error("creating generation", "error", err)
		h.errorPage(w, http.StatusInternalServerError, "Could not create the generation")
		return
	}

	payload, _ := json.Marshal(worker.Payload{GenerationID: g.ID})
	err = h.store.EnqueueJob(storage.Job{
		ID:          uuid.New().String(),
		Type:        worker.JobType,
		PayloadJSON: string(payload),
	})
	if err != nil {
		h.log.Error("enqueuing generation job", "id", g.ID, "error", err)
		h.errorPage(w, http.StatusInternalServerError, "Could not queue the generation")
		return
	}

	http.Redirect(w, r, "/results/"+g.ID, http.StatusSeeOther)
}

func (h *Handler) gallery(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	list, err := h.store.ListGenerations(storage.StatusCompleted, page, galleryPerPage)
	if err != nil {
		h.log.Error("listing gallery", "error", err)
		h.errorPage(w, http.StatusInternalServerError, "Could not load the gallery")
		return
	}
	total, err := h.store.CountGenerations(storage.StatusCompleted)
	if err != nil {
		total = len(list)
	}

	lastPage := (total + galleryPerPage - 1) / galleryPerPage
	if lastPage < 1 {
		lastPage = 1
	}

	h.render(w, http.StatusOK, "gallery.html", map[string]any{
		"Generations": list,
		"Page":        page,
		"PrevPage":    page - 1,
		"NextPage":    page + 1,
		"HasPrev":     page > 1,
		"HasNext":     page < lastPage,
		"Total":       total,
	})
}

func (h *Handler) results(w http.ResponseWriter, r *http.Request) {
	g, err := h.store.GetGeneration(chi.URLParam(r, "id"))
	if err == storage.ErrNotFound {
		h.errorPage(w, http.StatusNotFound, "Generation not found")
		return
	}
	if err != nil {
		h.log.Error("loading generation", "error", err)
		h.errorPage(w, http.StatusInternalServerError, "Could not load results")
		return
	}

	h.render(w, http.StatusOK, "results.html", h.resultsData(g, time.Now().UTC()))
}

// resultsData builds the results template data. A running record past
// the stale threshold is shown as failed so the page stops refreshing
// when the worker died mid-run.
func (h *Handler) resultsData(g storage.Generation, now time.Time) map[string]any {
	g = g.Displayed(now)

	var sheet lyrics.Sheet
	if g.LyricsJSON != "" {
		var err error
		if sheet, err = lyrics.Decode(g.LyricsJSON); err != nil {
			h.log.Warn("decoding lyric sheet", "id", g.ID, "error", err)
		}
	}

	return map[string]any{
		"Generation": g,
		"Sheet":      sheet,
		"InProgress": !g.Terminal(),
		"HasAudio":   g.Status == storage.StatusCompleted && g.AudioFile != "",
		"HasVideo":   g.Status == storage.StatusCompleted && g.VideoFile != "",
	}
}

func (h *Handler) licensingPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "licensing.html", map[string]any{
		"Tiers": licensing.Tiers,
	})
}
