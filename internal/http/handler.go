// Package httpapp exposes the JSON API and the SSE event stream.
package httpapp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vidsink/vidsink/internal/events"
	"github.com/vidsink/vidsink/internal/feed"
	"github.com/vidsink/vidsink/internal/http/dto"
	"github.com/vidsink/vidsink/internal/logger"
	"github.com/vidsink/vidsink/internal/scheduler"
	"github.com/vidsink/vidsink/internal/store"
	"github.com/vidsink/vidsink/internal/supervisor"
	"github.com/vidsink/vidsink/internal/transcribe"
	"github.com/vidsink/vidsink/internal/ytdlp"
)

// infoFetcher resolves format metadata for a URL before submission.
type infoFetcher interface {
	FetchInfo(ctx context.Context, url string) (*ytdlp.VideoInfo, error)
}

type Handler struct {
	Supervisor  *supervisor.Supervisor
	Feeds       *feed.Service
	Transcripts *transcribe.Service
	Scheduler   *scheduler.Scheduler
	Repo        *store.DB
	Bus         *events.Bus
	Info        infoFetcher
	Logger      *logger.Logger
}

func NewHandler(sup *supervisor.Supervisor, feeds *feed.Service, tr *transcribe.Service, sched *scheduler.Scheduler, repo *store.DB, bus *events.Bus, info infoFetcher, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		Supervisor:  sup,
		Feeds:       feeds,
		Transcripts: tr,
		Scheduler:   sched,
		Repo:        repo,
		Bus:         bus,
		Info:        info,
		Logger:      log.WithComponent("http"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/downloads", func(r chi.Router) {
			r.Get("/", h.ListDownloads)
			r.Post("/", h.SubmitDownload)
			r.Get("/stats", h.DownloadStats)
			r.Get("/export", h.ExportDownloads)
			r.Post("/pause-all", h.PauseAll)
			r.Post("/resume-all", h.ResumeAll)
			r.Post("/cancel-all", h.CancelAll)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetDownload)
				r.Delete("/", h.DeleteDownload)
				r.Post("/pause", h.PauseDownload)
				r.Post("/resume", h.ResumeDownload)
				r.Post("/retry", h.RetryDownload)
				r.Post("/cancel", h.CancelDownload)
				r.Put("/priority", h.SetPriority)
			})
		})

		r.Route("/feeds", func(r chi.Router) {
			r.Get("/", h.ListFeeds)
			r.Post("/", h.AddFeed)
			r.Post("/check-all", h.CheckAllFeeds)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetFeed)
				r.Put("/", h.UpdateFeed)
				r.Delete("/", h.RemoveFeed)
				r.Post("/check", h.CheckFeed)
				r.Get("/items", h.ListFeedItems)
				r.Post("/items/{videoID}/downloaded", h.MarkItemDownloaded)
			})
		})

		r.Route("/transcripts", func(r chi.Router) {
			r.Get("/", h.ListTranscripts)
			r.Post("/", h.SubmitTranscript)
			r.Get("/{id}", h.GetTranscript)
			r.Delete("/{id}", h.DeleteTranscript)
			r.Post("/{id}/cancel", h.CancelTranscript)
		})

		r.Get("/formats", h.ListFormats)
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)
		r.Get("/scheduler", h.GetSchedulerInterval)
		r.Put("/scheduler", h.SetSchedulerInterval)
		r.Get("/events", h.Events)
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, dto.ErrorResponse{Error: msg})
}

func (h *Handler) respondValidation(w http.ResponseWriter, errs []dto.ValidationError) {
	h.respondJSON(w, http.StatusBadRequest, dto.ErrorResponse{
		Error:  dto.ToResponse(errs),
		Fields: dto.ToMap(errs),
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
