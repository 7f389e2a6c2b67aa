package httpapp

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vidsink/vidsink/internal/constants"
	"github.com/vidsink/vidsink/internal/domain"
	"github.com/vidsink/vidsink/internal/feed"
	"github.com/vidsink/vidsink/internal/http/dto"
	"github.com/vidsink/vidsink/internal/supervisor"
	"github.com/vidsink/vidsink/internal/validate"
)

func listLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= constants.MaxListResults {
			return n
		}
	}
	return constants.MaxListResults
}

func (h *Handler) SubmitDownload(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitDownloadRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, errs)
		return
	}
	if err := validate.URL(req.URL); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := h.Supervisor.Submit(req.URL, req.FormatID, req.FormatLabel)
	if err != nil {
		if errors.Is(err, supervisor.ErrDuplicate) {
			h.respondError(w, http.StatusConflict, err.Error())
			return
		}
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusCreated, d)
}

func (h *Handler) ListDownloads(w http.ResponseWriter, r *http.Request) {
	downloads, err := h.Repo.ListDownloads(listLimit(r))
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if downloads == nil {
		downloads = []*domain.Download{}
	}
	h.respondJSON(w, http.StatusOK, downloads)
}

func (h *Handler) GetDownload(w http.ResponseWriter, r *http.Request) {
	d, err := h.Repo.GetDownload(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusNotFound, "download not found")
		return
	}
	h.respondJSON(w, http.StatusOK, d)
}

func (h *Handler) DeleteDownload(w http.ResponseWriter, r *http.Request) {
	deleteFile := r.URL.Query().Get("delete_file") == "true"
	if err := h.Supervisor.Delete(chi.URLParam(r, "id"), deleteFile); err != nil {
		if errors.Is(err, supervisor.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "download not found")
			return
		}
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, dto.StatusResponse{Status: "deleted"})
}

func (h *Handler) PauseDownload(w http.ResponseWriter, r *http.Request) {
	h.controlDownload(w, chi.URLParam(r, "id"), h.Supervisor.Pause)
}

func (h *Handler) ResumeDownload(w http.ResponseWriter, r *http.Request) {
	h.controlDownload(w, chi.URLParam(r, "id"), h.Supervisor.Resume)
}

func (h *Handler) RetryDownload(w http.ResponseWriter, r *http.Request) {
	h.controlDownload(w, chi.URLParam(r, "id"), h.Supervisor.Retry)
}

func (h *Handler) CancelDownload(w http.ResponseWriter, r *http.Request) {
	h.controlDownload(w, chi.URLParam(r, "id"), h.Supervisor.Cancel)
}

func (h *Handler) controlDownload(w http.ResponseWriter, id string, op func(string) error) {
	if err := op(id); err != nil {
		if errors.Is(err, supervisor.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "download not found")
			return
		}
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, dto.StatusResponse{Status: "ok"})
}

func (h *Handler) SetPriority(w http.ResponseWriter, r *http.Request) {
	var req dto.PriorityRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Supervisor.SetPriority(chi.URLParam(r, "id"), req.Priority); err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, dto.StatusResponse{Status: "ok"})
}

func (h *Handler) PauseAll(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, dto.CountResponse{Count: h.Supervisor.PauseAll()})
}

func (h *Handler) ResumeAll(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, dto.CountResponse{Count: h.Supervisor.ResumeAll()})
}

func (h *Handler) CancelAll(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, dto.CountResponse{Count: h.Supervisor.CancelAll()})
}

func (h *Handler) DownloadStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Repo.GetDownloadStats()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) ExportDownloads(w http.ResponseWriter, r *http.Request) {
	downloads, err := h.Repo.ListDownloads(constants.MaxListResults)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch r.URL.Query().Get("format") {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="downloads.csv"`)
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"id", "url", "title", "status", "progress", "format_id", "file_path", "file_size", "created_at"})
		for _, d := range downloads {
			_ = cw.Write([]string{
				d.ID,
				d.URL,
				d.Title,
				string(d.Status),
				strconv.FormatFloat(d.Progress, 'f', 1, 64),
				d.FormatID,
				d.FilePath,
				strconv.FormatInt(d.FileSize, 10),
				d.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			})
		}
		cw.Flush()
	default:
		w.Header().Set("Content-Disposition", `attachment; filename="downloads.json"`)
		h.respondJSON(w, http.StatusOK, downloads)
	}
}

func (h *Handler) ListFormats(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if err := validate.URL(url); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.Info.FetchInfo(r.Context(), url)
	if err != nil {
		h.respondError(w, http.StatusBadGateway, fmt.Sprintf("failed to fetch formats: %v", err))
		return
	}
	h.respondJSON(w, http.StatusOK, info)
}

func (h *Handler) AddFeed(w http.ResponseWriter, r *http.Request) {
	var req dto.AddFeedRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, errs)
		return
	}

	f, err := h.Feeds.AddFeed(r.Context(), req.URL, req.Keywords, req.AutoDownload)
	if err != nil {
		if errors.Is(err, feed.ErrFeedExists) {
			h.respondError(w, http.StatusConflict, err.Error())
			return
		}
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusCreated, f)
}

func (h *Handler) ListFeeds(w http.ResponseWriter, r *http.Request) {
	feeds, err := h.Repo.ListFeeds()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if feeds == nil {
		feeds = []*domain.Feed{}
	}
	h.respondJSON(w, http.StatusOK, feeds)
}

func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	f, err := h.Repo.GetFeed(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusNotFound, "feed not found")
		return
	}
	h.respondJSON(w, http.StatusOK, f)
}

func (h *Handler) UpdateFeed(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateFeedRequest
	if !h.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.Feeds.UpdateFeedSettings(id, req.Keywords, req.AutoDownload); err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	f, err := h.Repo.GetFeed(id)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "feed not found")
		return
	}
	h.respondJSON(w, http.StatusOK, f)
}

func (h *Handler) RemoveFeed(w http.ResponseWriter, r *http.Request) {
	if err := h.Feeds.RemoveFeed(chi.URLParam(r, "id")); err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, dto.StatusResponse{Status: "deleted"})
}

func (h *Handler) CheckFeed(w http.ResponseWriter, r *http.Request) {
	if err := h.Feeds.CheckFeed(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, dto.StatusResponse{Status: "checked"})
}

// CheckAllFeeds kicks off a full reconciliation pass in the background so the
// request does not hang on slow channels. Progress goes out over the bus.
func (h *Handler) CheckAllFeeds(w http.ResponseWriter, r *http.Request) {
	go h.Feeds.CheckAll(context.Background())
	h.respondJSON(w, http.StatusAccepted, dto.StatusResponse{Status: "started"})
}

func (h *Handler) ListFeedItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Repo.ListFeedItems(chi.URLParam(r, "id"), listLimit(r))
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []*domain.FeedItem{}
	}
	h.respondJSON(w, http.StatusOK, items)
}

func (h *Handler) MarkItemDownloaded(w http.ResponseWriter, r *http.Request) {
	var req dto.MarkDownloadedRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Feeds.MarkItemDownloaded(chi.URLParam(r, "id"), chi.URLParam(r, "videoID"), req.Downloaded); err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, dto.StatusResponse{Status: "ok"})
}

func (h *Handler) SubmitTranscript(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitTranscriptRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, errs)
		return
	}

	source := req.Source
	if req.DownloadID != "" {
		d, err := h.Repo.GetDownload(req.DownloadID)
		if err != nil {
			h.respondError(w, http.StatusNotFound, "download not found")
			return
		}
		if d.FilePath == "" {
			h.respondError(w, http.StatusConflict, "download has no file on disk yet")
			return
		}
		source = d.FilePath
	}

	t, err := h.Transcripts.Submit(source)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.respondJSON(w, http.StatusCreated, t)
}

func (h *Handler) ListTranscripts(w http.ResponseWriter, r *http.Request) {
	transcripts, err := h.Repo.ListTranscripts(listLimit(r))
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if transcripts == nil {
		transcripts = []*domain.Transcript{}
	}
	h.respondJSON(w, http.StatusOK, transcripts)
}

func (h *Handler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	t, err := h.Repo.GetTranscript(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusNotFound, "transcript not found")
		return
	}
	h.respondJSON(w, http.StatusOK, t)
}

func (h *Handler) DeleteTranscript(w http.ResponseWriter, r *http.Request) {
	if err := h.Transcripts.Delete(chi.URLParam(r, "id")); err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, dto.StatusResponse{Status: "deleted"})
}

func (h *Handler) CancelTranscript(w http.ResponseWriter, r *http.Request) {
	if err := h.Transcripts.Cancel(chi.URLParam(r, "id")); err != nil {
		h.respondError(w, http.StatusNotFound, "transcript not found")
		return
	}
	h.respondJSON(w, http.StatusOK, dto.StatusResponse{Status: "cancelled"})
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Repo.ListSettings()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, settings)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings map[string]string
	if !h.decode(w, r, &settings) {
		return
	}
	for key, value := range settings {
		if err := h.Repo.SetSetting(key, value); err != nil {
			h.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	h.respondJSON(w, http.StatusOK, dto.StatusResponse{Status: "saved"})
}

func (h *Handler) GetSchedulerInterval(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, dto.IntervalResponse{Minutes: h.Scheduler.Interval()})
}

func (h *Handler) SetSchedulerInterval(w http.ResponseWriter, r *http.Request) {
	var req dto.IntervalRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Scheduler.SetInterval(req.Minutes); err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, dto.IntervalResponse{Minutes: h.Scheduler.Interval()})
}

// Events streams bus events to the client as server-sent events. The stream
// ends when the client disconnects or the bus shuts down.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, cancel := h.Bus.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				h.Logger.Error("Failed to encode event", "event", ev.Name, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data)
			flusher.Flush()
		}
	}
}
