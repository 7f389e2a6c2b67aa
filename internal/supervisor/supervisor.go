// Package supervisor owns the download lifecycle: admission, subprocess
// supervision, pause/resume/cancel signalling, and progress fanout.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vidsink/vidsink/internal/config"
	"github.com/vidsink/vidsink/internal/constants"
	"github.com/vidsink/vidsink/internal/domain"
	"github.com/vidsink/vidsink/internal/events"
	"github.com/vidsink/vidsink/internal/logger"
	"github.com/vidsink/vidsink/internal/store"
	"github.com/vidsink/vidsink/internal/validate"
	"github.com/vidsink/vidsink/internal/ytdlp"
)

var (
	ErrDuplicate = errors.New("a download for this url and format already exists")
	ErrNotFound  = errors.New("download not found")
)

// runner is what the supervisor needs from the yt-dlp wrapper. Tests swap in
// a fake.
type runner interface {
	Run(ctx context.Context, args []string, progress chan<- ytdlp.Progress, cancel <-chan struct{}) (string, error)
	FetchInfo(ctx context.Context, url string) (*ytdlp.VideoInfo, error)
}

type activeRun struct {
	token *Token
}

type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc
	repo   *store.DB
	bus    *events.Bus
	runner runner
	cfg    *config.Config
	logger *logger.Logger

	mu     sync.Mutex
	active map[string]*activeRun
	wg     sync.WaitGroup
}

func New(repo *store.DB, bus *events.Bus, r runner, cfg *config.Config, log *logger.Logger) *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())
	if log == nil {
		log = logger.Default()
	}
	return &Supervisor{
		ctx:    ctx,
		cancel: cancel,
		repo:   repo,
		bus:    bus,
		runner: r,
		cfg:    cfg,
		logger: log.WithComponent("supervisor"),
		active: make(map[string]*activeRun),
	}
}

// Start resets rows left mid-flight by a previous process and relaunches them.
func (s *Supervisor) Start() {
	if err := s.repo.ResetStuckDownloads(); err != nil {
		s.logger.Error("Failed to reset stuck downloads", "error", err)
	}

	queued, err := s.repo.ListDownloadsByStatus(domain.DownloadStatusQueued)
	if err != nil {
		s.logger.Error("Failed to list queued downloads", "error", err)
		return
	}
	for _, d := range queued {
		s.launch(d)
	}
}

// Submit validates and admits a new download. The record is persisted as
// queued before the subprocess starts.
func (s *Supervisor) Submit(url, formatID, formatLabel string) (*domain.Download, error) {
	if err := validate.URL(url); err != nil {
		return nil, err
	}
	if formatID == "" {
		formatID = constants.DefaultFormat
	}

	existing, err := s.repo.GetActiveDownloadByKey(url, formatID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicate
	}

	now := time.Now().UTC()
	d := &domain.Download{
		ID:          uuid.New().String(),
		URL:         url,
		Status:      domain.DownloadStatusQueued,
		FormatID:    formatID,
		FormatLabel: formatLabel,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateDownload(d); err != nil {
		return nil, fmt.Errorf("failed to persist download: %w", err)
	}

	s.prefetchMeta(d.ID, url)
	s.launch(d)
	return d, nil
}

// prefetchMeta fills in title and thumbnail in the background. Best effort.
func (s *Supervisor) prefetchMeta(id, url string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.ctx, constants.ResolveHTTPTimeout)
		defer cancel()

		info, err := s.runner.FetchInfo(ctx, url)
		if err != nil {
			s.logger.Debug("Metadata prefetch failed", "download_id", id, "error", err)
			return
		}
		if err := s.repo.UpdateDownloadMeta(id, info.Title, info.Thumbnail); err != nil {
			s.logger.Error("Failed to store metadata", "download_id", id, "error", err)
			return
		}
		s.publishSnapshot(id)
	}()
}

func (s *Supervisor) launch(d *domain.Download) {
	run := &activeRun{token: NewToken()}

	s.mu.Lock()
	if _, exists := s.active[d.ID]; exists {
		s.mu.Unlock()
		return
	}
	s.active[d.ID] = run
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runDownload(d, run)
}

func (s *Supervisor) runDownload(d *domain.Download, run *activeRun) {
	defer s.wg.Done()

	log := s.logger.WithDownload(d.ID, d.URL)

	if err := s.repo.UpdateDownloadStatus(d.ID, domain.DownloadStatusDownloading); err != nil {
		log.Error("Failed to mark downloading", "error", err)
	}
	s.publishSnapshot(d.ID)

	args := s.buildArgs(d)

	progress := make(chan ytdlp.Progress, constants.ProgressBuffer)
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		for p := range progress {
			if err := s.repo.UpdateDownloadProgress(d.ID, p.Percent, p.Speed, p.ETA); err != nil {
				log.Error("Failed to persist progress", "error", err)
			}
			s.bus.Publish(constants.EventJobProgress, map[string]interface{}{
				"id":       d.ID,
				"status":   domain.DownloadStatusDownloading,
				"progress": p.Percent,
				"speed":    p.Speed,
				"eta":      p.ETA,
			})
		}
	}()

	outputPath, runErr := s.runner.Run(s.ctx, args, progress, run.token.Done())

	// The runner has joined its reader, so no further progress sends can
	// arrive. Drain the relay before any terminal write or broadcast.
	close(progress)
	<-relayDone

	// The slot is freed before the terminal state lands so a resubmit never
	// observes an active entry for a finished run.
	s.mu.Lock()
	delete(s.active, d.ID)
	s.mu.Unlock()

	switch {
	case runErr == nil:
		var size int64
		if outputPath == "" {
			// No path line came through; the id still identifies the result
			outputPath = d.ID
		} else if fi, err := os.Stat(outputPath); err == nil {
			size = fi.Size()
		}
		if err := s.repo.UpdateDownloadComplete(d.ID, outputPath, size); err != nil {
			log.Error("Failed to mark complete", "error", err)
		}
		log.Info("Download completed", "path", outputPath)
		s.publishEvent(constants.EventJobComplete, d.ID)

	case errors.Is(runErr, ytdlp.ErrCancelled):
		// Pause or cancel already persisted the status it wanted; leave it.
		log.Info("Download stopped by request")
		s.publishEvent(constants.EventJobProgress, d.ID)

	case errors.Is(runErr, context.Canceled):
		log.Info("Download interrupted by shutdown")

	default:
		if err := s.repo.UpdateDownloadError(d.ID, runErr.Error()); err != nil {
			log.Error("Failed to mark error", "error", err)
		}
		log.Error("Download failed", "error", runErr)
		s.publishEvent(constants.EventJobError, d.ID)
	}
}

func (s *Supervisor) buildArgs(d *domain.Download) []string {
	outputDir := s.cfg.DownloadsDir
	if custom, err := s.repo.GetSetting(constants.SettingDownloadPath); err == nil && custom != "" {
		outputDir = custom
	}
	if err := os.MkdirAll(outputDir, constants.DirPermissions); err != nil {
		s.logger.Error("Failed to create download directory", "dir", outputDir, "error", err)
	}

	req := ytdlp.DownloadRequest{
		URL:        d.URL,
		OutputDir:  outputDir,
		Format:     d.FormatID,
		FfmpegPath: s.cfg.FfmpegPath,
	}
	if flags, err := s.repo.GetSetting(constants.SettingYtdlpFlags); err == nil && flags != "" {
		req.ExtraFlags = ytdlp.SplitFlags(flags)
	}
	if v, err := s.repo.GetSetting(constants.SettingEmbedThumbnail); err == nil && v == "true" {
		req.EmbedThumbnail = true
	}
	if v, err := s.repo.GetSetting(constants.SettingEmbedMetadata); err == nil && v == "true" {
		req.EmbedMetadata = true
	}
	if v, err := s.repo.GetSetting(constants.SettingBrowserCookies); err == nil && v != "" {
		req.BrowserCookies = v
	}
	return ytdlp.DownloadArgs(req)
}

// Pause stops a running download and records it as paused. Without an active
// run there is nothing to pause and the call is a no-op.
func (s *Supervisor) Pause(id string) error {
	s.mu.Lock()
	run, ok := s.active[id]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	if err := s.repo.UpdateDownloadStatus(id, domain.DownloadStatusPaused); err != nil {
		return err
	}
	run.token.Cancel()
	s.publishEvent(constants.EventJobProgress, id)
	return nil
}

// Resume relaunches a paused or cancelled download. yt-dlp continues from the
// partial file on disk when one survives.
func (s *Supervisor) Resume(id string) error {
	d, err := s.repo.GetDownload(id)
	if err != nil {
		return ErrNotFound
	}

	s.mu.Lock()
	_, running := s.active[id]
	s.mu.Unlock()
	if running || d.Status == domain.DownloadStatusCompleted {
		return nil
	}

	if err := s.repo.UpdateDownloadStatus(id, domain.DownloadStatusQueued); err != nil {
		return err
	}
	d.Status = domain.DownloadStatusQueued
	s.launch(d)
	return nil
}

// Retry clears error state and progress before relaunching.
func (s *Supervisor) Retry(id string) error {
	d, err := s.repo.GetDownload(id)
	if err != nil {
		return ErrNotFound
	}

	s.mu.Lock()
	_, running := s.active[id]
	s.mu.Unlock()
	if running {
		return nil
	}

	if err := s.repo.ResetDownloadForRetry(id); err != nil {
		return err
	}
	d.Status = domain.DownloadStatusQueued
	s.launch(d)
	return nil
}

// Cancel records the download as cancelled whether or not a run is active,
// and signals the run when there is one.
func (s *Supervisor) Cancel(id string) error {
	if err := s.repo.UpdateDownloadStatus(id, domain.DownloadStatusCancelled); err != nil {
		return err
	}

	s.mu.Lock()
	run, ok := s.active[id]
	s.mu.Unlock()
	if ok {
		run.token.Cancel()
	}
	s.publishEvent(constants.EventJobProgress, id)
	return nil
}

// Delete cancels any active run and removes the record. With deleteFile set
// the downloaded file goes first; a file already gone is not an error.
func (s *Supervisor) Delete(id string, deleteFile bool) error {
	d, err := s.repo.GetDownload(id)
	if err != nil {
		return ErrNotFound
	}

	s.mu.Lock()
	run, running := s.active[id]
	s.mu.Unlock()
	if running {
		run.token.Cancel()
	}

	if deleteFile && d.FilePath != "" {
		if err := os.Remove(d.FilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete file: %w", err)
		}
	}
	return s.repo.DeleteDownload(id)
}

// SetPriority reorders the queue view; it does not preempt running downloads.
func (s *Supervisor) SetPriority(id string, priority int) error {
	if err := s.repo.UpdateDownloadPriority(id, priority); err != nil {
		return err
	}
	s.publishEvent(constants.EventJobProgress, id)
	return nil
}

// PauseAll pauses every active run and reports how many it touched.
func (s *Supervisor) PauseAll() int {
	s.mu.Lock()
	ids := make([]string, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	count := 0
	for _, id := range ids {
		if err := s.Pause(id); err != nil {
			s.logger.Error("Failed to pause", "download_id", id, "error", err)
			continue
		}
		count++
	}
	return count
}

// ResumeAll relaunches everything sitting in paused state.
func (s *Supervisor) ResumeAll() int {
	paused, err := s.repo.ListDownloadsByStatus(domain.DownloadStatusPaused)
	if err != nil {
		s.logger.Error("Failed to list paused downloads", "error", err)
		return 0
	}

	count := 0
	for _, d := range paused {
		if err := s.Resume(d.ID); err != nil {
			s.logger.Error("Failed to resume", "download_id", d.ID, "error", err)
			continue
		}
		count++
	}
	return count
}

// CancelAll cancels every download still in a live status, including paused
// ones with no subprocess attached, and reports how many it touched.
func (s *Supervisor) CancelAll() int {
	live, err := s.repo.ListDownloadsByStatus(
		domain.DownloadStatusQueued,
		domain.DownloadStatusDownloading,
		domain.DownloadStatusPaused,
	)
	if err != nil {
		s.logger.Error("Failed to list live downloads", "error", err)
		return 0
	}

	count := 0
	for _, d := range live {
		if err := s.Cancel(d.ID); err != nil {
			s.logger.Error("Failed to cancel", "download_id", d.ID, "error", err)
			continue
		}
		count++
	}
	return count
}

// ActiveCount reports how many subprocesses are currently supervised.
func (s *Supervisor) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Close signals every run and waits for the goroutines to drain.
func (s *Supervisor) Close() {
	s.cancel()
	s.mu.Lock()
	for _, run := range s.active {
		run.token.Cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Supervisor) publishSnapshot(id string) {
	d, err := s.repo.GetDownload(id)
	if err != nil {
		return
	}
	s.bus.Publish(constants.EventJobProgress, d)
}

func (s *Supervisor) publishEvent(name, id string) {
	d, err := s.repo.GetDownload(id)
	if err != nil {
		return
	}
	s.bus.Publish(name, d)
}
