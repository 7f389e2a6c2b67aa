// Package transcribe turns downloaded media into text, through either a
// hosted transcription API or a local whisper.cpp binary.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	neturl "net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
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
)

var ErrNotFound = errors.New("transcript not found")

type Service struct {
	ctx    context.Context
	cancel context.CancelFunc
	repo   *store.DB
	bus    *events.Bus
	cfg    *config.Config
	logger *logger.Logger

	// swapped out in tests
	extract     func(ctx context.Context, ffmpegPath, src, dst string) error
	fetchRemote func(ctx context.Context, ytdlpPath, url, dir string) (string, error)
	newProvider func() (provider, error)

	mu     sync.Mutex
	active map[string]context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(repo *store.DB, bus *events.Bus, cfg *config.Config, log *logger.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	if log == nil {
		log = logger.Default()
	}
	s := &Service{
		ctx:         ctx,
		cancel:      cancel,
		repo:        repo,
		bus:         bus,
		cfg:         cfg,
		logger:      log.WithComponent("transcribe"),
		extract:     extractAudio,
		fetchRemote: fetchRemoteAudio,
		active:      make(map[string]context.CancelFunc),
	}
	s.newProvider = s.providerFromSettings
	return s
}

// Submit starts transcription for a media file on disk or a remote http(s)
// source.
func (s *Service) Submit(source string) (*domain.Transcript, error) {
	title := titleFor(source)
	if isRemote(source) {
		if err := validate.URL(source); err != nil {
			return nil, err
		}
		title = remoteTitle(source)
	} else if _, err := os.Stat(source); err != nil {
		return nil, fmt.Errorf("source file not accessible: %w", err)
	}

	t := &domain.Transcript{
		ID:        uuid.New().String(),
		Source:    source,
		Title:     title,
		Status:    domain.TranscriptStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateTranscript(t); err != nil {
		return nil, fmt.Errorf("failed to persist transcript: %w", err)
	}

	runCtx, cancel := context.WithCancel(s.ctx)
	s.mu.Lock()
	s.active[t.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(runCtx, t)
	return t, nil
}

// Cancel stops a running transcription. The cancelled status is recorded
// whether or not a run was active.
func (s *Service) Cancel(id string) error {
	if _, err := s.repo.GetTranscript(id); err != nil {
		return ErrNotFound
	}
	if err := s.repo.UpdateTranscriptStatus(id, domain.TranscriptStatusCancelled, 0); err != nil {
		return err
	}

	s.mu.Lock()
	cancel, ok := s.active[id]
	s.mu.Unlock()
	if ok {
		cancel()
	}
	s.publish(id)
	return nil
}

func (s *Service) Delete(id string) error {
	_ = s.Cancel(id)
	return s.repo.DeleteTranscript(id)
}

func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service) run(ctx context.Context, t *domain.Transcript) {
	defer s.wg.Done()
	defer s.release(t.ID)

	log := s.logger.With("transcript_id", t.ID, "source", t.Source)

	step := func(status domain.TranscriptStatus, progress float64) {
		if err := s.repo.AdvanceTranscript(t.ID, status, progress); err != nil {
			log.Error("Failed to update transcript status", "error", err)
		}
		s.publish(t.ID)
	}

	step(domain.TranscriptStatusProcessing, 10)

	audioDir, err := os.MkdirTemp("", "vidsink-transcribe-*")
	if err != nil {
		s.fail(t.ID, log, fmt.Errorf("failed to create temp dir: %w", err))
		return
	}
	defer func() {
		if rmErr := os.RemoveAll(audioDir); rmErr != nil {
			log.Warn("Failed to clean up temp audio", "dir", audioDir, "error", rmErr)
		}
	}()

	audioPath := filepath.Join(audioDir, "audio.mp3")
	if isRemote(t.Source) {
		path, err := s.fetchRemote(ctx, s.cfg.YtdlpPath, t.Source, audioDir)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("Transcription stopped during audio fetch")
				return
			}
			s.fail(t.ID, log, err)
			return
		}
		audioPath = path
	} else if err := s.extract(ctx, s.cfg.FfmpegPath, t.Source, audioPath); err != nil {
		if ctx.Err() != nil {
			log.Info("Transcription stopped during extraction")
			return
		}
		s.fail(t.ID, log, err)
		return
	}
	if ctx.Err() != nil {
		return
	}
	step(domain.TranscriptStatusProcessing, 40)

	p, err := s.newProvider()
	if err != nil {
		s.fail(t.ID, log, err)
		return
	}

	text, language, err := p.Transcribe(ctx, audioPath)
	if err != nil {
		if ctx.Err() != nil {
			// Cancel already wrote the status it wanted
			log.Info("Transcription cancelled")
			return
		}
		s.fail(t.ID, log, err)
		return
	}

	// Free the slot before the terminal write, same ordering as downloads.
	s.release(t.ID)
	if err := s.repo.UpdateTranscriptComplete(t.ID, text, language); err != nil {
		log.Error("Failed to store transcript", "error", err)
		return
	}
	log.Info("Transcription completed", "chars", len(text))
	s.publish(t.ID)
}

func (s *Service) release(id string) {
	s.mu.Lock()
	delete(s.active, id)
	s.mu.Unlock()
}

func (s *Service) fail(id string, log *slog.Logger, err error) {
	s.release(id)
	log.Error("Transcription failed", "error", err)
	if uErr := s.repo.UpdateTranscriptError(id, err.Error()); uErr != nil {
		log.Error("Failed to record transcription error", "error", uErr)
	}
	s.publish(id)
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// remoteTitle derives a display title from a source URL. The last path
// segment usually carries the most meaning; the host covers bare URLs.
func remoteTitle(source string) string {
	u, err := neturl.Parse(source)
	if err != nil {
		return source
	}
	if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
		return base
	}
	return u.Host
}

func (s *Service) publish(id string) {
	t, err := s.repo.GetTranscript(id)
	if err != nil {
		return
	}
	s.bus.Publish(constants.EventTranscript, t)
}

// providerFromSettings builds the configured backend. "api" is the default;
// "whisper" selects the local binary and needs both paths set.
func (s *Service) providerFromSettings() (provider, error) {
	kind, _ := s.repo.GetSetting(constants.SettingTranscribeProvider)
	switch kind {
	case "", "api":
		apiKey, _ := s.repo.GetSetting(constants.SettingTranscribeAPIKey)
		model, _ := s.repo.GetSetting(constants.SettingTranscribeAPIModel)
		return &apiProvider{
			client: &http.Client{Timeout: 10 * time.Minute},
			url:    s.cfg.TranscribeURL,
			apiKey: apiKey,
			model:  model,
		}, nil
	case "whisper":
		binPath, _ := s.repo.GetSetting(constants.SettingWhisperBinPath)
		modelPath, _ := s.repo.GetSetting(constants.SettingWhisperModelPath)
		if binPath == "" || modelPath == "" {
			return nil, errors.New("whisper provider needs both binary and model paths configured")
		}
		return &whisperProvider{binPath: binPath, modelPath: modelPath}, nil
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", kind)
	}
}
