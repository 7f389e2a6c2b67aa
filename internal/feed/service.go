package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vidsink/vidsink/internal/constants"
	"github.com/vidsink/vidsink/internal/domain"
	"github.com/vidsink/vidsink/internal/events"
	"github.com/vidsink/vidsink/internal/logger"
	"github.com/vidsink/vidsink/internal/store"
	"github.com/vidsink/vidsink/internal/validate"
)

var ErrFeedExists = errors.New("feed already subscribed")

// The service's collaborators, behind interfaces so tests can stand in.
type sourceFetcher interface {
	Fetch(ctx context.Context, feedURL string) (*Snapshot, error)
}

type channelLister interface {
	List(ctx context.Context, channelID string) ([]Item, error)
}

type urlResolver interface {
	FeedURL(ctx context.Context, input string) string
}

type avatarResolver interface {
	Resolve(ctx context.Context, channelID string) string
}

// Enqueuer is how auto-download hands matching items to the download side.
type Enqueuer interface {
	Submit(url, formatID, formatLabel string) (*domain.Download, error)
}

type Service struct {
	ctx      context.Context
	cancel   context.CancelFunc
	repo     *store.DB
	bus      *events.Bus
	fetcher  sourceFetcher
	lister   channelLister
	resolver urlResolver
	avatar   avatarResolver
	enqueuer Enqueuer
	logger   *logger.Logger
	wg       sync.WaitGroup
}

func NewService(repo *store.DB, bus *events.Bus, fetcher sourceFetcher, lister channelLister, resolver urlResolver, avatar avatarResolver, enqueuer Enqueuer, log *logger.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		ctx:      ctx,
		cancel:   cancel,
		repo:     repo,
		bus:      bus,
		fetcher:  fetcher,
		lister:   lister,
		resolver: resolver,
		avatar:   avatar,
		enqueuer: enqueuer,
		logger:   log.WithComponent("feeds"),
	}
}

func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

// AddFeed subscribes to a channel. The input is normalized to a canonical
// feed URL before the duplicate check so different spellings of the same
// channel collapse to one subscription.
func (s *Service) AddFeed(ctx context.Context, input string, keywords []string, autoDownload bool) (*domain.Feed, error) {
	canonical := s.resolver.FeedURL(ctx, input)
	if err := validate.URL(canonical); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetFeedByURL(canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing feed: %w", err)
	}
	if existing != nil {
		return nil, ErrFeedExists
	}

	// Best-effort title so the subscription is presentable before the first
	// full check lands.
	title := input
	titleCtx, cancel := context.WithTimeout(ctx, constants.TitlePrefetchTimeout)
	snap, fetchErr := s.fetcher.Fetch(titleCtx, canonical)
	cancel()
	channelName := ""
	if fetchErr == nil && snap.Title != "" {
		title = snap.Title
		channelName = snap.ChannelName
	}

	f := &domain.Feed{
		ID:           uuid.New().String(),
		URL:          canonical,
		Title:        title,
		ChannelName:  channelName,
		Keywords:     keywords,
		AutoDownload: autoDownload,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateFeed(f); err != nil {
		return nil, fmt.Errorf("failed to persist feed: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.CheckFeed(s.ctx, f.ID); err != nil {
			s.logger.Error("Initial feed check failed", "feed_id", f.ID, "error", err)
		}
	}()

	return f, nil
}

// CheckFeed runs one reconciliation pass: fetch the RSS view, list the
// channel, merge, and import. Progress phases go out on the bus as the pass
// moves along.
func (s *Service) CheckFeed(ctx context.Context, feedID string) error {
	_, err := s.checkFeed(ctx, feedID)
	return err
}

func (s *Service) checkFeed(ctx context.Context, feedID string) (int, error) {
	f, err := s.repo.GetFeed(feedID)
	if err != nil {
		return 0, fmt.Errorf("feed not found: %w", err)
	}
	log := s.logger.WithFeed(f.ID, f.URL)

	s.publishPhase(f.ID, "fetching", 0)
	snap, err := s.fetcher.Fetch(ctx, f.URL)
	if err != nil {
		return 0, fmt.Errorf("feed fetch failed: %w", err)
	}

	s.publishPhase(f.ID, "listing", 0)
	var listed []Item
	channelID := ChannelID(f.URL)
	if channelID != "" {
		listed, err = s.lister.List(ctx, channelID)
		if err != nil {
			// The RSS view alone still gives us the recent uploads
			log.Warn("Channel listing failed, continuing with feed only", "error", err)
			listed = nil
		}
	}

	merged := Merge(snap.Items, listed)

	s.publishPhase(f.ID, "importing", len(merged))
	var newItems []Item
	for _, it := range merged {
		isNew, err := s.repo.UpsertFeedItem(&domain.FeedItem{
			ID:          uuid.New().String(),
			FeedID:      f.ID,
			VideoID:     it.VideoID,
			Title:       it.Title,
			Thumbnail:   it.Thumbnail,
			URL:         it.URL,
			PublishedAt: it.PublishedAt,
			Kind:        it.Kind,
		})
		if err != nil {
			log.Error("Failed to import item", "video_id", it.VideoID, "error", err)
			continue
		}
		if isNew {
			newItems = append(newItems, it)
		}
	}

	s.updateChannelInfo(ctx, f, snap, channelID)

	checkedAt := time.Now().UTC().Format(time.RFC3339)
	if err := s.repo.UpdateFeedLastChecked(f.ID, checkedAt); err != nil {
		log.Error("Failed to record check time", "error", err)
	}

	if f.AutoDownload {
		s.autoDownload(f, newItems, log)
	}

	log.Info("Feed check finished", "items", len(merged), "new", len(newItems))
	s.bus.Publish(constants.EventFeedUpdated, map[string]interface{}{
		"feed_id":   f.ID,
		"items":     len(merged),
		"new_items": len(newItems),
	})
	return len(newItems), nil
}

// CheckAll walks every subscription in order. Failures are isolated per feed;
// a final summary event carries the aggregate new-item count.
func (s *Service) CheckAll(ctx context.Context) {
	feeds, err := s.repo.ListFeeds()
	if err != nil {
		s.logger.Error("Failed to list feeds", "error", err)
		return
	}

	totalNew := 0
	for i, f := range feeds {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.bus.Publish(constants.EventFeedSyncProgress, map[string]interface{}{
			"feed_id": f.ID,
			"phase":   "checking",
			"current": i + 1,
			"total":   len(feeds),
		})
		added, err := s.checkFeed(ctx, f.ID)
		if err != nil {
			s.logger.Error("Feed check failed", "feed_id", f.ID, "error", err)
			continue
		}
		totalNew += added
	}

	// The summary only goes out when the pass actually found something
	if totalNew > 0 {
		s.bus.Publish(constants.EventFeedSyncProgress, map[string]interface{}{
			"phase":     "completed",
			"total":     len(feeds),
			"new_items": totalNew,
		})
	}
}

func (s *Service) updateChannelInfo(ctx context.Context, f *domain.Feed, snap *Snapshot, channelID string) {
	thumbnail := ""
	if f.Thumbnail == "" && channelID != "" && s.avatar != nil {
		thumbnail = s.avatar.Resolve(ctx, channelID)
	}
	if snap.Title == "" && snap.ChannelName == "" && thumbnail == "" {
		return
	}
	if err := s.repo.UpdateFeedChannelInfo(f.ID, snap.Title, snap.ChannelName, thumbnail); err != nil {
		s.logger.Error("Failed to update channel info", "feed_id", f.ID, "error", err)
	}
}

func (s *Service) autoDownload(f *domain.Feed, items []Item, log *logger.Logger) {
	if s.enqueuer == nil {
		return
	}
	for _, it := range items {
		if !MatchesKeywords(it.Title, f.Keywords) {
			continue
		}
		if _, err := s.enqueuer.Submit(it.URL, "", ""); err != nil {
			log.Warn("Auto-download enqueue failed", "video_id", it.VideoID, "error", err)
			continue
		}
		if err := s.repo.SetFeedItemDownloaded(f.ID, it.VideoID, true); err != nil {
			log.Error("Failed to mark item downloaded", "video_id", it.VideoID, "error", err)
		}
	}
}

func (s *Service) RemoveFeed(id string) error {
	return s.repo.DeleteFeed(id)
}

func (s *Service) MarkItemDownloaded(feedID, videoID string, downloaded bool) error {
	return s.repo.SetFeedItemDownloaded(feedID, videoID, downloaded)
}

func (s *Service) UpdateFeedSettings(id string, keywords []string, autoDownload bool) error {
	return s.repo.UpdateFeedSettings(id, keywords, autoDownload)
}

func (s *Service) publishPhase(feedID, phase string, total int) {
	s.bus.Publish(constants.EventFeedSyncProgress, map[string]interface{}{
		"feed_id": feedID,
		"phase":   phase,
		"total":   total,
	})
}

// MatchesKeywords reports whether a title passes the feed's keyword filter.
// No keywords means everything passes.
func MatchesKeywords(title string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		kw = strings.TrimSpace(strings.ToLower(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
