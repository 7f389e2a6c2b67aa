package httpapp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidsink/vidsink/internal/config"
	"github.com/vidsink/vidsink/internal/domain"
	"github.com/vidsink/vidsink/internal/events"
	"github.com/vidsink/vidsink/internal/feed"
	"github.com/vidsink/vidsink/internal/scheduler"
	"github.com/vidsink/vidsink/internal/store"
	"github.com/vidsink/vidsink/internal/supervisor"
	"github.com/vidsink/vidsink/internal/transcribe"
	"github.com/vidsink/vidsink/internal/ytdlp"
)

const testFeedURL = "https://www.youtube.com/feeds/videos.xml?channel_id=UCabcdefghijklmnopqrstuv"

type stubRunner struct{}

func (stubRunner) Run(ctx context.Context, args []string, progress chan<- ytdlp.Progress, cancel <-chan struct{}) (string, error) {
	select {
	case <-cancel:
		return "", ytdlp.ErrCancelled
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(20 * time.Millisecond):
		return "", nil
	}
}

func (stubRunner) FetchInfo(ctx context.Context, url string) (*ytdlp.VideoInfo, error) {
	return &ytdlp.VideoInfo{
		ID:    "abc123def45",
		Title: "Stub Video",
		Formats: []ytdlp.FormatInfo{
			{FormatID: "22", Ext: "mp4"},
		},
	}, nil
}

type stubFetcher struct{}

func (stubFetcher) Fetch(ctx context.Context, feedURL string) (*Snapshot, error) {
	return &Snapshot{
		Title:       "Test Channel",
		ChannelName: "Test Channel",
		Items: []Item{
			{
				VideoID:     "vid00000001",
				Title:       "First Upload",
				URL:         "https://www.youtube.com/watch?v=vid00000001",
				PublishedAt: "2026-01-01T00:00:00Z",
				Kind:        domain.ItemKindVideo,
			},
		},
	}, nil
}

type stubLister struct{}

func (stubLister) List(ctx context.Context, channelID string) ([]Item, error) {
	return nil, nil
}

type stubResolver struct{}

func (stubResolver) FeedURL(ctx context.Context, input string) string { return input }

type stubAvatar struct{}

func (stubAvatar) Resolve(ctx context.Context, channelID string) string { return "" }

// Snapshot and Item aliases keep the stub declarations readable.
type (
	Snapshot = feed.Snapshot
	Item     = feed.Item
)

func setupAPI(t *testing.T) (*httptest.Server, *store.DB, *events.Bus) {
	t.Helper()

	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bus := events.NewBus()
	t.Cleanup(bus.Close)

	cfg := &config.Config{
		DownloadsDir: t.TempDir(),
		FfmpegPath:   "ffmpeg",
	}

	sup := supervisor.New(db, bus, stubRunner{}, cfg, nil)
	t.Cleanup(sup.Close)

	feeds := feed.NewService(db, bus, stubFetcher{}, stubLister{}, stubResolver{}, stubAvatar{}, sup, nil)
	t.Cleanup(feeds.Close)

	transcripts := transcribe.NewService(db, bus, cfg, nil)
	t.Cleanup(transcripts.Close)

	sched := scheduler.New(db, feeds, nil)

	h := NewHandler(sup, feeds, transcripts, sched, db, bus, stubRunner{}, nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, db, bus
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestSubmitAndListDownloads(t *testing.T) {
	srv, _, _ := setupAPI(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/downloads", map[string]string{
		"url": "https://example.com/watch?v=abc123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created domain.Download
	decodeBody(t, resp, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.DownloadStatusQueued, created.Status)

	// Same url and format while the first is live is rejected
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/downloads", map[string]string{
		"url": "https://example.com/watch?v=abc123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/downloads", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []domain.Download
	decodeBody(t, resp, &list)
	assert.Len(t, list, 1)
}

func TestSubmitRejectsBlockedURL(t *testing.T) {
	srv, _, _ := setupAPI(t)

	for _, url := range []string{
		"http://localhost:8080/admin",
		"http://169.254.169.254/latest/meta-data",
		"file:///etc/passwd",
	} {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/downloads", map[string]string{"url": url})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "url %s", url)
		_ = resp.Body.Close()
	}
}

func TestSubmitValidatesBody(t *testing.T) {
	srv, _, _ := setupAPI(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/downloads", map[string]string{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp struct {
		Fields map[string]string `json:"fields"`
	}
	decodeBody(t, resp, &errResp)
	assert.Contains(t, errResp.Fields, "url")
}

func TestDownloadControlRoutes(t *testing.T) {
	srv, _, _ := setupAPI(t)

	// Pause without an active run is a no-op, not an error
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/downloads/nope/pause", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// Resume needs an existing record
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/downloads/nope/resume", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/downloads/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestExportDownloadsCSV(t *testing.T) {
	srv, db, _ := setupAPI(t)

	now := time.Now().UTC()
	require.NoError(t, db.CreateDownload(&domain.Download{
		ID: "d1", URL: "https://example.com/v", Title: "One",
		Status: domain.DownloadStatusCompleted, FormatID: "22",
		CreatedAt: now, UpdatedAt: now,
	}))

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/downloads/export?format=csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	defer func() { _ = resp.Body.Close() }()
	scanner := bufio.NewScanner(resp.Body)
	require.True(t, scanner.Scan())
	assert.True(t, strings.HasPrefix(scanner.Text(), "id,url,title,status"))
	require.True(t, scanner.Scan())
	assert.Contains(t, scanner.Text(), "d1")
}

func TestListFormats(t *testing.T) {
	srv, _, _ := setupAPI(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/formats?url=https://example.com/watch?v=abc123", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info ytdlp.VideoInfo
	decodeBody(t, resp, &info)
	assert.Equal(t, "Stub Video", info.Title)
	require.Len(t, info.Formats, 1)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/formats?url=http://127.0.0.1/x", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestFeedLifecycle(t *testing.T) {
	srv, _, _ := setupAPI(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/feeds", map[string]interface{}{
		"url":      testFeedURL,
		"keywords": []string{"tutorial"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created domain.Feed
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Test Channel", created.Title)

	// Second subscription to the same channel is rejected
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/feeds", map[string]interface{}{"url": testFeedURL})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	// A synchronous check imports the stub item
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/feeds/"+created.ID+"/check", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/feeds/"+created.ID+"/items", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []domain.FeedItem
	decodeBody(t, resp, &items)
	require.Len(t, items, 1)
	assert.Equal(t, "vid00000001", items[0].VideoID)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/feeds/"+created.ID+"/items/vid00000001/downloaded", map[string]bool{"downloaded": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/feeds/"+created.ID, map[string]interface{}{
		"keywords":      []string{"golang"},
		"auto_download": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated domain.Feed
	decodeBody(t, resp, &updated)
	assert.True(t, updated.AutoDownload)
	assert.Equal(t, domain.StringSlice{"golang"}, updated.Keywords)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/feeds/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/feeds/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestTranscriptValidation(t *testing.T) {
	srv, _, _ := setupAPI(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/transcripts", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/transcripts", map[string]string{"download_id": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestSettingsRoundTrip(t *testing.T) {
	srv, _, _ := setupAPI(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/settings", map[string]string{
		"download_path": "/srv/media",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/settings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var settings map[string]string
	decodeBody(t, resp, &settings)
	assert.Equal(t, "/srv/media", settings["download_path"])
}

func TestSchedulerInterval(t *testing.T) {
	srv, _, _ := setupAPI(t)

	resp := doJSON(t, http.MethodPut, srv.URL+"/api/scheduler", map[string]int{"minutes": 30})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		Minutes int `json:"minutes"`
	}
	decodeBody(t, resp, &got)
	assert.Equal(t, 30, got.Minutes)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/scheduler", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &got)
	assert.Equal(t, 30, got.Minutes)
}

func TestEventsStream(t *testing.T) {
	srv, _, bus := setupAPI(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	go func() {
		time.Sleep(50 * time.Millisecond)
		bus.Publish("job-progress", map[string]string{"id": "d1"})
	}()

	scanner := bufio.NewScanner(resp.Body)
	var eventLine, dataLine string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			eventLine = line
		case strings.HasPrefix(line, "data: "):
			dataLine = line
		}
		if eventLine != "" && dataLine != "" {
			break
		}
	}
	assert.Equal(t, "event: job-progress", eventLine)
	assert.Contains(t, dataLine, `"id":"d1"`)
}

func TestListEndpointsReturnEmptyArrays(t *testing.T) {
	srv, _, _ := setupAPI(t)

	for _, path := range []string{"/api/downloads", "/api/feeds", "/api/transcripts"} {
		resp := doJSON(t, http.MethodGet, srv.URL+path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		raw := json.RawMessage{}
		decodeBody(t, resp, &raw)
		assert.True(t, strings.HasPrefix(strings.TrimSpace(string(raw)), "["),
			fmt.Sprintf("%s should return a JSON array, got %s", path, raw))
	}
}
