package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/vidsink/vidsink/internal/httpclient"
)

const testChannelID = "UCabcdefghijklmnopqrstuv"

func TestFeedURLDirectForms(t *testing.T) {
	r := NewResolver(httpclient.NewClient(nil, 0), nil, nil)
	ctx := context.Background()

	cases := []struct {
		input string
		want  string
	}{
		{
			"https://www.youtube.com/feeds/videos.xml?channel_id=" + testChannelID,
			"https://www.youtube.com/feeds/videos.xml?channel_id=" + testChannelID,
		},
		{
			testChannelID,
			feedURLPrefix + testChannelID,
		},
		{
			"https://www.youtube.com/channel/" + testChannelID,
			feedURLPrefix + testChannelID,
		},
		{
			"https://www.youtube.com/channel/" + testChannelID + "/videos",
			feedURLPrefix + testChannelID,
		},
	}
	for _, tc := range cases {
		if got := r.FeedURL(ctx, tc.input); got != tc.want {
			t.Errorf("FeedURL(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFeedURLScrapesHandlePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><script>var x = {"channelId":"` + testChannelID + `"};</script></html>`))
	}))
	defer srv.Close()

	r := NewResolver(httpclient.NewClient(srv.Client(), 0), nil, nil)
	r.validateURL = func(string) error { return nil }
	got := r.FeedURL(context.Background(), srv.URL+"/@somehandle")
	want := feedURLPrefix + testChannelID
	if got != want {
		t.Errorf("FeedURL = %q, want %q", got, want)
	}
}

func TestFeedURLFallsBackToInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>nothing useful</html>"))
	}))
	defer srv.Close()

	r := NewResolver(httpclient.NewClient(srv.Client(), 0), nil, nil)
	r.validateURL = func(string) error { return nil }
	input := srv.URL + "/@unresolvable"
	if got := r.FeedURL(context.Background(), input); got != input {
		t.Errorf("Expected unresolvable input returned unchanged, got %q", got)
	}
}

func TestFeedURLNeverFetchesBlockedInput(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"channelId":"` + testChannelID + `"}`))
	}))
	defer srv.Close()

	// The default URL check stays in place; the test server is loopback so
	// resolution must stop before any request goes out.
	r := NewResolver(httpclient.NewClient(srv.Client(), 0), nil, nil)

	for _, input := range []string{
		srv.URL + "/@somehandle",
		"http://192.168.1.5/x",
	} {
		if got := r.FeedURL(context.Background(), input); got != input {
			t.Errorf("Expected blocked input %q returned unchanged, got %q", input, got)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("Expected no requests for blocked inputs, got %d", n)
	}
}

func TestFeedURLPrefixesScheme(t *testing.T) {
	r := NewResolver(httpclient.NewClient(nil, 0), nil, nil)
	// Stop before any remote lookup; the normalized form is the fallback
	r.validateURL = func(string) error { return errors.New("stop here") }

	cases := []struct {
		input string
		want  string
	}{
		{"@somehandle", "https://www.youtube.com/@somehandle"},
		{"www.youtube.com/@somehandle", "https://www.youtube.com/@somehandle"},
	}
	for _, tc := range cases {
		if got := r.FeedURL(context.Background(), tc.input); got != tc.want {
			t.Errorf("FeedURL(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestChannelID(t *testing.T) {
	if got := ChannelID(feedURLPrefix + testChannelID); got != testChannelID {
		t.Errorf("ChannelID = %q, want %q", got, testChannelID)
	}
	if got := ChannelID("https://example.com/feed.xml"); got != "" {
		t.Errorf("Expected empty channel id, got %q", got)
	}
}
