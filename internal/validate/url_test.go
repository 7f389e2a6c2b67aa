package validate

import "testing"

func TestURLAccepts(t *testing.T) {
	valid := []string{
		"https://example.com/video",
		"http://example.com/watch?v=abc123",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}
	for _, u := range valid {
		if err := URL(u); err != nil {
			t.Errorf("Expected %s to be accepted, got: %v", u, err)
		}
	}
}

func TestURLRejects(t *testing.T) {
	cases := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"too short", "http://a"},
		{"ftp scheme", "ftp://example.com/file.mp4"},
		{"file scheme", "file:///etc/passwd"},
		{"no scheme", "example.com/video/watch"},
		{"localhost", "http://localhost/admin"},
		{"localhost subdomain", "http://foo.localhost/admin"},
		{"loopback", "http://127.0.0.1/admin"},
		{"private 10", "http://10.0.0.5/internal"},
		{"private 172", "http://172.16.0.1/internal"},
		{"private 192", "http://192.168.1.5/x"},
		{"link local", "http://169.254.169.254/latest/meta-data"},
		{"unspecified", "http://0.0.0.0/anything"},
		{"ipv6 loopback", "http://[::1]/admin"},
	}
	for _, tc := range cases {
		if err := URL(tc.url); err == nil {
			t.Errorf("Expected %s (%s) to be rejected", tc.name, tc.url)
		}
	}
}
