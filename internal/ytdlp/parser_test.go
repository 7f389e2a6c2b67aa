package ytdlp

import "testing"

func TestParseProgress(t *testing.T) {
	cases := []struct {
		name    string
		line    string
		percent float64
		speed   string
		eta     string
		ok      bool
	}{
		{
			name:    "full progress line",
			line:    "[download]  45.2% of 120.5MiB at 1.2MiB/s ETA 00:51",
			percent: 45.2,
			speed:   "1.2MiB/s",
			eta:     "00:51",
			ok:      true,
		},
		{
			name:    "integer percent",
			line:    "[download] 100% of 10.00MiB in 00:05",
			percent: 100,
			ok:      true,
		},
		{
			name: "no download tag",
			line: "  45.2% of something",
			ok:   false,
		},
		{
			name: "download tag without percent",
			line: "[download] Destination: /tmp/video.mp4",
			ok:   false,
		},
		{
			name: "merger line",
			line: "[Merger] Merging formats into \"/tmp/video.mp4\"",
			ok:   false,
		},
		{
			name: "empty",
			line: "",
			ok:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, ok := ParseProgress(tc.line)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			if p.Percent != tc.percent {
				t.Errorf("Percent = %f, want %f", p.Percent, tc.percent)
			}
			if p.Speed != tc.speed {
				t.Errorf("Speed = %q, want %q", p.Speed, tc.speed)
			}
			if p.ETA != tc.eta {
				t.Errorf("ETA = %q, want %q", p.ETA, tc.eta)
			}
		})
	}
}

func TestParseProgressMissingSpeedAndETA(t *testing.T) {
	p, ok := ParseProgress("[download]  12.0% of 5MiB")
	if !ok {
		t.Fatal("Expected line to parse")
	}
	if p.Speed != "" || p.ETA != "" {
		t.Errorf("Expected empty speed/eta, got %q/%q", p.Speed, p.ETA)
	}
}

func TestParseOutputPath(t *testing.T) {
	cases := []struct {
		line string
		path string
		ok   bool
	}{
		{"/downloads/My Video.mp4", "/downloads/My Video.mp4", true},
		{"  /downloads/trimmed.mp4  ", "/downloads/trimmed.mp4", true},
		{"[download] 45.2% of 10MiB", "", false},
		{"[Merger] Merging formats", "", false},
		{"45.2% done", "", false},
		{"no extension here", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		path, ok := ParseOutputPath(tc.line)
		if ok != tc.ok {
			t.Errorf("ParseOutputPath(%q) ok = %v, want %v", tc.line, ok, tc.ok)
			continue
		}
		if path != tc.path {
			t.Errorf("ParseOutputPath(%q) = %q, want %q", tc.line, path, tc.path)
		}
	}
}
