// Package ytdlp wraps the yt-dlp binary: argument construction, stdout
// parsing, and process lifecycle.
package ytdlp

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	percentRe = regexp.MustCompile(`(\d+\.?\d*)%`)
	speedRe   = regexp.MustCompile(`at\s+(\S+)`)
	etaRe     = regexp.MustCompile(`ETA\s+(\S+)`)
)

// Progress is one parsed "[download]" line.
type Progress struct {
	Speed   string
	ETA     string
	Percent float64
}

// ParseProgress extracts progress from one line of yt-dlp output. A line only
// counts when it carries both the "[download]" tag and a percent figure;
// everything else (merge steps, playlist banners) reports false.
func ParseProgress(line string) (Progress, bool) {
	if !strings.Contains(line, "[download]") || !strings.Contains(line, "%") {
		return Progress{}, false
	}

	m := percentRe.FindStringSubmatch(line)
	if m == nil {
		return Progress{}, false
	}
	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Progress{}, false
	}

	p := Progress{Percent: percent}
	if sm := speedRe.FindStringSubmatch(line); sm != nil {
		p.Speed = sm[1]
	}
	if em := etaRe.FindStringSubmatch(line); em != nil {
		p.ETA = em[1]
	}
	return p, true
}

// ParseOutputPath recognizes the bare file path yt-dlp prints for
// --print after_move:filepath. Log lines start with "[" or carry a percent,
// so a plain line with a file extension is the path.
func ParseOutputPath(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "[") || strings.Contains(trimmed, "%") {
		return "", false
	}
	if filepath.Ext(trimmed) == "" {
		return "", false
	}
	return trimmed, true
}
