package logger

import (
	"testing"
)

func TestNew(t *testing.T) {
	cfg := Config{
		Level:  "info",
		Format: "text",
	}
	logger := New(cfg)
	if logger == nil {
		t.Error("Expected logger to not be nil")
	}

	cfg.Format = "json"
	logger = New(cfg)
	if logger == nil {
		t.Error("Expected logger to not be nil")
	}

	cfg.Level = "debug"
	logger = New(cfg)
	if logger == nil {
		t.Error("Expected logger to not be nil")
	}

	// Invalid level should default to info
	cfg.Level = "invalid"
	logger = New(cfg)
	if logger == nil {
		t.Error("Expected logger to not be nil")
	}
}

func TestWithComponent(t *testing.T) {
	logger := Default().WithComponent("supervisor")
	if logger == nil {
		t.Fatal("Expected logger to not be nil")
	}

	dl := logger.WithDownload("abc", "https://example.com/video")
	if dl == nil {
		t.Error("Expected download logger to not be nil")
	}
}
