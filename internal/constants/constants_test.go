package constants

import "testing"

func TestDefaultValues(t *testing.T) {
	if DefaultPort != "8080" {
		t.Errorf("Expected DefaultPort to be '8080', got '%s'", DefaultPort)
	}

	if DefaultDBPath != "vidsink.db" {
		t.Errorf("Expected DefaultDBPath to be 'vidsink.db', got '%s'", DefaultDBPath)
	}

	if DefaultFormat == "" {
		t.Error("DefaultFormat should not be empty")
	}

	if DefaultCheckInterval <= 0 {
		t.Errorf("DefaultCheckInterval should be positive, got %d", DefaultCheckInterval)
	}
}

func TestSettingKeys(t *testing.T) {
	keys := []string{
		SettingDownloadPath,
		SettingYtdlpFlags,
		SettingRSSCheckInterval,
		SettingTranscribeProvider,
		SettingWhisperBinPath,
	}

	seen := map[string]bool{}
	for _, k := range keys {
		if k == "" {
			t.Error("Setting key should not be empty")
		}
		if seen[k] {
			t.Errorf("Duplicate setting key: %s", k)
		}
		seen[k] = true
	}
}

func TestEventNames(t *testing.T) {
	events := []string{
		EventJobProgress,
		EventJobComplete,
		EventJobError,
		EventFeedSyncProgress,
		EventFeedUpdated,
		EventTranscript,
	}

	for _, e := range events {
		if e == "" {
			t.Error("Event name should not be empty")
		}
	}
}
