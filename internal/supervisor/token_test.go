package supervisor

import (
	"sync"
	"testing"
)

func TestTokenLatches(t *testing.T) {
	tok := NewToken()
	if tok.Cancelled() {
		t.Error("Expected fresh token to not be cancelled")
	}

	tok.Cancel()
	if !tok.Cancelled() {
		t.Error("Expected token cancelled after Cancel")
	}

	// Second fire must not panic
	tok.Cancel()

	select {
	case <-tok.Done():
	default:
		t.Error("Expected Done channel closed")
	}
}

func TestTokenConcurrentCancel(t *testing.T) {
	tok := NewToken()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok.Cancel()
		}()
	}
	wg.Wait()

	if !tok.Cancelled() {
		t.Error("Expected token cancelled")
	}
}
