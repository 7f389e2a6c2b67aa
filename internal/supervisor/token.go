package supervisor

import "sync"

// Token is a latched cancellation signal. Once fired it stays fired, and
// firing it again is a no-op, so racing pause and cancel calls cannot panic
// on a double close.
type Token struct {
	ch   chan struct{}
	once sync.Once
}

func NewToken() *Token {
	return &Token{ch: make(chan struct{})}
}

func (t *Token) Cancel() {
	t.once.Do(func() { close(t.ch) })
}

// Done returns the channel closed when the token fires.
func (t *Token) Done() <-chan struct{} {
	return t.ch
}

func (t *Token) Cancelled() bool {
	select {
	case <-t.ch:
		return true
	default:
		return false
	}
}
