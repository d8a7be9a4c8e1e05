package bench

import "sync/atomic"

// Token is a cooperative cancellation flag. Once set it stays set.
// A nil *Token is never cancelled.
type Token struct {
	stopped atomic.Bool
}

func NewToken() *Token { return &Token{} }

func (t *Token) Cancel() {
	if t != nil {
		t.stopped.Store(true)
	}
}

func (t *Token) Cancelled() bool {
	return t != nil && t.stopped.Load()
}
