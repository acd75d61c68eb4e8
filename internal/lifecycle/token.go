// Package lifecycle provides the request lifecycle primitives shared by the
// generation session and the history browser: supersession tokens for
// last-writer-wins cancellation, and a trailing-edge debouncer.
package lifecycle

import (
	"context"
	"sync"
)

// Token identifies one logical async operation. A token is live until the
// source issues a newer one (or cancels outright); the result of an operation
// holding a stale token must be discarded, never applied or surfaced.
type Token struct {
	seq uint64
}

// TokenSource issues tokens for one lane of requests. At most one token is
// live at a time: Issue cancels the context of the previous token before
// returning the new one.
//
// Safe for concurrent use.
type TokenSource struct {
	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	current Token
}

// NewTokenSource returns an empty source with no live token.
func NewTokenSource() *TokenSource {
	return &TokenSource{}
}

// Issue invalidates the previous token, cancels its context, and returns a
// fresh token with a context derived from parent. The returned context is
// canceled when a later Issue or Cancel call supersedes this token.
func (s *TokenSource) Issue(parent context.Context) (Token, context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	s.seq++
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.current = Token{seq: s.seq}
	return s.current, ctx
}

// Live reports whether tok is still the current token. Operations must check
// Live before applying results; a false return means the operation was
// superseded and its outcome is to be swallowed.
func (s *TokenSource) Live(tok Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tok.seq != 0 && tok.seq == s.current.seq
}

// Cancel invalidates the current token (if any) and cancels its context.
// Used by reset paths; subsequent Live calls for old tokens return false.
func (s *TokenSource) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.current = Token{}
}
