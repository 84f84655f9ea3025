// Package iox holds cleanup helpers for closers.
package iox

import (
	"errors"
	"io"
	"sync"
)

// DiscardClose closes c and drops the error. For defers where a close
// error cannot be acted on:
//
//	defer iox.DiscardClose(resp.Body)
func DiscardClose(c io.Closer) { _ = c.Close() }

// CloseFunc returns a func that closes c, for t.Cleanup.
func CloseFunc(c io.Closer) func() {
	return func() { _ = c.Close() }
}

// CloseAll closes every non-nil closer in order and joins the errors.
func CloseAll(closers ...io.Closer) error {
	var errs []error
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stack collects closers and closes them last-in first-out, so resources
// opened later, which may depend on earlier ones, go first.
type Stack struct {
	mu      sync.Mutex
	closers []io.Closer
}

// Push adds c. A nil closer is ignored.
func (s *Stack) Push(c io.Closer) {
	if c == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, c)
}

// PushFunc adds a close function.
func (s *Stack) PushFunc(fn func() error) {
	s.Push(closerFunc(fn))
}

// Close closes everything pushed so far and empties the stack.
func (s *Stack) Close() error {
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	reversed := make([]io.Closer, 0, len(closers))
	for i := len(closers) - 1; i >= 0; i-- {
		reversed = append(reversed, closers[i])
	}
	return CloseAll(reversed...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
