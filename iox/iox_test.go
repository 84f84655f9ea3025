package iox

import (
	"errors"
	"testing"
)

type spyCloser struct {
	name   string
	err    error
	closed bool
	order  *[]string
}

func (s *spyCloser) Close() error {
	s.closed = true
	if s.order != nil {
		*s.order = append(*s.order, s.name)
	}
	return s.err
}

func TestDiscardClose(t *testing.T) {
	s := &spyCloser{err: errors.New("ignored")}
	DiscardClose(s)
	if !s.closed {
		t.Fatal("Close was not called")
	}
}

func TestCloseFunc(t *testing.T) {
	s := &spyCloser{}
	fn := CloseFunc(s)
	if s.closed {
		t.Fatal("Close called before invoking returned func")
	}
	fn()
	if !s.closed {
		t.Fatal("Close was not called")
	}
}

func TestCloseAll_JoinsErrors(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	ok := &spyCloser{}

	err := CloseAll(&spyCloser{err: errA}, nil, ok, &spyCloser{err: errB})
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("err = %v, want both errors joined", err)
	}
	if !ok.closed {
		t.Error("closer after a failure was not closed")
	}
	if err := CloseAll(); err != nil {
		t.Errorf("empty CloseAll = %v", err)
	}
}

func TestStack_ClosesInReverse(t *testing.T) {
	var order []string
	var s Stack
	s.Push(&spyCloser{name: "store", order: &order})
	s.Push(nil)
	s.PushFunc(func() error {
		order = append(order, "transport")
		return nil
	})
	s.Push(&spyCloser{name: "server", order: &order})

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	want := []string{"server", "transport", "store"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	order = nil
	if err := s.Close(); err != nil || len(order) != 0 {
		t.Errorf("second close ran closers again: %v %v", order, err)
	}
}
