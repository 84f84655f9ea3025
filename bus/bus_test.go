package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pithecene-io/wearlink/types"
)

func TestBroker_FilteredDelivery(t *testing.T) {
	b := NewBroker()
	all, cancelAll := b.Subscribe(All())
	defer cancelAll()
	onlyRemote, cancelRemote := b.Subscribe(And(ByRequestID("r1"), ByAction(types.ActionRemote)))
	defer cancelRemote()

	b.Publish(types.Response{RequestID: "r1", Action: types.ActionStatus})
	b.Publish(types.Response{RequestID: "r1", Action: types.ActionRemote, OK: true})

	if got := len(all); got != 2 {
		t.Errorf("all subscriber got %d, want 2", got)
	}
	if got := len(onlyRemote); got != 1 {
		t.Fatalf("filtered subscriber got %d, want 1", got)
	}
	if resp := <-onlyRemote; !resp.OK {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestBroker_SlowSubscriberDrops(t *testing.T) {
	b := NewBroker()
	_, cancel := b.Subscribe(nil)
	defer cancel()

	for range DefaultBuffer + 5 {
		b.Publish(types.Response{RequestID: "x"})
	}
	if got := b.Dropped(); got != 5 {
		t.Errorf("Dropped = %d, want 5", got)
	}
}

func TestBroker_CancelIsIdempotent(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe(All())
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
	b.Publish(types.Response{})
}

func TestWaiter_ReceivesResponsePublishedBeforeWait(t *testing.T) {
	b := NewBroker()
	w := b.Waiter(ByRequestID("r2"))

	b.Publish(types.Response{RequestID: "r2", Message: "done"})

	resp, err := w.Wait(t.Context())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if resp.Message != "done" {
		t.Errorf("Message = %q", resp.Message)
	}
}

func TestAwait_Timeout(t *testing.T) {
	b := NewBroker()
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Await(ctx, ByRequestID("never"))
	if !errors.Is(err, ErrAwaitTimeout) {
		t.Errorf("err = %v, want ErrAwaitTimeout", err)
	}
}

func TestAwait_Concurrent(t *testing.T) {
	b := NewBroker()
	got := make(chan types.Response, 1)
	ready := make(chan struct{})
	go func() {
		w := b.Waiter(ByRequestID("r3"))
		close(ready)
		resp, _ := w.Wait(context.Background())
		got <- resp
	}()
	<-ready
	b.Publish(types.Response{RequestID: "r3", OK: true})

	select {
	case resp := <-got:
		if !resp.OK {
			t.Errorf("unexpected %+v", resp)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func TestBroker_Close(t *testing.T) {
	b := NewBroker()
	w := b.Waiter(All())
	b.Close()
	if _, err := w.Wait(t.Context()); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	ch, _ := b.Subscribe(All())
	if _, ok := <-ch; ok {
		t.Error("subscription after close should be closed")
	}
}
