package hub

import (
	"context"
	"testing"
	"time"

	"github.com/atikulmunna/logpage/internal/model"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func run(t *testing.T, h *Hub) (cancel func()) {
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Start(ctx)
		close(done)
	}()
	return func() {
		stop()
		<-done
	}
}

func TestHubBroadcast(t *testing.T) {
	input := make(chan model.Excerpt, 10)
	h := New(input, nil)

	_, sub1 := h.Subscribe()
	_, sub2 := h.Subscribe()

	cancel := run(t, h)
	defer cancel()

	input <- model.Excerpt{Source: "cvs/index.html", HTML: "<ul></ul>"}

	for i, sub := range []<-chan model.Excerpt{sub1, sub2} {
		select {
		case ex := <-sub:
			if ex.Source != "cvs/index.html" {
				t.Errorf("sub%d: expected cvs/index.html, got %s", i+1, ex.Source)
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("sub%d: timed out", i+1)
		}
	}
}

func TestHubUnsubscribe(t *testing.T) {
	input := make(chan model.Excerpt, 10)
	h := New(input, nil)

	id, sub := h.Subscribe()
	if h.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", h.Subscribers())
	}

	h.Unsubscribe(id)
	h.Unsubscribe(id) // second call is a no-op

	if _, ok := <-sub; ok {
		t.Error("expected closed channel after unsubscribe")
	}
	if h.Subscribers() != 0 {
		t.Errorf("expected 0 subscribers, got %d", h.Subscribers())
	}
}

func TestHubSlowConsumer(t *testing.T) {
	input := make(chan model.Excerpt, 10)
	h := New(input, nil)

	// Subscribe but never read.
	_, _ = h.Subscribe()

	cancel := run(t, h)
	defer cancel()

	for i := 0; i < subscriberBuffer+5; i++ {
		input <- model.Excerpt{Source: "test.html"}
	}

	deadline := time.Now().Add(time.Second)
	for h.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h.Dropped() == 0 {
		t.Error("expected dropped updates for slow subscriber, got 0")
	}
}

func TestHubClosesSubscribersOnStop(t *testing.T) {
	input := make(chan model.Excerpt)
	h := New(input, nil)
	_, sub := h.Subscribe()

	cancel := run(t, h)
	cancel()

	if _, ok := <-sub; ok {
		t.Error("expected subscriber channel closed after stop")
	}

	// Late subscribers get an already-closed channel.
	_, late := h.Subscribe()
	if _, ok := <-late; ok {
		t.Error("expected closed channel for subscriber after stop")
	}
}
