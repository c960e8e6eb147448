package crawl

import (
	"testing"
	"time"
)

func TestBrokerDeliversToAllSubscribers(t *testing.T) {
	broker := NewBroker()
	first, cancelFirst := broker.Subscribe()
	second, cancelSecond := broker.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	broker.Publish(Event{UserID: "u1", Stage: StageStarted})

	for _, ch := range []<-chan Event{first, second} {
		select {
		case event := <-ch:
			if event.Stage != StageStarted {
				t.Fatalf("unexpected event: %+v", event)
			}
		case <-time.After(time.Second):
			t.Fatalf("event never delivered")
		}
	}
}

func TestBrokerCancelClosesChannel(t *testing.T) {
	broker := NewBroker()
	events, cancel := broker.Subscribe()
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel not closed after cancel")
	}

	// Double cancel and publish-after-cancel must both be safe.
	cancel()
	broker.Publish(Event{Stage: StageDone})
}

func TestBrokerPublishNeverBlocks(t *testing.T) {
	broker := NewBroker()
	_, cancel := broker.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			broker.Publish(Event{Stage: StagePage})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a slow subscriber")
	}
}
