package events

import (
	"sync"
	"testing"
)

func TestBus_Subscribe(t *testing.T) {
	b := New()
	var got []Event

	b.Subscribe(AgentEnd, func(e Event) {
		got = append(got, e)
	})

	b.Publish(Event{Type: AgentStart, Agent: "notes"})
	b.Publish(Event{Type: AgentEnd, Agent: "notes", SessionID: "alice_1"})

	if len(got) != 1 {
		t.Fatalf("expected 1 delivered event, got %d", len(got))
	}
	if got[0].Agent != "notes" || got[0].SessionID != "alice_1" {
		t.Errorf("unexpected event %+v", got[0])
	}
	if got[0].Timestamp.IsZero() {
		t.Error("timestamp should be filled in")
	}
}

func TestBus_SubscribeAll(t *testing.T) {
	b := New()
	count := 0
	b.SubscribeAll(func(e Event) { count++ })

	b.Publish(Event{Type: GenerationStart})
	b.Publish(Event{Type: AgentStart})
	b.Publish(Event{Type: SessionPersisted})

	if count != 3 {
		t.Errorf("expected 3 calls, got %d", count)
	}
}

func TestBus_NilIsSafe(t *testing.T) {
	var b *Bus
	b.Publish(Event{Type: AgentStart})
}

func TestBus_HandlerMaySubscribe(t *testing.T) {
	b := New()
	b.Subscribe(TopicCompleted, func(e Event) {
		b.Subscribe(TopicUncompleted, func(Event) {})
	})
	b.Publish(Event{Type: TopicCompleted})
}

func TestBus_ConcurrentPublish(t *testing.T) {
	b := New()
	var mu sync.Mutex
	count := 0
	b.SubscribeAll(func(e Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Publish(Event{Type: AgentEnd})
		}()
	}
	wg.Wait()

	if count != 30 {
		t.Errorf("expected 30 deliveries, got %d", count)
	}
}
