package engine_test

import (
	"fmt"
	"testing"

	"github.com/seantiz/tempo/internal/engine"
)

func TestEventBrokerSingleSubscriber(t *testing.T) {
	b := engine.NewEventBroker()
	ch, unsub := b.Subscribe("r1")
	defer unsub()

	events := []string{"entering environment", "workload started", "outcome: success"}
	for _, ev := range events {
		b.Publish("r1", ev)
	}
	b.Close("r1")

	var got []string
	for ev := range ch {
		got = append(got, ev)
	}

	if len(got) != len(events) {
		t.Fatalf("got %d events, want %d", len(got), len(events))
	}
	for i, ev := range got {
		if ev != events[i] {
			t.Errorf("event[%d] = %q, want %q", i, ev, events[i])
		}
	}
}

func TestEventBrokerMultipleSubscribers(t *testing.T) {
	b := engine.NewEventBroker()
	ch1, unsub1 := b.Subscribe("r1")
	defer unsub1()
	ch2, unsub2 := b.Subscribe("r1")
	defer unsub2()

	b.Publish("r1", "hello")
	b.Close("r1")

	for i, ch := range []<-chan string{ch1, ch2} {
		var got []string
		for ev := range ch {
			got = append(got, ev)
		}
		if len(got) != 1 || got[0] != "hello" {
			t.Errorf("subscriber %d got %v, want [hello]", i+1, got)
		}
	}
}

func TestEventBrokerLateSubscriberGetsClosed(t *testing.T) {
	b := engine.NewEventBroker()
	b.Publish("r1", "early")
	b.Close("r1")

	ch, unsub := b.Subscribe("r1")
	defer unsub()

	if _, ok := <-ch; ok {
		t.Error("late subscriber should receive a closed channel")
	}
}

func TestEventBrokerCloseWithoutSubscribers(t *testing.T) {
	b := engine.NewEventBroker()
	b.Close("never-subscribed")

	ch, _ := b.Subscribe("never-subscribed")
	if _, ok := <-ch; ok {
		t.Error("channel should be closed for a run closed before any subscription")
	}
}

func TestEventBrokerUnsubscribe(t *testing.T) {
	b := engine.NewEventBroker()
	ch, unsub := b.Subscribe("r1")
	unsub()

	b.Publish("r1", "after unsubscribe")
	b.Close("r1")

	select {
	case ev, ok := <-ch:
		if ok {
			t.Errorf("unsubscribed channel received %q", ev)
		}
	default:
	}
}

func TestEventBrokerRunsAreIsolated(t *testing.T) {
	b := engine.NewEventBroker()
	ch1, unsub1 := b.Subscribe("r1")
	defer unsub1()
	ch2, unsub2 := b.Subscribe("r2")
	defer unsub2()

	b.Publish("r1", "only r1")
	b.Close("r1")
	b.Close("r2")

	if got := drain(ch1); len(got) != 1 {
		t.Errorf("r1 got %v", got)
	}
	if got := drain(ch2); len(got) != 0 {
		t.Errorf("r2 got %v, want nothing", got)
	}
}

func TestEventBrokerDropsForSlowSubscriber(t *testing.T) {
	b := engine.NewEventBroker()
	ch, unsub := b.Subscribe("r1")
	defer unsub()

	for i := 0; i < 200; i++ {
		b.Publish("r1", fmt.Sprintf("event %d", i))
	}
	b.Close("r1")

	got := drain(ch)
	if len(got) != 64 {
		t.Errorf("got %d events, want the 64 that fit the buffer", len(got))
	}
}

func drain(ch <-chan string) []string {
	var out []string
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}
