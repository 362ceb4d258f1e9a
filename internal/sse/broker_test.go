package sse

import (
	"strings"
	"testing"
	"time"
)

func newTestBroker(t *testing.T, throttle time.Duration) *Broker {
	t.Helper()
	b := NewBroker(throttle)
	t.Cleanup(b.Close)
	return b
}

func recv(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return string(msg)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestSubscribeAndPublish(t *testing.T) {
	b := newTestBroker(t, time.Hour)
	ch := b.Subscribe()

	b.Publish(Event{Type: "ping", Data: map[string]string{"x": "1"}})
	msg := recv(t, ch)
	if !strings.Contains(msg, "event: ping") || !strings.Contains(msg, `"x":"1"`) {
		t.Errorf("msg = %q", msg)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := newTestBroker(t, time.Hour)
	ch := b.Subscribe()
	b.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel, got message")
		}
	case <-time.After(2 * time.Second):
		t.Error("channel not closed after unsubscribe")
	}
}

func TestClientCount(t *testing.T) {
	b := newTestBroker(t, time.Hour)
	if n := b.ClientCount(); n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
	a := b.Subscribe()
	c := b.Subscribe()
	if n := b.ClientCount(); n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
	b.Unsubscribe(a)
	b.Unsubscribe(c)
	if n := b.ClientCount(); n != 0 {
		t.Errorf("count after unsubscribe = %d, want 0", n)
	}
}

func TestDiaryEventCarriesID(t *testing.T) {
	b := newTestBroker(t, time.Hour)
	ch := b.Subscribe()

	b.PublishDiaryEvent("entry.created", "7")
	msg := recv(t, ch)
	if !strings.Contains(msg, "event: entry.created") || !strings.Contains(msg, `"id":"7"`) {
		t.Errorf("msg = %q", msg)
	}
}

func TestMilestoneEventTriggersCalendarUpdate(t *testing.T) {
	b := newTestBroker(t, time.Hour)
	ch := b.Subscribe()

	b.PublishDiaryEvent("milestone.updated", "m1")
	first := recv(t, ch)
	if !strings.Contains(first, "event: milestone.updated") {
		t.Fatalf("first = %q", first)
	}
	second := recv(t, ch)
	if !strings.Contains(second, "event: calendar.updated") {
		t.Fatalf("second = %q", second)
	}
}

func TestCalendarUpdateThrottled(t *testing.T) {
	b := newTestBroker(t, time.Hour)
	ch := b.Subscribe()

	for i := 0; i < 3; i++ {
		b.PublishDiaryEvent("milestone.updated", "m1")
	}

	// Drain everything arriving within a short window and count kinds.
	var milestone, calendarEvents int
	deadline := time.After(500 * time.Millisecond)
drain:
	for {
		select {
		case msg := <-ch:
			switch {
			case strings.Contains(string(msg), "event: milestone.updated"):
				milestone++
			case strings.Contains(string(msg), "event: calendar.updated"):
				calendarEvents++
			}
		case <-deadline:
			break drain
		}
	}
	if milestone != 3 {
		t.Errorf("milestone events = %d, want 3", milestone)
	}
	if calendarEvents != 1 {
		t.Errorf("calendar events = %d, want 1 (throttled)", calendarEvents)
	}
}

func TestEntryEventDoesNotTouchCalendar(t *testing.T) {
	b := newTestBroker(t, time.Hour)
	ch := b.Subscribe()

	b.PublishDiaryEvent("entry.updated", "1")
	first := recv(t, ch)
	if !strings.Contains(first, "event: entry.updated") {
		t.Fatalf("first = %q", first)
	}
	select {
	case msg := <-ch:
		t.Errorf("unexpected extra event %q", msg)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestPublishAfterCloseIsSafe(t *testing.T) {
	b := NewBroker(time.Hour)
	ch := b.Subscribe()
	b.Close()

	b.Publish(Event{Type: "late"})
	b.PublishDiaryEvent("entry.created", "1")
	if n := b.ClientCount(); n != 0 {
		t.Errorf("count after close = %d", n)
	}
	if _, ok := <-ch; ok {
		t.Error("client channel should be closed")
	}
}
