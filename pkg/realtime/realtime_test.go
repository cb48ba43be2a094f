package realtime

import "testing"

func TestHubBroadcastReachesAllObservers(t *testing.T) {
	hub := NewHub(4)

	_, ch1 := hub.Register()
	_, ch2 := hub.Register()

	hub.Broadcast(NewActivityEvent(KindCommand, "dev-1"))

	for i, ch := range []<-chan ActivityEvent{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Kind != KindCommand || ev.DeviceID != "dev-1" {
				t.Fatalf("observer %d got unexpected event %+v", i, ev)
			}
			if ev.TsMs == 0 {
				t.Fatalf("event not timestamped")
			}
		default:
			t.Fatalf("observer %d received nothing", i)
		}
	}
}

func TestHubDropsForSlowObserver(t *testing.T) {
	hub := NewHub(1)

	_, slow := hub.Register()
	_, fast := hub.Register()

	hub.Broadcast(NewActivityEvent(KindAck, "dev-1"))
	hub.Broadcast(NewActivityEvent(KindAck, "dev-2")) // slow observer's buffer is full

	<-fast
	select {
	case ev := <-fast:
		if ev.DeviceID != "dev-2" {
			t.Fatalf("fast observer missed second event: %+v", ev)
		}
	default:
		t.Fatalf("fast observer must receive both events")
	}

	<-slow
	select {
	case ev := <-slow:
		t.Fatalf("slow observer should have dropped the second event, got %+v", ev)
	default:
	}
}

func TestHubUnregisterClosesChannel(t *testing.T) {
	hub := NewHub(1)

	id, ch := hub.Register()
	if hub.Size() != 1 {
		t.Fatalf("expected one observer, got %d", hub.Size())
	}

	hub.Unregister(id)
	hub.Unregister(id) // idempotent

	if _, open := <-ch; open {
		t.Fatalf("channel must close on unregister")
	}
	if hub.Size() != 0 {
		t.Fatalf("observer not removed")
	}

	// Broadcast after unregister must not panic.
	hub.Broadcast(NewActivityEvent(KindUpload, "dev-1"))
}
