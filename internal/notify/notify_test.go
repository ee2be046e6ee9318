package notify

import (
	"testing"
	"time"
)

func TestSubscribeAndNotify(t *testing.T) {
	h := NewHub()
	c1 := h.Subscribe("user-1")
	c2 := h.Subscribe("user-1")
	other := h.Subscribe("user-2")

	n := Notification{Type: TypeUploadComplete, Status: "success", Message: "listo"}
	h.NotifyUser("user-1", n)

	for _, c := range []*Client{c1, c2} {
		select {
		case got := <-c.Events:
			if got.Type != TypeUploadComplete {
				t.Errorf("got type %q; want %q", got.Type, TypeUploadComplete)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for notification")
		}
	}

	select {
	case got := <-other.Events:
		t.Errorf("user-2 client received %v; notifications must be per-user", got)
	default:
	}
}

func TestNotifyWithoutSubscribersIsNoop(t *testing.T) {
	h := NewHub()
	// Must not panic or block.
	h.NotifyUser("user-1", Notification{Type: TypeUploadError})
}

func TestUnsubscribeClosesChannelAndCleansUp(t *testing.T) {
	h := NewHub()
	c := h.Subscribe("user-1")

	h.Unsubscribe("user-1", c)

	if _, ok := <-c.Events; ok {
		t.Error("channel should be closed after unsubscribe")
	}
	if got := h.ClientCount("user-1"); got != 0 {
		t.Errorf("ClientCount = %d; want 0", got)
	}
}

func TestNotifyDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	c := h.Subscribe("user-1")

	// Fill the buffer and then some; NotifyUser must never block.
	for i := 0; i < cap(c.Events)+5; i++ {
		h.NotifyUser("user-1", Notification{Type: TypeUploadComplete})
	}

	if got := len(c.Events); got != cap(c.Events) {
		t.Errorf("buffered = %d; want full buffer %d", got, cap(c.Events))
	}
}
