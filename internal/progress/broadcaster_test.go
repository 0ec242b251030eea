package progress

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBroadcaster_FanOut(t *testing.T) {
	b := NewBroadcaster(nil)

	ch1, unsub1 := b.Subscribe("alice")
	ch2, unsub2 := b.Subscribe("alice")
	defer unsub1()
	defer unsub2()

	b.Publish("alice", "job-1", Payload{Status: "running", Progress: 30, Message: "chunked"})

	for _, ch := range []<-chan Event{ch1, ch2} {
		ev := recv(t, ch)
		assert.Equal(t, EventType, ev.Type)
		assert.Equal(t, "job-1", ev.JobID)
		assert.Equal(t, "running", ev.Progress.Status)
		assert.Equal(t, 30, ev.Progress.Progress)
		assert.Equal(t, "chunked", ev.Progress.Message)
	}
}

func TestBroadcaster_SubscriberIsolation(t *testing.T) {
	b := NewBroadcaster(nil)

	aliceCh, unsubA := b.Subscribe("alice")
	bobCh, unsubB := b.Subscribe("bob")
	defer unsubA()
	defer unsubB()

	b.Publish("bob", "job-9", Payload{Status: "pending"})

	recv(t, bobCh)
	select {
	case ev := <-aliceCh:
		t.Fatalf("alice received bob's event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcaster_PublishWithoutSubscribers(t *testing.T) {
	b := NewBroadcaster(nil)
	// Must not block or panic.
	b.Publish("nobody", "job-1", Payload{Status: "running"})
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster(nil)

	ch, unsub := b.Subscribe("alice")
	unsub()
	unsub() // idempotent

	_, ok := <-ch
	assert.False(t, ok, "channel is closed after unsubscribe")
	assert.Zero(t, b.SubscriberCount("alice"))
}

func TestBroadcaster_SlowSubscriberDropped(t *testing.T) {
	b := NewBroadcaster(nil)

	_, unsub := b.Subscribe("alice")
	defer unsub()

	// Nobody drains the channel; once its buffer is full the subscriber
	// is removed instead of blocking the publisher.
	for i := 0; i < 64; i++ {
		done := make(chan struct{})
		go func(i int) {
			defer close(done)
			b.Publish("alice", "job-1", Payload{Status: "running", Progress: i, Message: fmt.Sprintf("step %d", i)})
		}(i)
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("publish blocked on a stalled subscriber")
		}
	}

	assert.Zero(t, b.SubscriberCount("alice"), "stalled subscriber was dropped")
}
