package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_LateSubscriberGetsReplay(t *testing.T) {
	bus := NewBus()
	bus.StartRun()
	bus.Emit(Event{Type: EventStart})
	bus.Emit(Event{Type: EventPhase, Phase: "locale"})

	id, _, replay := bus.Subscribe()
	defer bus.Unsubscribe(id)

	require.Len(t, replay, 2)
	assert.Equal(t, EventStart, replay[0].Type)
	assert.Equal(t, EventPhase, replay[1].Type)
}

func TestBus_LiveDeliveryAfterSubscribe(t *testing.T) {
	bus := NewBus()
	id, ch, replay := bus.Subscribe()
	defer bus.Unsubscribe(id)
	require.Empty(t, replay)

	bus.Emit(Event{Type: EventReplied, PostID: "p1"})

	event := <-ch
	assert.Equal(t, EventReplied, event.Type)
	assert.Equal(t, "p1", event.PostID)
	assert.False(t, event.Time.IsZero(), "emit stamps the time")
}

func TestBus_StartRunClearsHistory(t *testing.T) {
	bus := NewBus()
	bus.Emit(Event{Type: EventStart})
	bus.Emit(Event{Type: EventEnd})

	bus.StartRun()

	_, _, replay := bus.Subscribe()
	assert.Empty(t, replay)
}

func TestBus_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus()
	id, ch, _ := bus.Subscribe()
	defer bus.Unsubscribe(id)

	// Overfill the buffer without reading. Emit must never block.
	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Emit(Event{Type: EventKeywordResult, Keyword: fmt.Sprintf("k%d", i)})
	}

	assert.Len(t, ch, subscriberBuffer)
	first := <-ch
	assert.Equal(t, "k0", first.Keyword, "oldest buffered events survive, newest are dropped")
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	id, ch, _ := bus.Subscribe()

	bus.Unsubscribe(id)

	_, open := <-ch
	assert.False(t, open)

	// Emitting after unsubscribe must not panic on the closed channel.
	bus.Emit(Event{Type: EventEnd})

	// Double unsubscribe is a no-op.
	bus.Unsubscribe(id)
}

func TestBus_IndependentSubscribers(t *testing.T) {
	bus := NewBus()
	id1, ch1, _ := bus.Subscribe()
	id2, ch2, _ := bus.Subscribe()
	defer bus.Unsubscribe(id1)
	defer bus.Unsubscribe(id2)

	bus.Emit(Event{Type: EventSummary})

	assert.Equal(t, EventSummary, (<-ch1).Type)
	assert.Equal(t, EventSummary, (<-ch2).Type)
}
