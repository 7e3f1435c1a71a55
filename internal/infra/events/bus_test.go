package events

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type testEvent struct {
	BaseEvent
}

func newTestEvent(eventType string) testEvent {
	return testEvent{BaseEvent: NewBaseEvent(eventType, uuid.New(), "Test")}
}

func TestBusPublishDispatchesInOrder(t *testing.T) {
	bus := NewBus(nil)

	var calls []string
	bus.Register(NewHandlerFunc([]string{"A"}, func(Event) error {
		calls = append(calls, "first")
		return nil
	}))
	bus.Register(NewHandlerFunc([]string{"A"}, func(Event) error {
		calls = append(calls, "second")
		return nil
	}))

	bus.Publish(newTestEvent("A"))

	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestBusHandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewBus(nil)

	var handled bool
	bus.Register(NewHandlerFunc([]string{"A"}, func(Event) error {
		return errors.New("delivery failed")
	}))
	bus.Register(NewHandlerFunc([]string{"A"}, func(Event) error {
		handled = true
		return nil
	}))

	bus.Publish(newTestEvent("A"))

	assert.True(t, handled)
}

func TestBusPublishWithoutHandlers(t *testing.T) {
	bus := NewBus(nil)

	// Must not panic.
	bus.Publish(newTestEvent("Unknown"))
}

func TestBusHandlerOnlyReceivesItsTypes(t *testing.T) {
	bus := NewBus(nil)

	var got []string
	bus.Register(NewHandlerFunc([]string{"A", "B"}, func(e Event) error {
		got = append(got, e.EventType())
		return nil
	}))

	bus.PublishAll([]Event{newTestEvent("A"), newTestEvent("C"), newTestEvent("B")})

	assert.Equal(t, []string{"A", "B"}, got)
}
