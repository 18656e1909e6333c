package events

import (
	"github.com/kelindar/event"
)

// Bus is the in-process broadcast between the controller, the API and
// systemd status updates. Handlers run on the dispatcher's goroutines.
type Bus struct {
	dispatcher *event.Dispatcher
}

func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish broadcasts ev. A nil bus drops it, so components can run without one.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	switch e := ev.(type) {
	case PressEvent:
		event.Publish(b.dispatcher, e)
	case StateChangedEvent:
		event.Publish(b.dispatcher, e)
	case SensorValueEvent:
		event.Publish(b.dispatcher, e)
	case EventDroppedEvent:
		event.Publish(b.dispatcher, e)
	case TuningReloadedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler, whose parameter type selects the event, and
// returns its unsubscribe func. Unknown handler types subscribe to nothing.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(PressEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(StateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SensorValueEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(EventDroppedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(TuningReloadedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
