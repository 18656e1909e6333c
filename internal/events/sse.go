package events

import "github.com/kelindar/event"

// SubscribeToChannel forwards events of type T into ch. Sends never block:
// when ch is full the event is dropped for this subscriber only.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// Stream forwards every event type into ch, for SSE handlers that select on
// one channel. The returned func removes all subscriptions.
func Stream(bus *Bus, ch chan<- any) func() {
	unsubs := []func(){
		SubscribeToChannel[PressEvent](bus, ch),
		SubscribeToChannel[StateChangedEvent](bus, ch),
		SubscribeToChannel[SensorValueEvent](bus, ch),
		SubscribeToChannel[EventDroppedEvent](bus, ch),
		SubscribeToChannel[TuningReloadedEvent](bus, ch),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
