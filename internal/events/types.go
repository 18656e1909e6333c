package events

// Event type constants for kelindar/event.
const (
	TypePress uint32 = iota + 1
	TypeStateChanged
	TypeSensorValue
	TypeEventDropped
	TypeTuningReloaded
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// PressEvent is published once per classified button or API press.
type PressEvent struct {
	Kind       string `json:"kind" example:"short" enum:"short,long" doc:"Press classification"`
	DurationMs int    `json:"duration_ms" example:"300" doc:"Hold time between confirmed press and confirmed release"`
	Source     string `json:"source" example:"button" enum:"button,api,cli" doc:"Where the press came from"`
	Timestamp  string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for PressEvent.
func (e PressEvent) Type() uint32 { return TypePress }

// StateChangedEvent is published after the scheduler has switched tasks.
type StateChangedEvent struct {
	Mode      string `json:"mode" example:"sweep" doc:"Active animation mode"`
	LedsOff   bool   `json:"leds_off" example:"false" doc:"Whether the LEDs are switched off"`
	TaskID    string `json:"task_id" doc:"Identifier of the running animation task"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for StateChangedEvent.
func (e StateChangedEvent) Type() uint32 { return TypeStateChanged }

// SensorValueEvent carries a knob reading that moved past the deadband.
type SensorValueEvent struct {
	Raw       int    `json:"raw" example:"2051" doc:"Last raw sample"`
	Smoothed  int    `json:"smoothed" example:"2048" doc:"Moving average of recent samples"`
	Max       int    `json:"max" example:"4095" doc:"Largest possible reading"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SensorValueEvent.
func (e SensorValueEvent) Type() uint32 { return TypeSensorValue }

// EventDroppedEvent reports a press that was overwritten before the
// scheduler consumed it.
type EventDroppedEvent struct {
	Kind      string `json:"kind" example:"short" doc:"Kind of the overwritten press"`
	Total     uint64 `json:"total" example:"3" doc:"Overwrites since start"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for EventDroppedEvent.
func (e EventDroppedEvent) Type() uint32 { return TypeEventDropped }

// TuningReloadedEvent is published when the tuning file was applied.
type TuningReloadedEvent struct {
	Path      string `json:"path" doc:"Tuning file that was reloaded"`
	Error     string `json:"error,omitempty" doc:"Reason the reload was rejected"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for TuningReloadedEvent.
func (e TuningReloadedEvent) Type() uint32 { return TypeTuningReloaded }
