package models

// LastEvent describes the most recent press the scheduler consumed.
type LastEvent struct {
	Kind       string `json:"kind" example:"short" enum:"short,long" doc:"Press classification"`
	DurationMs int    `json:"duration_ms" example:"300" doc:"Hold time in milliseconds"`
	Source     string `json:"source" example:"button" doc:"Where the press came from"`
	At         string `json:"at" example:"2026-01-27T10:30:00Z" doc:"When the press was classified"`
}

type StateData struct {
	Mode           string     `json:"mode" example:"sweep" doc:"Current animation mode"`
	ModeIndex      int        `json:"mode_index" example:"0" doc:"Index of the current mode"`
	LedsOff        bool       `json:"leds_off" example:"false" doc:"Whether the LEDs are switched off"`
	SmoothedValue  *int       `json:"smoothed_value,omitempty" example:"2048" doc:"Smoothed knob value, absent before the first sample"`
	RawValue       *int       `json:"raw_value,omitempty" example:"2051" doc:"Last raw knob sample"`
	LastEvent      *LastEvent `json:"last_event,omitempty" doc:"Most recent press"`
	TaskID         string     `json:"task_id" doc:"Identifier of the running animation task"`
	DroppedPresses uint64     `json:"dropped_presses" example:"0" doc:"Presses overwritten before they were handled"`
	UpdatedAt      string     `json:"updated_at" example:"2026-01-27T10:30:00Z" doc:"Last state change"`
}

type StateResponse struct {
	Body StateData
}

type PressRequest struct {
	Body struct {
		Kind string `json:"kind" enum:"short,long" example:"short" doc:"Press to simulate: short cycles the mode, long toggles the LEDs"`
	}
}

type PressData struct {
	Kind       string `json:"kind" example:"short" doc:"Accepted press kind"`
	DurationMs int    `json:"duration_ms" example:"0" doc:"Reported hold time"`
	Source     string `json:"source" example:"api" doc:"Press source"`
	Accepted   string `json:"accepted" example:"2026-01-27T10:30:00Z" doc:"When the press was queued"`
}

type PressResponse struct {
	Body PressData
}

type ModeInfo struct {
	Index       int    `json:"index" example:"0" doc:"Mode index used by short presses"`
	Name        string `json:"name" example:"sweep" doc:"Mode name"`
	Description string `json:"description" doc:"What the mode renders"`
}

type ModesData struct {
	Modes   []ModeInfo `json:"modes" doc:"Available animation modes in cycle order"`
	Current string     `json:"current" example:"sweep" doc:"Current mode"`
}

type ModesResponse struct {
	Body ModesData
}

type TuningData struct {
	DebounceMs     int    `json:"debounce_ms" example:"50" doc:"Stable time required to confirm a level"`
	LongPressMs    int    `json:"long_press_ms" example:"1000" doc:"Hold time at which a press becomes long"`
	PeriodMinMs    int    `json:"period_min_ms" example:"500" doc:"Animation period at knob minimum"`
	PeriodMaxMs    int    `json:"period_max_ms" example:"3000" doc:"Animation period at knob maximum"`
	FillIntervalMs int    `json:"fill_interval_ms" example:"50" doc:"Refresh interval of the fill mode"`
	InputMax       int    `json:"input_max" example:"4095" doc:"Largest knob reading"`
	Color          string `json:"color" example:"#ffffff" doc:"Base colour"`
	Bounce         bool   `json:"bounce" example:"true" doc:"Sweep bounces instead of wrapping"`
	Rainbow        bool   `json:"rainbow" example:"false" doc:"Sweep cycles through a rainbow palette"`
}

type TuningResponse struct {
	Body TuningData
}

type LogEntry struct {
	Timestamp  string         `json:"timestamp" doc:"Log timestamp"`
	Level      string         `json:"level" example:"INFO" doc:"Log level"`
	Module     string         `json:"module" example:"scheduler" doc:"Logger module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

type LogsRequest struct {
	Limit int `query:"limit" default:"100" minimum:"1" maximum:"500" doc:"Number of newest entries to return"`
}

type LogsResponse struct {
	Body struct {
		Entries []LogEntry `json:"entries" doc:"Log entries, oldest first"`
		Count   int        `json:"count" doc:"Number of entries returned"`
	}
}
