package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/lightpilot/internal/events"
)

// registerSSERoutes registers the event stream. The first message is the
// current state so clients need no separate fetch.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of presses, task switches, knob readings, dropped presses and tuning reloads",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"press":           events.PressEvent{},
		"state-changed":   events.StateChangedEvent{},
		"sensor-value":    events.SensorValueEvent{},
		"event-dropped":   events.EventDroppedEvent{},
		"tuning-reloaded": events.TuningReloadedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		defer events.Stream(s.eventBus, eventCh)()

		snap := s.ctrl.Snapshot()
		if err := send.Data(events.StateChangedEvent{
			Mode:      snap.Mode.String(),
			LedsOff:   snap.LedsOff,
			TaskID:    snap.TaskID,
			Timestamp: snap.UpdatedAt.Format(time.RFC3339Nano),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
