package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/lightpilot/internal/animation"
	"github.com/smazurov/lightpilot/internal/api/models"
	"github.com/smazurov/lightpilot/internal/input"
	"github.com/smazurov/lightpilot/internal/state"
)

func (s *Server) registerControlRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-state",
		Method:      http.MethodGet,
		Path:        "/api/state",
		Summary:     "Get State",
		Description: "Current mode, power state, knob value and last press",
		Tags:        []string{"control"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.StateResponse, error) {
		return &models.StateResponse{Body: toStateData(s.ctrl.Snapshot(), s.ctrl.DroppedPresses())}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "post-press",
		Method:        http.MethodPost,
		Path:          "/api/press",
		Summary:       "Press",
		Description:   "Queue a short or long press as if the button had been used. The scheduler handles it asynchronously; an unhandled earlier press is replaced.",
		Tags:          []string{"control"},
		DefaultStatus: http.StatusAccepted,
		Security:      withAuth(),
		Errors:        []int{400, 401, 422},
	}, func(_ context.Context, req *models.PressRequest) (*models.PressResponse, error) {
		kind, err := input.ParsePressKind(req.Body.Kind)
		if err != nil {
			return nil, huma.Error400BadRequest("Unknown press kind", err)
		}
		ev := s.ctrl.Press(kind, input.SourceAPI)
		s.logger.Info("Press queued", "kind", kind, "source", input.SourceAPI)
		return &models.PressResponse{
			Body: models.PressData{
				Kind:       ev.Kind.String(),
				DurationMs: ev.PressDurationMs,
				Source:     ev.Source,
				Accepted:   ev.At.Format(time.RFC3339Nano),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-modes",
		Method:      http.MethodGet,
		Path:        "/api/modes",
		Summary:     "List Modes",
		Description: "Animation modes in the order short presses cycle through them",
		Tags:        []string{"control"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.ModesResponse, error) {
		modes := animation.Modes()
		data := models.ModesData{
			Modes:   make([]models.ModeInfo, 0, len(modes)),
			Current: s.ctrl.Snapshot().Mode.String(),
		}
		for _, m := range modes {
			data.Modes = append(data.Modes, models.ModeInfo{
				Index:       int(m),
				Name:        m.String(),
				Description: m.Description(),
			})
		}
		return &models.ModesResponse{Body: data}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-tuning",
		Method:      http.MethodGet,
		Path:        "/api/tuning",
		Summary:     "Get Tuning",
		Description: "Timing and animation parameters in effect, including hot-reloaded values",
		Tags:        []string{"control"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.TuningResponse, error) {
		p, t := s.ctrl.Params(), s.ctrl.Timing()
		return &models.TuningResponse{
			Body: models.TuningData{
				DebounceMs:     int(t.Debounce / time.Millisecond),
				LongPressMs:    int(t.LongPress / time.Millisecond),
				PeriodMinMs:    int(p.PeriodMin / time.Millisecond),
				PeriodMaxMs:    int(p.PeriodMax / time.Millisecond),
				FillIntervalMs: int(p.FillInterval / time.Millisecond),
				InputMax:       p.InputMax,
				Color:          p.Color.Hex(),
				Bounce:         p.Bounce,
				Rainbow:        p.Rainbow,
			},
		}, nil
	})
}

func toStateData(snap state.Snapshot, dropped uint64) models.StateData {
	data := models.StateData{
		Mode:           snap.Mode.String(),
		ModeIndex:      int(snap.Mode),
		LedsOff:        snap.LedsOff,
		TaskID:         snap.TaskID,
		DroppedPresses: dropped,
		UpdatedAt:      snap.UpdatedAt.Format(time.RFC3339Nano),
	}
	if snap.HasValue {
		smoothed, raw := snap.SmoothedValue, snap.RawValue
		data.SmoothedValue = &smoothed
		data.RawValue = &raw
	}
	if ev := snap.LastEvent; ev != nil {
		data.LastEvent = &models.LastEvent{
			Kind:       ev.Kind.String(),
			DurationMs: ev.PressDurationMs,
			Source:     ev.Source,
			At:         ev.At.Format(time.RFC3339Nano),
		}
	}
	return data
}
