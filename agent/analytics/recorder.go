package analytics

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
)

// LogRecorder writes every event to the structured log.
type LogRecorder struct{}

func (LogRecorder) Record(_ context.Context, ev contractx.Event) error {
	log.Info().
		Str("session_id", ev.SessionID).
		Str("event", string(ev.Type)).
		Str("agent", string(ev.Agent)).
		Str("field", ev.Field).
		Str("phase", ev.Phase).
		Str("detail", ev.Detail).
		Time("at", ev.At).
		Msg("analytics event")
	return nil
}

// Tee fans one event out to several recorders. Every recorder is called
// even when an earlier one fails.
type Tee []contractx.Recorder

func (t Tee) Record(ctx context.Context, ev contractx.Event) error {
	var errs []error
	for _, r := range t {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
