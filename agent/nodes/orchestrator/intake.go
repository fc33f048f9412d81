package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	specialistx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/agents/specialist"
	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	extractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/extract"
	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
	validatex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/validate"
)

const DefaultMaxAttempts = 3

// Intake handles the answer to the pending question: capture it, record a
// decline, or open a clarification. A non-mandatory field that keeps
// failing is abandoned after maxAttempts.
func Intake(ctx context.Context, in *GraphState, extractor *extractx.Extractor, maxAttempts int) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	k := in.State.Pending
	if k == "" {
		return in, nil
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	st := in.State

	cand, found := extractor.Extract(ctx, k, in.Utterance)
	if found && cand.Declined {
		if err := st.Lead.Decline(k, in.Now); err != nil {
			return nil, err
		}
		st.CloseClarification(k)
		in.Intake = specialistx.Intake{Field: k, Declined: true}
		in.emit(contractx.Event{Type: contractx.EventFieldDeclined, Agent: st.LastAgent, Field: string(k)})
		return in, nil
	}

	var res validatex.Result
	if found {
		res = validatex.Validate(k, cand.Raw)
	} else {
		res = validatex.Validate(k, in.Utterance)
		if res.Valid {
			res = validatex.Result{Reason: validatex.ReasonAmbiguous}
		}
	}

	if res.Valid {
		if err := st.Lead.Apply(k, res, cand.Provenance, in.Now); err != nil {
			return nil, err
		}
		st.CloseClarification(k)
		in.Intake = specialistx.Intake{Field: k, Captured: true}
		ev := contractx.Event{Type: contractx.EventFieldCaptured, Agent: st.LastAgent, Field: string(k), Detail: string(cand.Provenance)}
		if k == fieldx.Consent {
			ev = contractx.Event{Type: contractx.EventConsentRecorded, Agent: st.LastAgent, Field: string(k), Detail: res.Value}
		}
		in.emit(ev)
		return in, nil
	}

	reason := res.Reason
	if reason == validatex.ReasonNone {
		reason = validatex.ReasonAmbiguous
	}
	c := st.OpenClarification(k, reason, cand.Raw, in.Now)
	log.Debug().
		Str("session_id", st.SessionID).
		Str("field", string(k)).
		Str("reason", string(reason)).
		Int("attempts", c.Attempts).
		Msg("intake: clarification opened")
	in.emit(contractx.Event{Type: contractx.EventClarificationOpened, Agent: st.LastAgent, Field: string(k), Detail: string(reason)})

	if c.Attempts >= maxAttempts && !fieldx.Mandatory(k) {
		if err := st.Lead.Decline(k, in.Now); err != nil {
			return nil, err
		}
		st.CloseClarification(k)
		in.Intake = specialistx.Intake{Field: k, Abandoned: true}
		in.emit(contractx.Event{Type: contractx.EventFieldDeclined, Agent: st.LastAgent, Field: string(k), Detail: "abandoned"})
		return in, nil
	}

	in.Intake = specialistx.Intake{Field: k, Reason: reason}
	return in, nil
}
