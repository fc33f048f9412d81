package specialist

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
	leadx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/lead"
	promptx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/prompt"
	statex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/state"
	validatex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/validate"
)

// legalAgent asks for data-processing consent under Ley N° 29733. It is the
// only agent allowed to speak before consent is granted.
type legalAgent struct {
	book promptx.Book
}

func (a *legalAgent) Kind() contractx.AgentType {
	return contractx.AgentTypeLegal
}

func (a *legalAgent) Handles(k fieldx.Kind) bool {
	return k == fieldx.Consent
}

func (a *legalAgent) Act(ctx context.Context, st *statex.AgentState, in Intake) (Reply, error) {
	if st.Lead.ConsentGranted() {
		return Reply{}, fmt.Errorf("%w: consent already granted", contractx.ErrStateCorruption)
	}

	reason := validatex.ReasonNone
	var text string
	switch {
	case in.Field == fieldx.Consent && in.Captured && st.Lead.Consent == leadx.ConsentDenied:
		text = a.book.Refused
	default:
		if c, ok := st.Clarification(fieldx.Consent); ok {
			reason = c.Reason
		}
		text = a.book.Question(fieldx.Consent, reason)
	}
	if !spokenYet(st) && strings.TrimSpace(a.book.Welcome) != "" {
		text = joinReply(a.book.Welcome, text)
	}

	st.Pending = fieldx.Consent
	st.LastAgent = contractx.AgentTypeLegal
	return Reply{Agent: contractx.AgentTypeLegal, Text: text, Asked: fieldx.Consent, Reason: reason}, nil
}

func spokenYet(st *statex.AgentState) bool {
	for _, t := range st.History {
		if t.Speaker == statex.SpeakerAssistant {
			return true
		}
	}
	return false
}
