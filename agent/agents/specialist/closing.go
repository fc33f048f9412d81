package specialist

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
	promptx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/prompt"
	statex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/state"
)

// closingAgent ends the conversation once nothing is left to ask. Later
// turns get the follow-up message.
type closingAgent struct {
	book promptx.Book
}

func (a *closingAgent) Kind() contractx.AgentType {
	return contractx.AgentTypeClosing
}

func (a *closingAgent) Handles(fieldx.Kind) bool {
	return false
}

func (a *closingAgent) Act(ctx context.Context, st *statex.AgentState, in Intake) (Reply, error) {
	if !st.Lead.ConsentGranted() {
		return Reply{}, fmt.Errorf("%w: closing agent cannot act before consent", contractx.ErrConsentViolation)
	}

	followup := st.LastAgent == contractx.AgentTypeClosing
	text := a.book.Closing(followup, firstName(st.Lead.Name))
	if !followup {
		text = joinReply(acknowledge(a.book, st, in), text)
	}

	st.Pending = ""
	st.LastAgent = contractx.AgentTypeClosing
	return Reply{Agent: contractx.AgentTypeClosing, Text: text}, nil
}

func firstName(full string) string {
	if f := strings.Fields(full); len(f) > 0 {
		return f[0]
	}
	return ""
}
