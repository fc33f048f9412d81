package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil || in.State == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply.Text)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: %s agent returned empty message", contractx.ErrSchemaViolation, in.Reply.Agent)
	}
	if err := in.State.Validate(); err != nil {
		return GraphOutput{}, err
	}

	events := make([]contractx.Event, 0, len(in.Events))
	for _, ev := range in.Events {
		ev.SessionID = in.State.SessionID
		ev.At = in.Now
		if ev.Agent == "" {
			ev.Agent = in.Reply.Agent
		}
		events = append(events, ev)
	}
	return GraphOutput{State: in.State, Reply: reply, Events: events}, nil
}
