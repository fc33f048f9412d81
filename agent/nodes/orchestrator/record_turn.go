package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	statex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/state"
)

func RecordUserTurn(in *GraphState) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	in.State.AppendTurn(statex.SpeakerUser, "", in.Utterance, in.Now)
	in.State.Lead.Touch(in.Now)
	return in, nil
}

func RecordAssistantTurn(in *GraphState) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	in.State.AppendTurn(statex.SpeakerAssistant, in.Reply.Agent, in.Reply.Text, in.Now)
	in.State.Touch(in.Now)
	return in, nil
}
