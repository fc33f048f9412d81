package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	statex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/state"
	supervisorx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/supervisor"
)

func Route(in *GraphState) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	st := in.State
	d := supervisorx.Route(supervisorx.InputFrom(st))

	if d.Agent != st.LastAgent {
		in.emit(contractx.Event{Type: contractx.EventAgentAssigned, Agent: d.Agent, Phase: string(d.Phase)})
	}
	if d.Phase == statex.PhaseComplete && st.Phase != statex.PhaseComplete {
		in.emit(contractx.Event{Type: contractx.EventSessionCompleted, Phase: string(d.Phase), Detail: string(st.Lead.Stage())})
	}

	st.Phase = d.Phase
	in.Decision = d
	return in, nil
}
