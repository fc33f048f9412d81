package orchestratornode

import (
	"context"
	"fmt"

	specialistx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/agents/specialist"
	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
)

// Act lets exactly one agent speak. Its error fails the whole turn.
func Act(ctx context.Context, in *GraphState, agents *specialistx.Registry) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	agent, err := agents.For(in.Decision.Agent)
	if err != nil {
		return nil, err
	}
	reply, err := agent.Act(ctx, in.State, in.Intake)
	if err != nil {
		return nil, fmt.Errorf("%s agent: %w", agent.Kind(), err)
	}
	in.Reply = reply
	return in, nil
}
