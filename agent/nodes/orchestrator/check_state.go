package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
)

func CheckState(in *GraphState) (*GraphState, error) {
	if in == nil || in.State == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	in.State.EnsureMaps()
	if err := in.State.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}
