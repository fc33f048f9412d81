package specialist

import (
	"fmt"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	promptx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/prompt"
)

type Registry struct {
	agents map[contractx.AgentType]Agent
}

func NewRegistry(book promptx.Book) *Registry {
	agents := []Agent{
		&legalAgent{book: book},
		newFieldAgent(contractx.AgentTypeCollector, book),
		newFieldAgent(contractx.AgentTypeLocation, book),
		newFieldAgent(contractx.AgentTypePreferences, book),
		&closingAgent{book: book},
	}

	r := &Registry{agents: make(map[contractx.AgentType]Agent, len(agents))}
	for _, a := range agents {
		r.agents[a.Kind()] = a
	}
	return r
}

func (r *Registry) For(kind contractx.AgentType) (Agent, error) {
	a, ok := r.agents[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no agent for %q", contractx.ErrValidation, kind)
	}
	return a, nil
}
