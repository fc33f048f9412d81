// Package supervisor decides which agent acts next. Routing is a pure
// function of consent and the set of open fields.
package supervisor

import (
	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
	statex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/state"
)

type Decision struct {
	Phase statex.Phase
	Agent contractx.AgentType
}

// Input is the routing snapshot. Open holds every field that is unset and
// not declined; fields with a pending clarification are always open.
type Input struct {
	ConsentGranted bool
	Open           map[fieldx.Kind]bool
}

func InputFrom(st *statex.AgentState) Input {
	in := Input{
		ConsentGranted: st.Lead.ConsentGranted(),
		Open:           make(map[fieldx.Kind]bool, 12),
	}
	for _, s := range fieldx.All() {
		if st.Lead.Open(s.Kind) {
			in.Open[s.Kind] = true
		}
	}
	for k := range st.Clarifications {
		in.Open[k] = true
	}
	return in
}

var gathering = []Decision{
	{Phase: statex.PhaseCollecting, Agent: contractx.AgentTypeCollector},
	{Phase: statex.PhaseLocationGathering, Agent: contractx.AgentTypeLocation},
	{Phase: statex.PhasePreferencesGathering, Agent: contractx.AgentTypePreferences},
}

// Route applies the rules in strict order: consent first, then the first
// agent in collector, location, preferences order that still owns an open
// field, otherwise the conversation is complete.
func Route(in Input) Decision {
	if !in.ConsentGranted {
		return Decision{Phase: statex.PhaseAwaitingConsent, Agent: contractx.AgentTypeLegal}
	}
	for _, d := range gathering {
		if ownsOpenField(d.Agent, in.Open) {
			return d
		}
	}
	return Decision{Phase: statex.PhaseComplete, Agent: contractx.AgentTypeClosing}
}

func ownsOpenField(agent contractx.AgentType, open map[fieldx.Kind]bool) bool {
	for _, s := range fieldx.OwnedBy(agent) {
		if open[s.Kind] {
			return true
		}
	}
	return false
}
