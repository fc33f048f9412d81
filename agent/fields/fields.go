// Package fields holds the static priority table shared by the supervisor,
// the agents and the lead model.
package fields

import contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"

type Kind string

const (
	Name         Kind = "name"
	PropertyType Kind = "property_type"
	Consent      Kind = "consent"
	Phone        Kind = "phone"
	District     Kind = "district"
	ProjectID    Kind = "project_id"
	Email        Kind = "email"
	Document     Kind = "document"
	Area         Kind = "area"
	Rooms        Kind = "rooms"
	Budget       Kind = "budget"
	Timeline     Kind = "timeline"
)

type Tier int

const (
	TierMandatory Tier = 10
	TierHigh      Tier = 9
	TierMedium    Tier = 8
	TierLow       Tier = 7
)

type Spec struct {
	Kind  Kind
	Tier  Tier
	Owner contractx.AgentType
}

// table is ordered by tier, then by declaration order inside a tier.
var table = []Spec{
	{Kind: Name, Tier: TierMandatory, Owner: contractx.AgentTypeCollector},
	{Kind: PropertyType, Tier: TierMandatory, Owner: contractx.AgentTypePreferences},
	{Kind: Consent, Tier: TierMandatory, Owner: contractx.AgentTypeLegal},
	{Kind: Phone, Tier: TierHigh, Owner: contractx.AgentTypeCollector},
	{Kind: District, Tier: TierHigh, Owner: contractx.AgentTypeLocation},
	{Kind: ProjectID, Tier: TierHigh, Owner: contractx.AgentTypeLocation},
	{Kind: Email, Tier: TierMedium, Owner: contractx.AgentTypeCollector},
	{Kind: Document, Tier: TierMedium, Owner: contractx.AgentTypeCollector},
	{Kind: Area, Tier: TierMedium, Owner: contractx.AgentTypePreferences},
	{Kind: Rooms, Tier: TierMedium, Owner: contractx.AgentTypePreferences},
	{Kind: Budget, Tier: TierLow, Owner: contractx.AgentTypePreferences},
	{Kind: Timeline, Tier: TierLow, Owner: contractx.AgentTypePreferences},
}

var index = func() map[Kind]int {
	m := make(map[Kind]int, len(table))
	for i, s := range table {
		m[s.Kind] = i
	}
	return m
}()

// All returns the table in priority order.
func All() []Spec {
	return append([]Spec(nil), table...)
}

func Lookup(k Kind) (Spec, bool) {
	i, ok := index[k]
	if !ok {
		return Spec{}, false
	}
	return table[i], true
}

func Known(k Kind) bool {
	_, ok := index[k]
	return ok
}

// Priority returns the position of k in the table; lower is more urgent.
func Priority(k Kind) int {
	if i, ok := index[k]; ok {
		return i
	}
	return len(table)
}

// OwnedBy returns the fields owned by agent in priority order.
func OwnedBy(agent contractx.AgentType) []Spec {
	out := make([]Spec, 0, 4)
	for _, s := range table {
		if s.Owner == agent {
			out = append(out, s)
		}
	}
	return out
}

// Tiers returns the distinct tiers, highest first.
func Tiers() []Tier {
	return []Tier{TierMandatory, TierHigh, TierMedium, TierLow}
}

// Mandatory fields can never be declined or abandoned.
func Mandatory(k Kind) bool {
	s, ok := Lookup(k)
	return ok && s.Tier == TierMandatory
}

// Personal reports whether writing k requires granted consent.
func Personal(k Kind) bool {
	return Known(k) && k != Consent
}
