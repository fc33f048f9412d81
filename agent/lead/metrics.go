package lead

import (
	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
)

type Stage string

const (
	StageConversationStarted Stage = "conversacion_iniciada"
	StagePreLead             Stage = "pre_lead"
	StageLead                Stage = "lead"
	StageEnrichedLead        Stage = "lead_enriquecido"
)

type TierCount struct {
	Tier     fieldx.Tier `json:"tier"`
	Captured int         `json:"captured"`
	Declined int         `json:"declined"`
	Total    int         `json:"total"`
}

type Completeness struct {
	Tiers   []TierCount `json:"tiers"`
	Percent int         `json:"percent"`
}

// Missing returns the open fields at or above minTier, in priority order.
func (d *Data) Missing(minTier fieldx.Tier) []fieldx.Kind {
	out := make([]fieldx.Kind, 0, 4)
	for _, s := range fieldx.All() {
		if s.Tier >= minTier && d.Open(s.Kind) {
			out = append(out, s.Kind)
		}
	}
	return out
}

// Complete reports whether no field is left open.
func (d *Data) Complete() bool {
	return len(d.Missing(fieldx.TierLow)) == 0
}

func (d *Data) Completeness() Completeness {
	byTier := make(map[fieldx.Tier]*TierCount, 4)
	for _, t := range fieldx.Tiers() {
		byTier[t] = &TierCount{Tier: t}
	}

	captured, total := 0, 0
	for _, s := range fieldx.All() {
		c := byTier[s.Tier]
		c.Total++
		total++
		switch {
		case d.IsSet(s.Kind):
			c.Captured++
			captured++
		case d.Declined(s.Kind):
			c.Declined++
		}
	}

	out := Completeness{Tiers: make([]TierCount, 0, len(byTier))}
	for _, t := range fieldx.Tiers() {
		out.Tiers = append(out.Tiers, *byTier[t])
	}
	if total > 0 {
		out.Percent = captured * 100 / total
	}
	return out
}

// Stage grades the lead by how many fields of each tier were captured.
func (d *Data) Stage() Stage {
	counts := d.Completeness()
	captured := make(map[fieldx.Tier]TierCount, len(counts.Tiers))
	for _, c := range counts.Tiers {
		captured[c.Tier] = c
	}

	mandatory := captured[fieldx.TierMandatory]
	switch {
	case mandatory.Captured < mandatory.Total:
		return StageConversationStarted
	case captured[fieldx.TierHigh].Captured < 2:
		return StagePreLead
	case captured[fieldx.TierMedium].Captured < 2:
		return StageLead
	default:
		return StageEnrichedLead
	}
}
