package analytics

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	statex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/state"
	validatex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/validate"
)

type FunnelStep struct {
	Name     string `json:"name"`
	Sessions int    `json:"sessions"`
}

type FieldStat struct {
	Field          string `json:"field"`
	Captured       int    `json:"captured"`
	Inferred       int    `json:"inferred"`
	Declined       int    `json:"declined"`
	Clarifications int    `json:"clarifications"`
}

type Report struct {
	Funnel []FunnelStep `json:"funnel"`
	Fields []FieldStat  `json:"fields"`
}

// funnelStep matches events by type and, when set, by phase or detail.
type funnelStep struct {
	name   string
	typ    contractx.EventType
	phase  statex.Phase
	detail string
}

var funnelSteps = []funnelStep{
	{name: "started", typ: contractx.EventSessionStarted},
	{name: "consent_granted", typ: contractx.EventConsentRecorded, detail: validatex.ConsentYes},
	{name: string(statex.PhaseCollecting), typ: contractx.EventAgentAssigned, phase: statex.PhaseCollecting},
	{name: string(statex.PhaseLocationGathering), typ: contractx.EventAgentAssigned, phase: statex.PhaseLocationGathering},
	{name: string(statex.PhasePreferencesGathering), typ: contractx.EventAgentAssigned, phase: statex.PhasePreferencesGathering},
	{name: "completed", typ: contractx.EventSessionCompleted},
	{name: "closed", typ: contractx.EventSessionClosed},
}

// Funnel counts distinct sessions that reached each step.
func (r *SQLiteRecorder) Funnel(ctx context.Context) ([]FunnelStep, error) {
	out := make([]FunnelStep, 0, len(funnelSteps))
	for _, step := range funnelSteps {
		var n int
		err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(DISTINCT session_id) FROM events
			 WHERE type = ? AND (? = '' OR phase = ?) AND (? = '' OR detail = ?)`,
			string(step.typ), string(step.phase), string(step.phase), step.detail, step.detail,
		).Scan(&n)
		if err != nil {
			return nil, fmt.Errorf("count funnel step %s: %w", step.name, err)
		}
		out = append(out, FunnelStep{Name: step.name, Sessions: n})
	}
	return out, nil
}

// FieldStats aggregates capture, decline and clarification counts per field.
func (r *SQLiteRecorder) FieldStats(ctx context.Context) ([]FieldStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT field,
		       SUM(CASE WHEN type = ? THEN 1 ELSE 0 END),
		       SUM(CASE WHEN type = ? AND detail = 'inferred' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN type = ? THEN 1 ELSE 0 END),
		       SUM(CASE WHEN type = ? THEN 1 ELSE 0 END)
		FROM events
		WHERE field <> '' AND type IN (?, ?, ?)
		GROUP BY field
		ORDER BY field`,
		string(contractx.EventFieldCaptured),
		string(contractx.EventFieldCaptured),
		string(contractx.EventFieldDeclined),
		string(contractx.EventClarificationOpened),
		string(contractx.EventFieldCaptured),
		string(contractx.EventFieldDeclined),
		string(contractx.EventClarificationOpened),
	)
	if err != nil {
		return nil, fmt.Errorf("query field stats: %w", err)
	}
	defer rows.Close()

	var out []FieldStat
	for rows.Next() {
		var s FieldStat
		if err := rows.Scan(&s.Field, &s.Captured, &s.Inferred, &s.Declined, &s.Clarifications); err != nil {
			return nil, fmt.Errorf("scan field stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Report(ctx context.Context) (Report, error) {
	funnel, err := r.Funnel(ctx)
	if err != nil {
		return Report{}, err
	}
	fields, err := r.FieldStats(ctx)
	if err != nil {
		return Report{}, err
	}
	return Report{Funnel: funnel, Fields: fields}, nil
}
