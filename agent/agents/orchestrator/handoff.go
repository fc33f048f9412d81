package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
	leadx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/lead"
	promptx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/prompt"
	qstashx "github.com/tanpawarit/Inmobilia-Lead-Capture/pkg/qstash"
)

// Handoff is the payload a sales advisor receives for a completed lead.
type Handoff struct {
	SessionID    string             `json:"session_id"`
	Lead         leadx.Data         `json:"lead"`
	Stage        leadx.Stage        `json:"stage"`
	Completeness leadx.Completeness `json:"completeness"`
	Summary      string             `json:"summary"`
	CompletedAt  time.Time          `json:"completed_at"`
}

const defaultSummaryTimeout = 15 * time.Second

// Summarizer writes the advisor summary. Without an inferrer, or when the
// model fails, it falls back to a fixed template.
type Summarizer struct {
	inferrer contractx.Inferrer
	system   string
	timeout  time.Duration
}

func NewSummarizer(inferrer contractx.Inferrer) *Summarizer {
	return &Summarizer{
		inferrer: inferrer,
		system:   promptx.LoadPromptSet().Summary,
		timeout:  defaultSummaryTimeout,
	}
}

func (s *Summarizer) Summarize(ctx context.Context, lead leadx.Data) string {
	if s.inferrer == nil {
		return FallbackSummary(lead)
	}

	facts, err := json.Marshal(summaryFacts(lead))
	if err != nil {
		return FallbackSummary(lead)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	out, err := s.inferrer.Complete(callCtx, s.system, string(facts))
	if err != nil {
		log.Warn().Err(err).Msg("summary: model call failed")
		return FallbackSummary(lead)
	}
	if out = strings.TrimSpace(out); out == "" {
		return FallbackSummary(lead)
	}
	return out
}

// summaryFacts lists what the model may see. Identity documents are left
// out on purpose.
func summaryFacts(lead leadx.Data) map[string]string {
	facts := make(map[string]string, 10)
	for _, s := range fieldx.All() {
		if s.Kind == fieldx.Document || s.Kind == fieldx.Consent {
			continue
		}
		if v := lead.Value(s.Kind); v != "" {
			facts[string(s.Kind)] = v
		}
	}
	if lead.Zone != "" {
		facts["zone"] = lead.Zone
	}
	return facts
}

var propertyLabels = map[string]string{
	"house":      "una casa",
	"apartment":  "un departamento",
	"land":       "un terreno",
	"commercial": "un local comercial",
	"other":      "un inmueble",
}

var timelineLabels = map[string]string{
	"immediate":      "de inmediato",
	"3_months":       "en los próximos 3 meses",
	"6_months":       "en los próximos 6 meses",
	"12_months":      "en el próximo año",
	"over_12_months": "en más de un año",
}

func FallbackSummary(lead leadx.Data) string {
	who := lead.Name
	if who == "" {
		who = "El cliente"
	}
	what := propertyLabels[lead.PropertyType]
	if what == "" {
		what = "un inmueble"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s busca %s", who, what)
	if lead.District != "" {
		fmt.Fprintf(&b, " en %s", lead.District)
		if lead.Zone != "" && lead.Zone != lead.District {
			fmt.Fprintf(&b, " (%s)", lead.Zone)
		}
	}
	if lead.ProjectID != "" {
		fmt.Fprintf(&b, ", proyecto %s", lead.ProjectID)
	}
	b.WriteString(".")

	var details []string
	if lead.Rooms > 0 {
		details = append(details, fmt.Sprintf("%d habitaciones", lead.Rooms))
	}
	if lead.AreaM2 > 0 {
		details = append(details, fmt.Sprintf("%d m2", lead.AreaM2))
	}
	if lead.BudgetMax > 0 {
		details = append(details, fmt.Sprintf("presupuesto %s %d-%d", lead.BudgetCurrency, lead.BudgetMin, lead.BudgetMax))
	}
	if label := timelineLabels[lead.Timeline]; label != "" {
		details = append(details, "compra "+label)
	}
	if len(details) > 0 {
		fmt.Fprintf(&b, " Requisitos: %s.", strings.Join(details, ", "))
	}

	var contact []string
	if lead.Phone != "" {
		contact = append(contact, lead.Phone)
	}
	if lead.Email != "" {
		contact = append(contact, lead.Email)
	}
	if len(contact) > 0 {
		fmt.Fprintf(&b, " Contacto: %s.", strings.Join(contact, " / "))
	}
	return b.String()
}

// QStashDelivery publishes handoffs to a CRM webhook through QStash.
type QStashDelivery struct {
	client      *qstashx.Client
	destination string
}

func NewQStashDelivery(client *qstashx.Client, destination string) (*QStashDelivery, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: qstash client is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(destination) == "" {
		return nil, fmt.Errorf("%w: lead webhook destination is required", contractx.ErrValidation)
	}
	return &QStashDelivery{client: client, destination: strings.TrimSpace(destination)}, nil
}

func (d *QStashDelivery) Deliver(ctx context.Context, h Handoff) error {
	if !h.Lead.ConsentGranted() {
		return fmt.Errorf("%w: cannot deliver lead %s", contractx.ErrConsentViolation, h.SessionID)
	}
	body, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal handoff: %w", err)
	}
	id, err := d.client.Publish(ctx, d.destination, body)
	if err != nil {
		return err
	}
	log.Info().Str("session_id", h.SessionID).Str("message_id", id).Msg("lead delivered")
	return nil
}
