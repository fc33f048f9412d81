// Package extract pulls a candidate value for one field out of a user
// utterance. Deterministic patterns run first; the language model is only
// consulted for free-text fields and only when the patterns miss.
package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
	leadx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/lead"
	promptx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/prompt"
	jsonx "github.com/tanpawarit/Inmobilia-Lead-Capture/pkg/jsonx"
)

const DefaultTimeout = 8 * time.Second

// Candidate is an unvalidated value. Declined candidates carry no Raw text.
type Candidate struct {
	Kind       fieldx.Kind
	Raw        string
	Provenance leadx.Provenance
	Declined   bool
}

type Extractor struct {
	inferrer contractx.Inferrer
	system   string
	timeout  time.Duration
}

type Option func(*Extractor)

func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithSystemPrompt(p string) Option {
	return func(e *Extractor) {
		if strings.TrimSpace(p) != "" {
			e.system = p
		}
	}
}

// New builds an extractor. A nil inferrer disables the model strategy.
func New(inferrer contractx.Inferrer, opts ...Option) *Extractor {
	e := &Extractor{
		inferrer: inferrer,
		system:   promptx.LoadPromptSet().Extract,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// modelFields lists the fields the language model may fill. Consent and
// contact or identity data only ever come from explicit patterns.
var modelFields = map[fieldx.Kind]bool{
	fieldx.Name:         true,
	fieldx.PropertyType: true,
	fieldx.District:     true,
	fieldx.ProjectID:    true,
	fieldx.Area:         true,
	fieldx.Rooms:        true,
	fieldx.Budget:       true,
	fieldx.Timeline:     true,
}

// Extract returns a candidate for kind, or false when the utterance holds
// nothing usable for it.
func (e *Extractor) Extract(ctx context.Context, kind fieldx.Kind, utterance string) (Candidate, bool) {
	text := strings.TrimSpace(utterance)
	if text == "" || !fieldx.Known(kind) {
		return Candidate{}, false
	}

	if kind == fieldx.Consent {
		if answer, ok := ConsentAnswer(text); ok {
			return stated(kind, answer), true
		}
		return stated(kind, text), true
	}

	if raw, ok := match(kind, text); ok {
		return stated(kind, raw), true
	}
	if !fieldx.Mandatory(kind) && IsDecline(text) {
		return Candidate{Kind: kind, Provenance: leadx.ProvenanceDeclined, Declined: true}, true
	}
	if raw, ok := e.infer(ctx, kind, text); ok {
		return Candidate{Kind: kind, Raw: raw, Provenance: leadx.ProvenanceInferred}, true
	}
	return Candidate{}, false
}

func stated(kind fieldx.Kind, raw string) Candidate {
	return Candidate{Kind: kind, Raw: raw, Provenance: leadx.ProvenanceUserStated}
}

type inference struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
}

func (e *Extractor) infer(ctx context.Context, kind fieldx.Kind, text string) (string, bool) {
	if e.inferrer == nil || !modelFields[kind] {
		return "", false
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	user := fmt.Sprintf("campo: %s\nmensaje: %s", kind, text)
	out, err := e.inferrer.Complete(callCtx, e.system, user)
	if err != nil {
		log.Warn().Err(err).Str("field", string(kind)).Msg("extract: model call failed")
		return "", false
	}

	var res inference
	if err := jsonx.Decode(out, &res); err != nil {
		log.Warn().Err(fmt.Errorf("%w: %v", contractx.ErrSchemaViolation, err)).
			Str("field", string(kind)).
			Msg("extract: model output rejected")
		return "", false
	}
	value := strings.TrimSpace(res.Value)
	if !res.Found || value == "" {
		return "", false
	}
	return value, true
}
