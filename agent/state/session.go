package state

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
	leadx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/lead"
	validatex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/validate"
)

type Phase string

const (
	PhaseAwaitingConsent      Phase = "awaiting_consent"
	PhaseCollecting           Phase = "collecting"
	PhaseLocationGathering    Phase = "location_gathering"
	PhasePreferencesGathering Phase = "preferences_gathering"
	PhaseComplete             Phase = "complete"
)

type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

const redactedUtterance = "[redacted]"

type Turn struct {
	Speaker   Speaker             `json:"speaker"`
	Agent     contractx.AgentType `json:"agent,omitempty"`
	Utterance string              `json:"utterance"`
	At        time.Time           `json:"at"`
}

// Clarification tracks a field whose last answer could not be captured.
// Candidate keeps the raw text until it is validated or discarded; it is
// never copied into the lead.
type Clarification struct {
	Reason    validatex.Reason `json:"reason"`
	Attempts  int              `json:"attempts"`
	Candidate string           `json:"candidate,omitempty"`
	OpenedAt  time.Time        `json:"opened_at"`
}

// AgentState is the whole conversation: the lead being built, the
// transcript and the bookkeeping the supervisor routes on.
type AgentState struct {
	SessionID string     `json:"session_id"`
	Lead      leadx.Data `json:"lead"`
	History   []Turn     `json:"history,omitempty"`

	LastAgent      contractx.AgentType            `json:"last_agent,omitempty"`
	Phase          Phase                          `json:"phase"`
	Pending        fieldx.Kind                    `json:"pending,omitempty"`
	Clarifications map[fieldx.Kind]*Clarification `json:"clarifications,omitempty"`

	Archived  bool      `json:"archived,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewAgentState(sessionID string, now time.Time) *AgentState {
	now = now.UTC()
	return &AgentState{
		SessionID:      sessionID,
		Lead:           leadx.New(now),
		Phase:          PhaseAwaitingConsent,
		Clarifications: make(map[fieldx.Kind]*Clarification, 2),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *AgentState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// EnsureMaps initialises maps that JSON decoding may leave nil.
func (s *AgentState) EnsureMaps() {
	if s.Clarifications == nil {
		s.Clarifications = make(map[fieldx.Kind]*Clarification, 2)
	}
	if s.Lead.Provenance == nil {
		s.Lead.Provenance = make(map[fieldx.Kind]leadx.Provenance, 12)
	}
}

func (s *AgentState) AppendTurn(speaker Speaker, agent contractx.AgentType, utterance string, now time.Time) {
	s.History = append(s.History, Turn{
		Speaker:   speaker,
		Agent:     agent,
		Utterance: utterance,
		At:        now.UTC(),
	})
}

// OpenClarification opens or refreshes the clarification for k and returns
// it with its attempt counter incremented.
func (s *AgentState) OpenClarification(k fieldx.Kind, reason validatex.Reason, candidate string, now time.Time) *Clarification {
	s.EnsureMaps()
	c, ok := s.Clarifications[k]
	if !ok {
		c = &Clarification{OpenedAt: now.UTC()}
		s.Clarifications[k] = c
	}
	c.Reason = reason
	c.Candidate = candidate
	c.Attempts++
	return c
}

func (s *AgentState) CloseClarification(k fieldx.Kind) {
	delete(s.Clarifications, k)
}

func (s *AgentState) Clarification(k fieldx.Kind) (*Clarification, bool) {
	c, ok := s.Clarifications[k]
	return c, ok
}

// Clone returns a deep copy.
func (s *AgentState) Clone() (*AgentState, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("clone agent state: %w", err)
	}
	var out AgentState
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("clone agent state: %w", err)
	}
	out.EnsureMaps()
	return &out, nil
}

// Redacted returns a copy safe to persist before consent is granted: user
// utterances and pending candidates are dropped.
func (s *AgentState) Redacted() (*AgentState, error) {
	out, err := s.Clone()
	if err != nil {
		return nil, err
	}
	if out.Lead.ConsentGranted() {
		return out, nil
	}
	for i := range out.History {
		if out.History[i].Speaker == SpeakerUser {
			out.History[i].Utterance = redactedUtterance
		}
	}
	for _, c := range out.Clarifications {
		c.Candidate = ""
	}
	return out, nil
}

// Validate checks the structural invariants a persisted state must hold.
func (s *AgentState) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil state", contractx.ErrStateCorruption)
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return fmt.Errorf("%w: empty session id", contractx.ErrStateCorruption)
	}

	lead := &s.Lead
	switch lead.Consent {
	case leadx.ConsentGranted:
		if lead.ConsentAt == nil {
			return fmt.Errorf("%w: consent granted without timestamp", contractx.ErrStateCorruption)
		}
	case leadx.ConsentPending, leadx.ConsentDenied:
		if lead.ConsentAt != nil {
			return fmt.Errorf("%w: consent timestamp without granted consent", contractx.ErrStateCorruption)
		}
	default:
		return fmt.Errorf("%w: unknown consent status %q", contractx.ErrStateCorruption, lead.Consent)
	}

	if !lead.ConsentGranted() {
		for _, spec := range fieldx.All() {
			if fieldx.Personal(spec.Kind) && (lead.IsSet(spec.Kind) || lead.Declined(spec.Kind)) {
				return fmt.Errorf("%w: %s recorded without consent", contractx.ErrStateCorruption, spec.Kind)
			}
		}
	}

	if s.Pending != "" && !fieldx.Known(s.Pending) {
		return fmt.Errorf("%w: unknown pending field %q", contractx.ErrStateCorruption, s.Pending)
	}
	for k := range s.Clarifications {
		if !fieldx.Known(k) {
			return fmt.Errorf("%w: clarification for unknown field %q", contractx.ErrStateCorruption, k)
		}
		if lead.IsSet(k) {
			return fmt.Errorf("%w: clarification open for captured field %s", contractx.ErrStateCorruption, k)
		}
	}
	return nil
}
