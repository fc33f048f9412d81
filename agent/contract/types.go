package contract

import "time"

type AgentType string

const (
	AgentTypeLegal       AgentType = "legal"
	AgentTypeCollector   AgentType = "collector"
	AgentTypeLocation    AgentType = "location"
	AgentTypePreferences AgentType = "preferences"
	AgentTypeClosing     AgentType = "closing"
)

type EventType string

const (
	EventSessionStarted      EventType = "session_started"
	EventAgentAssigned       EventType = "agent_assigned"
	EventConsentRecorded     EventType = "consent_recorded"
	EventFieldCaptured       EventType = "field_captured"
	EventFieldDeclined       EventType = "field_declined"
	EventClarificationOpened EventType = "clarification_opened"
	EventSessionCompleted    EventType = "session_completed"
	EventSessionClosed       EventType = "session_closed"
)

// Event is an analytics fact produced by a turn. Events are only emitted
// after the turn that produced them succeeded.
type Event struct {
	SessionID string    `json:"session_id"`
	Type      EventType `json:"type"`
	Agent     AgentType `json:"agent,omitempty"`
	Field     string    `json:"field,omitempty"`
	Phase     string    `json:"phase,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}
