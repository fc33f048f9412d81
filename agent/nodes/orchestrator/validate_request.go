package orchestratornode

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	specialistx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/agents/specialist"
	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	statex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/state"
	supervisorx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/supervisor"
)

const MaxUtteranceRunes = 2000

var (
	ErrInvalidMessage = fmt.Errorf("%w: message is empty", contractx.ErrValidation)
	ErrMessageTooLong = fmt.Errorf("%w: message is too long", contractx.ErrValidation)
	ErrInvalidSession = fmt.Errorf("%w: session state is missing", contractx.ErrValidation)
	ErrSessionClosed  = fmt.Errorf("%w: session is closed", contractx.ErrValidation)
)

type GraphInput struct {
	State     *statex.AgentState
	Utterance string
}

type GraphOutput struct {
	State  *statex.AgentState
	Reply  string
	Events []contractx.Event
}

// GraphState travels through every node of one turn. State is a private
// clone of the caller's state, so a failed turn leaves the original intact.
type GraphState struct {
	Now       time.Time
	Utterance string
	State     *statex.AgentState

	Intake   specialistx.Intake
	Decision supervisorx.Decision
	Reply    specialistx.Reply
	Events   []contractx.Event
}

func (g *GraphState) emit(ev contractx.Event) {
	g.Events = append(g.Events, ev)
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	if in.State == nil || strings.TrimSpace(in.State.SessionID) == "" {
		return nil, ErrInvalidSession
	}
	if in.State.Archived {
		return nil, ErrSessionClosed
	}

	text := strings.TrimSpace(in.Utterance)
	if text == "" {
		return nil, ErrInvalidMessage
	}
	if utf8.RuneCountInString(text) > MaxUtteranceRunes {
		return nil, ErrMessageTooLong
	}

	working, err := in.State.Clone()
	if err != nil {
		return nil, err
	}

	return &GraphState{
		Now:       nowFn().UTC(),
		Utterance: text,
		State:     working,
	}, nil
}
