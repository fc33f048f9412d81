// Package specialist holds the closed set of conversational agents. Each
// agent owns a slice of the field table and speaks one question per turn.
package specialist

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
	promptx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/prompt"
	statex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/state"
	validatex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/validate"
)

type Agent interface {
	Kind() contractx.AgentType
	Handles(k fieldx.Kind) bool
	Act(ctx context.Context, st *statex.AgentState, in Intake) (Reply, error)
}

// Intake describes what the current turn did with the answer to the
// pending question, before any agent speaks.
type Intake struct {
	Field     fieldx.Kind
	Captured  bool
	Declined  bool
	Abandoned bool
	Reason    validatex.Reason
}

type Reply struct {
	Agent  contractx.AgentType
	Text   string
	Asked  fieldx.Kind
	Reason validatex.Reason
}

// fieldAgent serves collector, location and preferences: same behaviour,
// different slice of the field table.
type fieldAgent struct {
	kind  contractx.AgentType
	owned []fieldx.Spec
	book  promptx.Book
}

func newFieldAgent(kind contractx.AgentType, book promptx.Book) *fieldAgent {
	return &fieldAgent{kind: kind, owned: fieldx.OwnedBy(kind), book: book}
}

func (a *fieldAgent) Kind() contractx.AgentType {
	return a.kind
}

func (a *fieldAgent) Handles(k fieldx.Kind) bool {
	return handles(a.owned, k)
}

func (a *fieldAgent) Act(ctx context.Context, st *statex.AgentState, in Intake) (Reply, error) {
	if !st.Lead.ConsentGranted() {
		return Reply{}, fmt.Errorf("%w: %s agent cannot act before consent", contractx.ErrConsentViolation, a.kind)
	}

	k, reason, ok := nextField(st, a.owned)
	if !ok {
		return Reply{}, fmt.Errorf("%w: %s agent has no open field", contractx.ErrStateCorruption, a.kind)
	}

	text := joinReply(acknowledge(a.book, st, in), a.book.Question(k, reason))
	st.Pending = k
	st.LastAgent = a.kind
	return Reply{Agent: a.kind, Text: text, Asked: k, Reason: reason}, nil
}

// nextField picks the highest priority owned field with an open
// clarification, then the highest priority unset one.
func nextField(st *statex.AgentState, owned []fieldx.Spec) (fieldx.Kind, validatex.Reason, bool) {
	for _, s := range owned {
		if c, ok := st.Clarification(s.Kind); ok {
			return s.Kind, c.Reason, true
		}
	}
	for _, s := range owned {
		if st.Lead.Open(s.Kind) {
			return s.Kind, validatex.ReasonNone, true
		}
	}
	return "", validatex.ReasonNone, false
}

func handles(owned []fieldx.Spec, k fieldx.Kind) bool {
	for _, s := range owned {
		if s.Kind == k {
			return true
		}
	}
	return false
}

func acknowledge(book promptx.Book, st *statex.AgentState, in Intake) string {
	switch {
	case in.Captured:
		return book.Ack(in.Field, firstName(st.Lead.Name))
	case in.Declined, in.Abandoned:
		return book.Declined()
	default:
		return ""
	}
}

func joinReply(prefix, text string) string {
	if prefix == "" {
		return text
	}
	return prefix + " " + text
}
