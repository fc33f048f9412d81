package specialist

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
	leadx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/lead"
	promptx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/prompt"
	statex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/state"
	validatex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/validate"
)

const privacyURL = "https://inmobilia.pe/privacidad"

var testNow = time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

func newRegistry(t *testing.T) (*Registry, promptx.Book) {
	t.Helper()
	book, err := promptx.LoadBook(privacyURL)
	if err != nil {
		t.Fatalf("LoadBook() error = %v", err)
	}
	return NewRegistry(book), book
}

func agentFor(t *testing.T, r *Registry, kind contractx.AgentType) Agent {
	t.Helper()
	a, err := r.For(kind)
	if err != nil {
		t.Fatalf("For(%s) error = %v", kind, err)
	}
	return a
}

func apply(t *testing.T, st *statex.AgentState, k fieldx.Kind, raw string) {
	t.Helper()
	if err := st.Lead.Apply(k, validatex.Validate(k, raw), leadx.ProvenanceUserStated, testNow); err != nil {
		t.Fatalf("Apply(%s, %q) error = %v", k, raw, err)
	}
}

func TestLegalAgentFirstTurn(t *testing.T) {
	t.Parallel()

	r, book := newRegistry(t)
	st := statex.NewAgentState("s1", testNow)
	st.AppendTurn(statex.SpeakerUser, "", "Hola", testNow)

	reply, err := agentFor(t, r, contractx.AgentTypeLegal).Act(context.Background(), st, Intake{})
	if err != nil {
		t.Fatalf("Act() error = %v", err)
	}
	if !strings.HasPrefix(reply.Text, book.Welcome) {
		t.Fatalf("first reply should open with the welcome: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "29733") || !strings.Contains(reply.Text, privacyURL) {
		t.Fatalf("consent question must cite the law and policy: %q", reply.Text)
	}
	if st.Pending != fieldx.Consent || st.LastAgent != contractx.AgentTypeLegal {
		t.Fatalf("pending = %q, last agent = %q", st.Pending, st.LastAgent)
	}
}

func TestLegalAgentRefusalAndRephrase(t *testing.T) {
	t.Parallel()

	r, book := newRegistry(t)
	legal := agentFor(t, r, contractx.AgentTypeLegal)

	st := statex.NewAgentState("s1", testNow)
	st.AppendTurn(statex.SpeakerAssistant, contractx.AgentTypeLegal, "¿Nos autorizas?", testNow)
	apply(t, st, fieldx.Consent, "no")

	reply, err := legal.Act(context.Background(), st, Intake{Field: fieldx.Consent, Captured: true})
	if err != nil {
		t.Fatalf("Act() error = %v", err)
	}
	if reply.Text != book.Refused {
		t.Fatalf("Act() after refusal = %q, want refusal text", reply.Text)
	}

	st.OpenClarification(fieldx.Consent, validatex.ReasonAmbiguous, "", testNow)
	reply, err = legal.Act(context.Background(), st, Intake{Field: fieldx.Consent, Reason: validatex.ReasonAmbiguous})
	if err != nil {
		t.Fatalf("Act() error = %v", err)
	}
	if want := book.Question(fieldx.Consent, validatex.ReasonAmbiguous); reply.Text != want {
		t.Fatalf("Act() = %q, want %q", reply.Text, want)
	}
	if reply.Reason != validatex.ReasonAmbiguous {
		t.Fatalf("reply reason = %q", reply.Reason)
	}
}

func TestAgentsRefuseWithoutConsent(t *testing.T) {
	t.Parallel()

	r, _ := newRegistry(t)
	for _, kind := range []contractx.AgentType{
		contractx.AgentTypeCollector,
		contractx.AgentTypeLocation,
		contractx.AgentTypePreferences,
		contractx.AgentTypeClosing,
	} {
		st := statex.NewAgentState("s1", testNow)
		_, err := agentFor(t, r, kind).Act(context.Background(), st, Intake{})
		if !errors.Is(err, contractx.ErrConsentViolation) {
			t.Fatalf("%s Act() error = %v, want ErrConsentViolation", kind, err)
		}
		if st.Pending != "" {
			t.Fatalf("%s set pending %q on refusal", kind, st.Pending)
		}
	}
}

func TestCollectorAsksHighestPriorityField(t *testing.T) {
	t.Parallel()

	r, book := newRegistry(t)
	collector := agentFor(t, r, contractx.AgentTypeCollector)

	st := statex.NewAgentState("s1", testNow)
	apply(t, st, fieldx.Consent, "si")

	reply, err := collector.Act(context.Background(), st, Intake{Field: fieldx.Consent, Captured: true})
	if err != nil {
		t.Fatalf("Act() error = %v", err)
	}
	if reply.Asked != fieldx.Name || st.Pending != fieldx.Name {
		t.Fatalf("asked %q, want name", reply.Asked)
	}
	want := book.Ack(fieldx.Consent, "") + " " + book.Question(fieldx.Name, validatex.ReasonNone)
	if reply.Text != want {
		t.Fatalf("Act() = %q, want %q", reply.Text, want)
	}

	apply(t, st, fieldx.Name, "ana torres")
	reply, err = collector.Act(context.Background(), st, Intake{Field: fieldx.Name, Captured: true})
	if err != nil {
		t.Fatalf("Act() error = %v", err)
	}
	if reply.Asked != fieldx.Phone {
		t.Fatalf("asked %q, want phone", reply.Asked)
	}
	if !strings.HasPrefix(reply.Text, "¡Mucho gusto, Ana!") {
		t.Fatalf("name acknowledgement missing: %q", reply.Text)
	}
}

func TestCollectorClarificationsComeFirst(t *testing.T) {
	t.Parallel()

	r, book := newRegistry(t)
	collector := agentFor(t, r, contractx.AgentTypeCollector)

	st := statex.NewAgentState("s1", testNow)
	apply(t, st, fieldx.Consent, "si")
	st.OpenClarification(fieldx.Phone, validatex.ReasonMalformed, "12345", testNow)

	reply, err := collector.Act(context.Background(), st, Intake{Field: fieldx.Phone, Reason: validatex.ReasonMalformed})
	if err != nil {
		t.Fatalf("Act() error = %v", err)
	}
	if reply.Asked != fieldx.Phone {
		t.Fatalf("asked %q, want the clarified phone before the unset name", reply.Asked)
	}
	if want := book.Question(fieldx.Phone, validatex.ReasonMalformed); reply.Text != want {
		t.Fatalf("Act() = %q, want %q", reply.Text, want)
	}
}

func TestDeclinedAcknowledgement(t *testing.T) {
	t.Parallel()

	r, book := newRegistry(t)
	st := statex.NewAgentState("s1", testNow)
	apply(t, st, fieldx.Consent, "si")
	apply(t, st, fieldx.Name, "Ana Torres")
	apply(t, st, fieldx.Phone, "987654321")
	if err := st.Lead.Decline(fieldx.Email, testNow); err != nil {
		t.Fatalf("Decline() error = %v", err)
	}

	reply, err := agentFor(t, r, contractx.AgentTypeCollector).Act(context.Background(), st, Intake{Field: fieldx.Email, Declined: true})
	if err != nil {
		t.Fatalf("Act() error = %v", err)
	}
	if reply.Asked != fieldx.Document {
		t.Fatalf("asked %q, want document", reply.Asked)
	}
	if !strings.HasPrefix(reply.Text, book.Declined()) {
		t.Fatalf("declined acknowledgement missing: %q", reply.Text)
	}
}

func TestFieldAgentWithNothingOpen(t *testing.T) {
	t.Parallel()

	r, _ := newRegistry(t)
	st := statex.NewAgentState("s1", testNow)
	apply(t, st, fieldx.Consent, "si")
	apply(t, st, fieldx.District, "Miraflores")
	apply(t, st, fieldx.ProjectID, "MIRA-2")

	_, err := agentFor(t, r, contractx.AgentTypeLocation).Act(context.Background(), st, Intake{})
	if !errors.Is(err, contractx.ErrStateCorruption) {
		t.Fatalf("Act() error = %v, want ErrStateCorruption", err)
	}
}

func TestClosingAgent(t *testing.T) {
	t.Parallel()

	r, book := newRegistry(t)
	closing := agentFor(t, r, contractx.AgentTypeClosing)

	st := statex.NewAgentState("s1", testNow)
	apply(t, st, fieldx.Consent, "si")
	apply(t, st, fieldx.Name, "Ana Torres")
	st.Pending = fieldx.Timeline

	reply, err := closing.Act(context.Background(), st, Intake{})
	if err != nil {
		t.Fatalf("Act() error = %v", err)
	}
	if reply.Text != book.Closing(false, "Ana") {
		t.Fatalf("Act() = %q", reply.Text)
	}
	if st.Pending != "" {
		t.Fatalf("pending = %q after closing", st.Pending)
	}

	reply, err = closing.Act(context.Background(), st, Intake{})
	if err != nil {
		t.Fatalf("Act() error = %v", err)
	}
	if reply.Text != book.Closing(true, "Ana") {
		t.Fatalf("follow-up = %q", reply.Text)
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r, _ := newRegistry(t)
	if _, err := r.For("sales"); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("For(sales) error = %v, want ErrValidation", err)
	}

	for _, s := range fieldx.All() {
		owner := agentFor(t, r, s.Owner)
		if !owner.Handles(s.Kind) {
			t.Fatalf("%s does not handle its own field %s", s.Owner, s.Kind)
		}
	}
	if agentFor(t, r, contractx.AgentTypeLocation).Handles(fieldx.Phone) {
		t.Fatal("location agent must not handle phone")
	}
}
