package prompt

import (
	"strings"
	"testing"

	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
	validatex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/validate"
)

func TestLoadBook(t *testing.T) {
	t.Parallel()

	book, err := LoadBook("https://example.pe/privacidad")
	if err != nil {
		t.Fatalf("LoadBook() error = %v", err)
	}

	consent := book.Question(fieldx.Consent, validatex.ReasonNone)
	if !strings.Contains(consent, "29733") || !strings.Contains(consent, "https://example.pe/privacidad") {
		t.Fatalf("consent question = %q, want law reference and privacy url", consent)
	}
	if strings.Contains(book.Refused, "{privacy_url}") {
		t.Fatalf("refusal text still has a placeholder: %q", book.Refused)
	}

	for _, s := range fieldx.All() {
		if q := book.Question(s.Kind, validatex.ReasonNone); q == "" {
			t.Fatalf("Question(%s) is empty", s.Kind)
		}
	}
}

func TestQuestionRephrasing(t *testing.T) {
	t.Parallel()

	book := MustLoadBook("https://example.pe/privacidad")

	ask := book.Question(fieldx.Phone, validatex.ReasonNone)
	again := book.Question(fieldx.Phone, validatex.ReasonOutOfRange)
	if ask == again {
		t.Fatalf("out_of_range phone question should differ from the first ask")
	}

	// email has no out_of_range rephrasing and falls back to the first ask
	if got := book.Question(fieldx.Email, validatex.ReasonOutOfRange); got != book.Question(fieldx.Email, validatex.ReasonNone) {
		t.Fatalf("Question(email, out_of_range) = %q", got)
	}
}

func TestAckAndClosing(t *testing.T) {
	t.Parallel()

	book := MustLoadBook("https://example.pe/privacidad")

	if got := book.Ack(fieldx.Name, "Ana"); !strings.Contains(got, "Ana") {
		t.Fatalf("Ack(name) = %q", got)
	}
	if got := book.Ack(fieldx.Rooms, "Ana"); got != book.Acks["default"] {
		t.Fatalf("Ack(rooms) = %q, want default", got)
	}
	if got := book.Closing(false, ""); strings.Contains(got, "{name}") || strings.Contains(got, ", !") {
		t.Fatalf("Closing() = %q", got)
	}
	if got := book.Closing(true, "Ana"); !strings.Contains(got, "Ana") {
		t.Fatalf("Closing(followup) = %q", got)
	}
}

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	if set.Extract == "" || set.Summary == "" {
		t.Fatalf("LoadPromptSet() = %+v, want non-empty prompts", set)
	}
}
