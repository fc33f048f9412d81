package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
	validatex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/validate"
)

var (
	//go:embed template/questions.yaml
	questionsRaw []byte

	//go:embed template/extract.txt
	extractRaw string

	//go:embed template/summary.txt
	summaryRaw string
)

// PromptSet holds the model system prompts.
type PromptSet struct {
	Extract string
	Summary string
}

func LoadPromptSet() PromptSet {
	return PromptSet{
		Extract: strings.TrimSpace(extractRaw),
		Summary: strings.TrimSpace(summaryRaw),
	}
}

type Question struct {
	Ask      string            `yaml:"ask"`
	Rephrase map[string]string `yaml:"rephrase"`
}

// Book is the question book every agent speaks from.
type Book struct {
	Welcome  string
	Consent  Question
	Refused  string
	Acks     map[string]string
	Closings map[string]string
	Fields   map[string]Question
}

type consentSection struct {
	Ask      string            `yaml:"ask"`
	Rephrase map[string]string `yaml:"rephrase"`
	Refused  string            `yaml:"refused"`
}

type bookFile struct {
	Welcome     string              `yaml:"welcome"`
	Consent     consentSection      `yaml:"consent"`
	Acknowledge map[string]string   `yaml:"acknowledge"`
	Closing     map[string]string   `yaml:"closing"`
	Fields      map[string]Question `yaml:"fields"`
}

// LoadBook parses the embedded question book and fills {privacy_url}.
func LoadBook(privacyURL string) (Book, error) {
	var raw bookFile
	if err := yaml.Unmarshal(questionsRaw, &raw); err != nil {
		return Book{}, fmt.Errorf("%w: parse questions: %v", contractx.ErrPromptMissing, err)
	}

	fill := strings.NewReplacer("{privacy_url}", strings.TrimSpace(privacyURL))
	book := Book{
		Welcome:  raw.Welcome,
		Consent:  Question{Ask: raw.Consent.Ask, Rephrase: raw.Consent.Rephrase},
		Refused:  fill.Replace(raw.Consent.Refused),
		Acks:     raw.Acknowledge,
		Closings: raw.Closing,
		Fields:   raw.Fields,
	}
	book.Consent.Ask = fill.Replace(book.Consent.Ask)
	for reason, text := range book.Consent.Rephrase {
		book.Consent.Rephrase[reason] = fill.Replace(text)
	}

	for _, s := range fieldx.All() {
		if s.Kind == fieldx.Consent {
			if book.Consent.Ask == "" {
				return Book{}, fmt.Errorf("%w: consent question", contractx.ErrPromptMissing)
			}
			continue
		}
		if q, ok := book.Fields[string(s.Kind)]; !ok || strings.TrimSpace(q.Ask) == "" {
			return Book{}, fmt.Errorf("%w: question for %s", contractx.ErrPromptMissing, s.Kind)
		}
	}
	return book, nil
}

func MustLoadBook(privacyURL string) Book {
	book, err := LoadBook(privacyURL)
	if err != nil {
		panic(err)
	}
	return book
}

// Question returns the first-ask text for k, or the rephrasing for reason
// when one is defined.
func (b Book) Question(k fieldx.Kind, reason validatex.Reason) string {
	q := b.Consent
	if k != fieldx.Consent {
		q = b.Fields[string(k)]
	}
	if reason != validatex.ReasonNone {
		if text, ok := q.Rephrase[string(reason)]; ok && text != "" {
			return text
		}
	}
	return q.Ask
}

// Ack returns the acknowledgement for a captured field, personalised with
// the lead's name when the template asks for it.
func (b Book) Ack(k fieldx.Kind, name string) string {
	text, ok := b.Acks[string(k)]
	if !ok {
		text = b.Acks["default"]
	}
	return strings.ReplaceAll(text, "{name}", name)
}

func (b Book) Declined() string {
	return b.Acks["declined"]
}

func (b Book) Closing(followup bool, name string) string {
	key := "done"
	if followup {
		key = "followup"
	}
	text := b.Closings[key]
	if name == "" {
		text = strings.ReplaceAll(text, ", {name}", "")
	}
	return strings.ReplaceAll(text, "{name}", name)
}
