// Package validate turns raw candidate text into canonical field values.
// Every validator is pure and total: bad input yields an invalid Result,
// never an error or a panic.
package validate

import (
	"strings"
	"unicode/utf8"

	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
)

type Reason string

const (
	ReasonNone       Reason = ""
	ReasonMalformed  Reason = "malformed"
	ReasonOutOfRange Reason = "out_of_range"
	ReasonAmbiguous  Reason = "ambiguous"
)

type Result struct {
	Valid  bool   `json:"valid"`
	Value  string `json:"value,omitempty"`
	Reason Reason `json:"reason,omitempty"`
}

func valid(v string) Result {
	return Result{Valid: true, Value: v}
}

func invalid(r Reason) Result {
	return Result{Reason: r}
}

var maxInputLen = map[fieldx.Kind]int{
	fieldx.Name:     80,
	fieldx.Phone:    24,
	fieldx.Email:    254,
	fieldx.Document: 40,
}

const defaultMaxInputLen = 200

// Validate dispatches to the validator registered for kind.
func Validate(kind fieldx.Kind, raw string) Result {
	s := strings.TrimSpace(raw)
	if s == "" {
		return invalid(ReasonMalformed)
	}
	limit, ok := maxInputLen[kind]
	if !ok {
		limit = defaultMaxInputLen
	}
	if utf8.RuneCountInString(s) > limit {
		return invalid(ReasonMalformed)
	}

	switch kind {
	case fieldx.Phone:
		return Phone(s)
	case fieldx.Email:
		return Email(s)
	case fieldx.Document:
		return Document(s)
	case fieldx.PropertyType:
		return PropertyType(s)
	case fieldx.Name:
		return Name(s)
	case fieldx.District:
		return District(s)
	case fieldx.ProjectID:
		return ProjectID(s)
	case fieldx.Area:
		return Area(s)
	case fieldx.Rooms:
		return Rooms(s)
	case fieldx.Budget:
		return Budget(s)
	case fieldx.Timeline:
		return Timeline(s)
	case fieldx.Consent:
		return Consent(s)
	default:
		return invalid(ReasonMalformed)
	}
}
