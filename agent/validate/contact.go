package validate

import (
	"regexp"
	"strings"
)

var (
	phoneSeparators = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Phone accepts Peruvian mobile numbers: nine digits starting with 9,
// optionally prefixed by +51 or 51. Canonical form is +51XXXXXXXXX.
func Phone(raw string) Result {
	s := phoneSeparators.Replace(strings.TrimSpace(raw))
	plus := strings.HasPrefix(s, "+")
	s = strings.TrimPrefix(s, "+")
	if !allDigits(s) {
		return invalid(ReasonMalformed)
	}

	switch {
	case len(s) == 11 && strings.HasPrefix(s, "51"):
		s = s[2:]
	case len(s) == 9 && !plus:
	case plus || len(s) > 9:
		return invalid(ReasonOutOfRange)
	default:
		return invalid(ReasonMalformed)
	}

	if s[0] != '9' {
		return invalid(ReasonOutOfRange)
	}
	return valid("+51" + s)
}

func Email(raw string) Result {
	s := strings.TrimSpace(raw)
	if len(s) > 254 || !emailPattern.MatchString(s) {
		return invalid(ReasonMalformed)
	}
	if strings.Contains(s, "..") {
		return invalid(ReasonMalformed)
	}
	return valid(strings.ToLower(s))
}
