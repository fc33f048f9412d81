package validate

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	TimelineImmediate   = "immediate"
	Timeline3Months     = "3_months"
	Timeline6Months     = "6_months"
	Timeline12Months    = "12_months"
	TimelineOver12Month = "over_12_months"
)

var timelineBuckets = map[string]bool{
	TimelineImmediate:   true,
	Timeline3Months:     true,
	Timeline6Months:     true,
	Timeline12Months:    true,
	TimelineOver12Month: true,
}

var (
	immediatePhrases = []string{"inmediat", "ya mismo", "lo antes posible", "cuanto antes", "urgente", "este mes", "ahora"}
	overYearPhrases  = []string{"mas de un ano", "mas de 1 ano", "mas adelante", "largo plazo"}
	durationPattern  = regexp.MustCompile(`\b(?:(\d+)\s*|([a-z]+)\s+)(meses|mes|anos|ano|semanas|semana)\b`)
)

// Timeline buckets a purchase horizon into a fixed set of ranges.
func Timeline(raw string) Result {
	s := Fold(raw)
	if timelineBuckets[s] {
		return valid(s)
	}
	for _, p := range overYearPhrases {
		if strings.Contains(s, p) {
			return valid(TimelineOver12Month)
		}
	}

	if m := durationPattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if m[1] == "" {
			w, ok := numberWords[m[2]]
			if !ok {
				return invalid(ReasonAmbiguous)
			}
			n, err = w, nil
		}
		if err != nil {
			return invalid(ReasonMalformed)
		}
		if n <= 0 {
			return invalid(ReasonOutOfRange)
		}
		months := n
		switch m[3] {
		case "ano", "anos":
			months = n * 12
		case "semana", "semanas":
			months = (n + 3) / 4
		}
		return valid(bucketMonths(months))
	}

	for _, p := range immediatePhrases {
		if strings.Contains(s, p) {
			return valid(TimelineImmediate)
		}
	}
	return invalid(ReasonAmbiguous)
}

func bucketMonths(months int) string {
	switch {
	case months <= 1:
		return TimelineImmediate
	case months <= 3:
		return Timeline3Months
	case months <= 6:
		return Timeline6Months
	case months <= 12:
		return Timeline12Months
	default:
		return TimelineOver12Month
	}
}

const (
	ConsentYes = "yes"
	ConsentNo  = "no"
)

var (
	consentYes = map[string]bool{"yes": true, "si": true, "acepto": true, "autorizo": true, "de acuerdo": true, "claro": true, "ok": true, "dale": true}
	consentNo  = map[string]bool{"no": true, "no acepto": true, "no autorizo": true, "rechazo": true}
)

// Consent normalises an explicit yes/no answer. It never infers consent
// from anything other than an explicit answer word.
func Consent(raw string) Result {
	s := strings.Trim(Fold(raw), " .!¡,")
	switch {
	case consentYes[s]:
		return valid(ConsentYes)
	case consentNo[s]:
		return valid(ConsentNo)
	default:
		return invalid(ReasonAmbiguous)
	}
}
