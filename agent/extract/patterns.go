package extract

import (
	"regexp"
	"strings"
	"unicode"

	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
	validatex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/validate"
)

var (
	phonePattern    = regexp.MustCompile(`\+?\d[\d\s().-]{3,}\d`)
	emailPattern    = regexp.MustCompile(`[^\s@,;<>()]+@[^\s@,;<>()]+`)
	atTokenPattern  = regexp.MustCompile(`\S*@\S*`)
	typedDocPattern = regexp.MustCompile(`\b(carnet de extranjeria|carne de extranjeria|pasaporte|passport|dni|ruc|ce)\b(?:\s+es)?[\s:#.]*(?:n°|nro\.?|numero)?[\s:#.]*([a-z0-9][a-z0-9.-]{2,19})`)
	bareDocPattern  = regexp.MustCompile(`\b[a-z]?\d{6,14}\b`)
	namePhrase      = regexp.MustCompile(`(?i)(?:me llamo|mi nombre es|^soy)\s+([\p{L}' .-]+)`)
	projectPhrase   = regexp.MustCompile(`(?i)\bproyecto\s+([\p{L}\d][\p{L}\d -]{1,39})`)
	projectCode     = regexp.MustCompile(`^[A-Za-z]+[-\s]?\d+[A-Za-z\d-]*$`)
	areaPhrase      = regexp.MustCompile(`(\d[\d.,]*)\s*(?:m2|mt2|mts2|mts|metros cuadrados|metros)\b`)
	roomsPhrase     = regexp.MustCompile(`\b(\d+|[a-z]+)\s+(?:habitaciones|habitacion|dormitorios|dormitorio|cuartos|cuarto|recamaras|recamara)\b`)
)

const maxBareNameWords = 4

var notNames = map[string]bool{
	"hola": true, "buenas": true, "buenos dias": true, "buenas tardes": true, "buenas noches": true,
	"gracias": true, "si": true, "no": true, "ok": true, "vale": true, "listo": true,
}

// match runs the deterministic strategy for kind.
func match(kind fieldx.Kind, text string) (string, bool) {
	folded := validatex.Fold(text)

	switch kind {
	case fieldx.Phone:
		if m := phonePattern.FindString(text); m != "" {
			return strings.TrimSpace(m), true
		}
	case fieldx.Email:
		if m := emailPattern.FindString(text); m != "" {
			return strings.TrimRight(m, ".!?"), true
		}
		if m := atTokenPattern.FindString(text); m != "" {
			return m, true
		}
	case fieldx.Document:
		if m := typedDocPattern.FindStringSubmatch(folded); m != nil {
			return m[1] + " " + m[2], true
		}
		if m := bareDocPattern.FindString(folded); m != "" {
			return m, true
		}
	case fieldx.PropertyType:
		for _, kw := range validatex.PropertyKeywords() {
			if containsWord(folded, kw) {
				return kw, true
			}
		}
	case fieldx.Name:
		return matchName(text)
	case fieldx.District:
		if d, ok := validatex.FindDistrict(text); ok {
			return d, true
		}
	case fieldx.ProjectID:
		if m := projectPhrase.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(cutAtPunct(m[1])), true
		}
		if projectCode.MatchString(text) {
			return text, true
		}
	case fieldx.Area:
		if m := areaPhrase.FindStringSubmatch(folded); m != nil {
			return m[1], true
		}
		if validatex.Area(text).Valid {
			return text, true
		}
	case fieldx.Rooms:
		if m := roomsPhrase.FindStringSubmatch(folded); m != nil && validatex.Rooms(m[1]).Valid {
			return m[1], true
		}
		if validatex.Rooms(text).Valid {
			return text, true
		}
	case fieldx.Budget:
		if strings.IndexFunc(text, unicode.IsDigit) >= 0 {
			return text, true
		}
	case fieldx.Timeline:
		if validatex.Timeline(text).Valid {
			return text, true
		}
	}
	return "", false
}

func matchName(text string) (string, bool) {
	if m := namePhrase.FindStringSubmatch(text); m != nil {
		words := strings.Fields(cutAtPunct(m[1]))
		if len(words) > maxBareNameWords {
			words = words[:maxBareNameWords]
		}
		if len(words) > 0 && !hasIntentWord(words) {
			return strings.Join(words, " "), true
		}
		return "", false
	}
	trimmed := strings.Trim(text, " .!¡")
	if notNames[validatex.Fold(trimmed)] {
		return "", false
	}
	words := strings.Fields(trimmed)
	if len(words) == 0 || len(words) > maxBareNameWords {
		return "", false
	}
	for _, w := range words {
		for _, r := range w {
			if !unicode.IsLetter(r) && r != '\'' && r != '-' {
				return "", false
			}
		}
	}
	if hasIntentWord(words) || mentionsProperty(trimmed) {
		return "", false
	}
	if _, ok := validatex.FindDistrict(trimmed); ok {
		return "", false
	}
	return strings.Join(words, " "), true
}

// intentWords never appear in a personal name; a bare answer holding one
// is a request, not a name.
var intentWords = map[string]bool{
	"quiero": true, "quisiera": true, "busco": true, "buscando": true, "necesito": true, "deseo": true,
	"ver": true, "precio": true, "precios": true, "informacion": true, "info": true, "cuanto": true,
	"cuanta": true, "cuesta": true, "cuestan": true, "donde": true, "como": true, "cuando": true,
	"que": true, "cual": true, "tienen": true, "tiene": true, "hay": true, "venden": true,
	"comprar": true, "alquilar": true, "alquiler": true, "venta": true, "proyecto": true, "proyectos": true,
	"ayuda": true, "asesor": true, "interesa": true, "gustaria": true,
	"me": true, "mi": true, "un": true, "una": true, "por": true,
}

func hasIntentWord(words []string) bool {
	for _, w := range words {
		if intentWords[validatex.Fold(w)] {
			return true
		}
	}
	return false
}

func mentionsProperty(text string) bool {
	folded := validatex.Fold(text)
	for _, kw := range validatex.PropertyKeywords() {
		if containsWord(folded, kw) {
			return true
		}
	}
	return false
}

func cutAtPunct(s string) string {
	if i := strings.IndexAny(s, ",.;!?\n"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(strings.ToLower(s), " y "); i >= 0 {
		s = s[:i]
	}
	return s
}

// containsWord reports whether phrase occurs in folded on word boundaries.
func containsWord(folded, phrase string) bool {
	padded := " " + strings.Join(strings.Fields(punctToSpace(folded)), " ") + " "
	return strings.Contains(padded, " "+phrase+" ")
}

func punctToSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
}

var (
	doubtPhrases  = []string{"no se", "no estoy seguro", "no estoy segura", "tal vez", "quizas", "depende", "que es", "para que", "por que"}
	noPhrases     = []string{"no acepto", "no autorizo", "no deseo", "no quiero", "no doy", "rechazo", "no gracias"}
	yesPhrases    = []string{"de acuerdo", "por supuesto", "esta bien", "si acepto", "si autorizo"}
	yesWords      = map[string]bool{"si": true, "acepto": true, "autorizo": true, "claro": true, "ok": true, "okay": true, "dale": true, "correcto": true}
	negationWords = map[string]bool{"no": true, "nunca": true, "jamas": true, "tampoco": true, "ni": true}
	declinePhrase = []string{"prefiero no", "no tengo", "no quiero dar", "no deseo dar", "omitir", "omite", "omitelo", "saltar", "no aplica", "sin preferencia"}
	declineWhole  = map[string]bool{"paso": true, "no": true, "ninguno": true, "ninguna": true, "nada": true, "siguiente": true, "no gracias": true}
)

// ConsentAnswer reads an explicit yes or no. Questions, doubtful replies
// and replies that mix an affirmative with a negation return false so the
// legal question is asked again.
func ConsentAnswer(text string) (string, bool) {
	if strings.Contains(text, "?") {
		return "", false
	}
	folded := validatex.Fold(text)
	for _, p := range doubtPhrases {
		if containsWord(folded, p) {
			return "", false
		}
	}

	words := strings.Fields(punctToSpace(folded))
	rest := " " + strings.Join(words, " ") + " "
	refused := false
	for _, p := range noPhrases {
		if strings.Contains(rest, " "+p+" ") {
			refused = true
			rest = strings.ReplaceAll(rest, " "+p+" ", " ")
		}
	}

	affirmed, negated := false, false
	for _, p := range yesPhrases {
		if strings.Contains(rest, " "+p+" ") {
			affirmed = true
		}
	}
	for _, w := range strings.Fields(rest) {
		switch {
		case yesWords[w]:
			affirmed = true
		case negationWords[w]:
			negated = true
		}
	}

	switch {
	case affirmed && (refused || negated):
		return "", false
	case refused:
		return validatex.ConsentNo, true
	case negated && negationWords[words[0]]:
		return validatex.ConsentNo, true
	case affirmed && !negated:
		return validatex.ConsentYes, true
	}
	return "", false
}

// IsDecline reports whether the user refused to answer.
func IsDecline(text string) bool {
	folded := validatex.Fold(text)
	if declineWhole[strings.Join(strings.Fields(punctToSpace(folded)), " ")] {
		return true
	}
	for _, p := range declinePhrase {
		if containsWord(folded, p) {
			return true
		}
	}
	return false
}
