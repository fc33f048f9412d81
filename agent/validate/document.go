package validate

import (
	"strings"
)

type DocumentType string

const (
	DocumentDNI      DocumentType = "DNI"
	DocumentCE       DocumentType = "CE"
	DocumentPassport DocumentType = "PASAPORTE"
	DocumentRUC      DocumentType = "RUC"
)

// documentAliases is matched against the folded input, longest first.
var documentAliases = []struct {
	alias string
	typ   DocumentType
}{
	{"carnet de extranjeria", DocumentCE},
	{"carne de extranjeria", DocumentCE},
	{"pasaporte", DocumentPassport},
	{"passport", DocumentPassport},
	{"extranjeria", DocumentCE},
	{"dni", DocumentDNI},
	{"ruc", DocumentRUC},
	{"ce", DocumentCE},
}

var rucPrefixes = []string{"10", "15", "17", "20"}

var documentNumberCleaner = strings.NewReplacer(" ", "", "-", "", ".", "", "#", "")

// Document accepts "TYPE NUMBER", "TYPE:NUMBER" or a bare number. A bare
// number is read as DNI (8 digits) or RUC (11 digits); anything else is
// ambiguous. Canonical form is "TYPE:NUMBER".
func Document(raw string) Result {
	folded := Fold(strings.ReplaceAll(raw, ":", " "))
	typ, rest := splitDocumentType(folded)
	rest = strings.TrimPrefix(strings.TrimSpace(rest), "n°")
	rest = strings.TrimPrefix(rest, "nro")
	number := strings.ToUpper(documentNumberCleaner.Replace(rest))
	if number == "" {
		return invalid(ReasonMalformed)
	}

	if typ == "" {
		switch {
		case allDigits(number) && len(number) == 8:
			typ = DocumentDNI
		case allDigits(number) && len(number) == 11:
			typ = DocumentRUC
		case alphanumeric(number):
			return invalid(ReasonAmbiguous)
		default:
			return invalid(ReasonMalformed)
		}
	}

	if r := checkDocumentNumber(typ, number); !r.Valid {
		return r
	}
	return valid(string(typ) + ":" + number)
}

func splitDocumentType(folded string) (DocumentType, string) {
	for _, a := range documentAliases {
		if folded == a.alias {
			return a.typ, ""
		}
		if strings.HasPrefix(folded, a.alias+" ") {
			return a.typ, folded[len(a.alias)+1:]
		}
	}
	return "", folded
}

func checkDocumentNumber(typ DocumentType, number string) Result {
	switch typ {
	case DocumentDNI:
		if !allDigits(number) {
			return invalid(ReasonMalformed)
		}
		if len(number) != 8 {
			return invalid(ReasonOutOfRange)
		}
	case DocumentRUC:
		if !allDigits(number) {
			return invalid(ReasonMalformed)
		}
		if len(number) != 11 || !hasAnyPrefix(number, rucPrefixes) {
			return invalid(ReasonOutOfRange)
		}
	case DocumentCE, DocumentPassport:
		if !alphanumeric(number) {
			return invalid(ReasonMalformed)
		}
		if len(number) < 3 || len(number) > 15 {
			return invalid(ReasonOutOfRange)
		}
	default:
		return invalid(ReasonMalformed)
	}
	return valid(number)
}

// SplitDocument parses a canonical document value.
func SplitDocument(canonical string) (DocumentType, string, bool) {
	typ, number, ok := strings.Cut(canonical, ":")
	if !ok || typ == "" || number == "" {
		return "", "", false
	}
	return DocumentType(typ), number, true
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
