package validate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	PropertyHouse      = "house"
	PropertyApartment  = "apartment"
	PropertyLand       = "land"
	PropertyCommercial = "commercial"
	PropertyOther      = "other"
)

var propertySynonyms = map[string]string{
	"house":            PropertyHouse,
	"casa":             PropertyHouse,
	"casas":            PropertyHouse,
	"chalet":           PropertyHouse,
	"vivienda":         PropertyHouse,
	"casa de playa":    PropertyHouse,
	"casa de campo":    PropertyHouse,
	"apartment":        PropertyApartment,
	"departamento":     PropertyApartment,
	"departamentos":    PropertyApartment,
	"depa":             PropertyApartment,
	"depto":            PropertyApartment,
	"dpto":             PropertyApartment,
	"apartamento":      PropertyApartment,
	"flat":             PropertyApartment,
	"duplex":           PropertyApartment,
	"penthouse":        PropertyApartment,
	"minidepartamento": PropertyApartment,
	"land":             PropertyLand,
	"terreno":          PropertyLand,
	"terrenos":         PropertyLand,
	"lote":             PropertyLand,
	"parcela":          PropertyLand,
	"commercial":       PropertyCommercial,
	"comercial":        PropertyCommercial,
	"local":            PropertyCommercial,
	"local comercial":  PropertyCommercial,
	"oficina":          PropertyCommercial,
	"tienda":           PropertyCommercial,
	"almacen":          PropertyCommercial,
	"other":            PropertyOther,
	"otro":             PropertyOther,
	"otra":             PropertyOther,
	"cochera":          PropertyOther,
	"estacionamiento":  PropertyOther,
}

var leadingArticles = []string{"un ", "una ", "el ", "la ", "los ", "las ", "unos ", "unas "}

// PropertyType maps a keyword to the closed set of property types.
func PropertyType(raw string) Result {
	s := Fold(raw)
	for _, a := range leadingArticles {
		s = strings.TrimPrefix(s, a)
	}
	if canonical, ok := propertySynonyms[s]; ok {
		return valid(canonical)
	}
	return invalid(ReasonAmbiguous)
}

// PropertyKeywords returns the synonym table keys, longest first, for
// scanning free text.
func PropertyKeywords() []string {
	return sortedByLengthDesc(propertySynonyms)
}

var namePattern = regexp.MustCompile(`^[\p{L}][\p{L}' .-]*[\p{L}.]$`)

var nameParticles = map[string]bool{
	"de": true, "del": true, "la": true, "las": true, "los": true, "y": true,
}

// Name title-cases a personal name. Particles such as "de" or "del" stay
// lower-case unless they open the name.
func Name(raw string) Result {
	s := strings.Join(strings.Fields(raw), " ")
	n := utf8.RuneCountInString(s)
	if n < 2 || n > 80 || !namePattern.MatchString(s) {
		return invalid(ReasonMalformed)
	}

	words := strings.Fields(s)
	for i, w := range words {
		lw := strings.ToLower(w)
		if i > 0 && nameParticles[lw] {
			words[i] = lw
			continue
		}
		words[i] = titleWord(lw)
	}
	return valid(strings.Join(words, " "))
}

func titleWord(w string) string {
	var b strings.Builder
	upper := true
	for _, r := range w {
		if upper && unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
		if r == '-' {
			upper = true
		}
	}
	return b.String()
}

var projectSeparators = regexp.MustCompile(`[\s_-]+`)

// ProjectID canonicalises a project reference into an upper-case slug.
func ProjectID(raw string) Result {
	s := strings.TrimSpace(raw)
	if len(s) < 2 || len(s) > 40 {
		return invalid(ReasonMalformed)
	}
	slug := strings.Trim(projectSeparators.ReplaceAllString(s, "-"), "-")
	if !alphanumeric(strings.ReplaceAll(slug, "-", "")) {
		return invalid(ReasonMalformed)
	}
	return valid(strings.ToUpper(slug))
}
