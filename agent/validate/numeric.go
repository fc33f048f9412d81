package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numberWords = map[string]int{
	"un": 1, "uno": 1, "una": 1, "dos": 2, "tres": 3, "cuatro": 4, "cinco": 5,
	"seis": 6, "siete": 7, "ocho": 8, "nueve": 9, "diez": 10, "once": 11, "doce": 12,
}

var (
	areaPattern    = regexp.MustCompile(`^(\d[\d.,]*)\s*(m2|m²|mt2|mts2|mts|metros cuadrados|metros|m)?$`)
	roomsPattern   = regexp.MustCompile(`^(\d+|[a-z]+)\s*(habitaciones|habitacion|dormitorios|dormitorio|cuartos|cuarto|recamaras|recamara)?$`)
	amountPattern  = regexp.MustCompile(`(\d[\d.,]*)\s*(millones|millon|mil|k|m)?\b`)
	thousandsGroup = regexp.MustCompile(`^\d{1,3}([.,]\d{3})+$`)
)

// Area accepts an integer surface in square metres between 10 and 100000.
func Area(raw string) Result {
	m := areaPattern.FindStringSubmatch(Fold(raw))
	if m == nil {
		return invalid(ReasonMalformed)
	}
	v, ok := parseAmount(m[1])
	if !ok {
		return invalid(ReasonMalformed)
	}
	n := int64(math.Round(v))
	if n < 10 || n > 100000 {
		return invalid(ReasonOutOfRange)
	}
	return valid(strconv.FormatInt(n, 10))
}

// Rooms accepts a room count between 1 and 20, in digits or Spanish words.
func Rooms(raw string) Result {
	m := roomsPattern.FindStringSubmatch(Fold(raw))
	if m == nil {
		return invalid(ReasonMalformed)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		w, ok := numberWords[m[1]]
		if !ok {
			return invalid(ReasonMalformed)
		}
		n = w
	}
	if n < 1 || n > 20 {
		return invalid(ReasonOutOfRange)
	}
	return valid(strconv.Itoa(n))
}

const (
	CurrencyPEN = "PEN"
	CurrencyUSD = "USD"

	minBudget = 1_000
	maxBudget = 100_000_000
)

// Budget accepts one or two amounts with an optional currency marker and
// returns "CUR MIN-MAX". Reversed bounds are swapped; a single amount
// becomes a closed range.
func Budget(raw string) Result {
	s := Fold(raw)
	currency := detectCurrency(s)
	for _, marker := range []string{"us$", "s/.", "s/", "$", "usd", "pen"} {
		s = strings.ReplaceAll(s, marker, " ")
	}

	matches := amountPattern.FindAllStringSubmatch(s, -1)
	amounts := make([]int64, 0, 2)
	for _, m := range matches {
		v, ok := parseAmount(m[1])
		if !ok {
			return invalid(ReasonMalformed)
		}
		switch m[2] {
		case "mil", "k":
			v *= 1_000
		case "millon", "millones", "m":
			v *= 1_000_000
		}
		amounts = append(amounts, int64(math.Round(v)))
		if len(amounts) == 2 {
			break
		}
	}

	switch len(amounts) {
	case 0:
		return invalid(ReasonMalformed)
	case 1:
		amounts = append(amounts, amounts[0])
	}
	lo, hi := amounts[0], amounts[1]
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo < minBudget || hi > maxBudget {
		return invalid(ReasonOutOfRange)
	}
	return valid(fmt.Sprintf("%s %d-%d", currency, lo, hi))
}

func detectCurrency(folded string) string {
	for _, marker := range []string{"usd", "us$", "dolar", "$"} {
		if strings.Contains(folded, marker) {
			if marker == "$" && strings.Contains(folded, "s/") {
				continue
			}
			return CurrencyUSD
		}
	}
	return CurrencyPEN
}

// SplitBudget parses a canonical budget value.
func SplitBudget(canonical string) (currency string, lo, hi int64, ok bool) {
	currency, rng, found := strings.Cut(canonical, " ")
	if !found {
		return "", 0, 0, false
	}
	a, b, found := strings.Cut(rng, "-")
	if !found {
		return "", 0, 0, false
	}
	lo, err1 := strconv.ParseInt(a, 10, 64)
	hi, err2 := strconv.ParseInt(b, 10, 64)
	if err1 != nil || err2 != nil {
		return "", 0, 0, false
	}
	return currency, lo, hi, true
}

func parseAmount(s string) (float64, bool) {
	s = strings.Trim(s, ".,")
	if thousandsGroup.MatchString(s) {
		s = strings.NewReplacer(".", "", ",", "").Replace(s)
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
