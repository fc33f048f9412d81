package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
	leadx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/lead"
	validatex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/validate"
)

type fakeInferrer struct {
	reply string
	err   error
	calls []string
}

func (f *fakeInferrer) Complete(ctx context.Context, system string, user string) (string, error) {
	f.calls = append(f.calls, user)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type blockingInferrer struct{}

func (blockingInferrer) Complete(ctx context.Context, system string, user string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestExtractPatterns(t *testing.T) {
	t.Parallel()

	ex := New(nil)
	tests := []struct {
		kind fieldx.Kind
		text string
		want string
	}{
		{kind: fieldx.Phone, text: "mi celular es 987 654 321, gracias", want: "987 654 321"},
		{kind: fieldx.Phone, text: "12345", want: "12345"},
		{kind: fieldx.Email, text: "escríbeme a Ana.Torres@Mail.com.", want: "Ana.Torres@Mail.com"},
		{kind: fieldx.Document, text: "Mi DNI es 12345678", want: "dni 12345678"},
		{kind: fieldx.Document, text: "12345678", want: "12345678"},
		{kind: fieldx.PropertyType, text: "Busco un departamento familiar", want: "departamento"},
		{kind: fieldx.Name, text: "Me llamo Ana Torres, mucho gusto", want: "Ana Torres"},
		{kind: fieldx.Name, text: "José Pérez", want: "José Pérez"},
		{kind: fieldx.District, text: "me interesa algo en San Isidro", want: "San Isidro"},
		{kind: fieldx.ProjectID, text: "el proyecto Mira Flores 2", want: "Mira Flores 2"},
		{kind: fieldx.Area, text: "unos 120 metros", want: "120"},
		{kind: fieldx.Rooms, text: "necesito tres habitaciones", want: "tres"},
		{kind: fieldx.Budget, text: "entre 150 mil y 300 mil soles", want: "entre 150 mil y 300 mil soles"},
		{kind: fieldx.Timeline, text: "en 6 meses", want: "en 6 meses"},
	}

	for _, tt := range tests {
		got, ok := ex.Extract(context.Background(), tt.kind, tt.text)
		if !ok {
			t.Fatalf("Extract(%s, %q) found nothing", tt.kind, tt.text)
		}
		if got.Raw != tt.want {
			t.Fatalf("Extract(%s, %q) = %q, want %q", tt.kind, tt.text, got.Raw, tt.want)
		}
		if got.Provenance != leadx.ProvenanceUserStated {
			t.Fatalf("Extract(%s) provenance = %s, want user_stated", tt.kind, got.Provenance)
		}
	}
}

func TestExtractedCandidatesValidate(t *testing.T) {
	t.Parallel()

	ex := New(nil)
	cases := map[fieldx.Kind]string{
		fieldx.Phone:    "987654321",
		fieldx.Document: "tengo pasaporte AB123456",
		fieldx.Rooms:    "3 dormitorios",
		fieldx.Area:     "90 m2",
	}
	for kind, text := range cases {
		c, ok := ex.Extract(context.Background(), kind, text)
		if !ok {
			t.Fatalf("Extract(%s, %q) found nothing", kind, text)
		}
		if res := validatex.Validate(kind, c.Raw); !res.Valid {
			t.Fatalf("Validate(%s, %q) = %+v, want valid", kind, c.Raw, res)
		}
	}
}

func TestConsentAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{text: "Sí, acepto", want: validatex.ConsentYes, ok: true},
		{text: "de acuerdo", want: validatex.ConsentYes, ok: true},
		{text: "No, gracias", want: validatex.ConsentNo, ok: true},
		{text: "no autorizo el uso", want: validatex.ConsentNo, ok: true},
		{text: "¿para qué usan mis datos?", ok: false},
		{text: "no sé, tal vez", ok: false},
		{text: "busco casa", ok: false},
		{text: "No", want: validatex.ConsentNo, ok: true},
		{text: "nunca", want: validatex.ConsentNo, ok: true},
		{text: "ok, sí", want: validatex.ConsentYes, ok: true},
		{text: "Claro que no", ok: false},
		{text: "ok, no", ok: false},
		{text: "si no me llaman mejor", ok: false},
		{text: "sí, pero no autorizo llamadas", ok: false},
		{text: "jamás, claro", ok: false},
	}
	for _, tt := range tests {
		got, ok := ConsentAnswer(tt.text)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("ConsentAnswer(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtractNameRejectsRequests(t *testing.T) {
	t.Parallel()

	ex := New(nil)
	for _, text := range []string{
		"quiero ver precios",
		"busco departamento",
		"cuánto cuesta",
		"Miraflores",
		"una casa",
		"me interesa",
	} {
		if c, ok := ex.Extract(context.Background(), fieldx.Name, text); ok {
			t.Fatalf("Extract(name, %q) = %+v, want miss", text, c)
		}
	}

	inf := &fakeInferrer{reply: `{"found": false, "value": ""}`}
	ex = New(inf)
	if c, ok := ex.Extract(context.Background(), fieldx.Name, "quiero ver precios"); ok {
		t.Fatalf("Extract() = %+v, want miss", c)
	}
	if len(inf.calls) != 1 {
		t.Fatalf("model calls = %d, want 1", len(inf.calls))
	}

	if c, ok := New(nil).Extract(context.Background(), fieldx.Name, "María del Carmen"); !ok || c.Raw != "María del Carmen" {
		t.Fatalf("Extract(name, bare name) = %+v, %v", c, ok)
	}
}

func TestExtractConsentAlwaysYieldsCandidate(t *testing.T) {
	t.Parallel()

	ex := New(nil)
	c, ok := ex.Extract(context.Background(), fieldx.Consent, "Sí, acepto")
	if !ok || c.Raw != validatex.ConsentYes {
		t.Fatalf("Extract(consent) = %+v, %v", c, ok)
	}

	c, ok = ex.Extract(context.Background(), fieldx.Consent, "¿qué datos guardan?")
	if !ok {
		t.Fatal("Extract(consent question) found nothing")
	}
	if res := validatex.Validate(fieldx.Consent, c.Raw); res.Valid || res.Reason != validatex.ReasonAmbiguous {
		t.Fatalf("Validate(consent question) = %+v, want ambiguous", res)
	}
}

func TestExtractDecline(t *testing.T) {
	t.Parallel()

	ex := New(nil)
	c, ok := ex.Extract(context.Background(), fieldx.Email, "prefiero no darlo")
	if !ok || !c.Declined || c.Raw != "" {
		t.Fatalf("Extract(email decline) = %+v, %v", c, ok)
	}

	if _, ok := ex.Extract(context.Background(), fieldx.Name, "prefiero no decirlo ahora mismo por favor"); ok {
		t.Fatal("mandatory field must not be declined")
	}

	if !IsDecline("Paso.") {
		t.Fatal(`IsDecline("Paso.") = false`)
	}
	if IsDecline("te paso mi número luego") {
		t.Fatal(`IsDecline("te paso mi número luego") = true`)
	}
}

func TestExtractUsesModelForFreeText(t *testing.T) {
	t.Parallel()

	inf := &fakeInferrer{reply: "```json\n{\"found\": true, \"value\": \"casa de playa\"}\n```"}
	ex := New(inf)
	c, ok := ex.Extract(context.Background(), fieldx.PropertyType, "algo para el verano cerca al mar")
	if !ok {
		t.Fatal("Extract() found nothing")
	}
	if c.Raw != "casa de playa" || c.Provenance != leadx.ProvenanceInferred {
		t.Fatalf("Extract() = %+v", c)
	}
	if len(inf.calls) != 1 || !strings.Contains(inf.calls[0], "property_type") {
		t.Fatalf("model calls = %v", inf.calls)
	}
}

func TestExtractNeverAsksModelForContactData(t *testing.T) {
	t.Parallel()

	inf := &fakeInferrer{reply: `{"found": true, "value": "987654321"}`}
	ex := New(inf)
	for _, kind := range []fieldx.Kind{fieldx.Consent, fieldx.Phone, fieldx.Email, fieldx.Document} {
		ex.Extract(context.Background(), kind, "llámame luego")
	}
	if len(inf.calls) != 0 {
		t.Fatalf("model calls = %v, want none", inf.calls)
	}
}

func TestExtractModelFailureIsAMiss(t *testing.T) {
	t.Parallel()

	tests := map[string]*fakeInferrer{
		"error":     {err: errors.New("boom")},
		"not found": {reply: `{"found": false, "value": ""}`},
		"garbage":   {reply: "lo siento, no puedo"},
	}
	for name, inf := range tests {
		ex := New(inf)
		if c, ok := ex.Extract(context.Background(), fieldx.Timeline, "pues veremos"); ok {
			t.Fatalf("%s: Extract() = %+v, want miss", name, c)
		}
	}
}

func TestExtractModelTimeout(t *testing.T) {
	t.Parallel()

	ex := New(blockingInferrer{}, WithTimeout(20*time.Millisecond))
	start := time.Now()
	if _, ok := ex.Extract(context.Background(), fieldx.Budget, "lo normal"); ok {
		t.Fatal("Extract() should miss on timeout")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Extract() took %s", elapsed)
	}
}
