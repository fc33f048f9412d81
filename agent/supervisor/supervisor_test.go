package supervisor

import (
	"testing"
	"time"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
	leadx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/lead"
	statex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/state"
	validatex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/validate"
)

var testNow = time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

func openExcept(kinds ...fieldx.Kind) map[fieldx.Kind]bool {
	closed := make(map[fieldx.Kind]bool, len(kinds))
	for _, k := range kinds {
		closed[k] = true
	}
	open := make(map[fieldx.Kind]bool)
	for _, s := range fieldx.All() {
		if !closed[s.Kind] {
			open[s.Kind] = true
		}
	}
	return open
}

func TestRoute(t *testing.T) {
	t.Parallel()

	collector := []fieldx.Kind{fieldx.Consent, fieldx.Name, fieldx.Phone, fieldx.Email, fieldx.Document}
	location := append(append([]fieldx.Kind(nil), collector...), fieldx.District, fieldx.ProjectID)
	everything := make([]fieldx.Kind, 0, 12)
	for _, s := range fieldx.All() {
		everything = append(everything, s.Kind)
	}

	tests := []struct {
		name string
		in   Input
		want Decision
	}{
		{
			name: "no consent routes to legal even with everything else closed",
			in:   Input{ConsentGranted: false, Open: map[fieldx.Kind]bool{fieldx.Consent: true}},
			want: Decision{Phase: statex.PhaseAwaitingConsent, Agent: contractx.AgentTypeLegal},
		},
		{
			name: "consent granted and name missing routes to collector",
			in:   Input{ConsentGranted: true, Open: openExcept(fieldx.Consent)},
			want: Decision{Phase: statex.PhaseCollecting, Agent: contractx.AgentTypeCollector},
		},
		{
			name: "only a collector clarification left",
			in:   Input{ConsentGranted: true, Open: map[fieldx.Kind]bool{fieldx.Email: true, fieldx.Budget: true}},
			want: Decision{Phase: statex.PhaseCollecting, Agent: contractx.AgentTypeCollector},
		},
		{
			name: "collector done routes to location",
			in:   Input{ConsentGranted: true, Open: openExcept(collector...)},
			want: Decision{Phase: statex.PhaseLocationGathering, Agent: contractx.AgentTypeLocation},
		},
		{
			name: "location done routes to preferences",
			in:   Input{ConsentGranted: true, Open: openExcept(location...)},
			want: Decision{Phase: statex.PhasePreferencesGathering, Agent: contractx.AgentTypePreferences},
		},
		{
			name: "nothing open completes",
			in:   Input{ConsentGranted: true, Open: openExcept(everything...)},
			want: Decision{Phase: statex.PhaseComplete, Agent: contractx.AgentTypeClosing},
		},
	}

	for _, tt := range tests {
		if got := Route(tt.in); got != tt.want {
			t.Fatalf("%s: Route() = %+v, want %+v", tt.name, got, tt.want)
		}
		if again := Route(tt.in); again != tt.want {
			t.Fatalf("%s: Route() is not deterministic", tt.name)
		}
	}
}

func TestInputFromTreatsDeclinedAsClosed(t *testing.T) {
	t.Parallel()

	st := statex.NewAgentState("s1", testNow)
	if got := Route(InputFrom(st)); got.Agent != contractx.AgentTypeLegal {
		t.Fatalf("Route(new state) = %+v, want legal", got)
	}

	apply := func(k fieldx.Kind, raw string) {
		t.Helper()
		if err := st.Lead.Apply(k, validatex.Validate(k, raw), leadx.ProvenanceUserStated, testNow); err != nil {
			t.Fatalf("Apply(%s) error = %v", k, err)
		}
	}
	apply(fieldx.Consent, "sí")
	apply(fieldx.Name, "Ana Torres")
	apply(fieldx.Phone, "987654321")
	for _, k := range []fieldx.Kind{fieldx.Email, fieldx.Document} {
		if err := st.Lead.Decline(k, testNow); err != nil {
			t.Fatalf("Decline(%s) error = %v", k, err)
		}
	}

	in := InputFrom(st)
	if in.Open[fieldx.Email] || in.Open[fieldx.Document] {
		t.Fatalf("declined fields reported open: %v", in.Open)
	}
	if got := Route(in); got.Agent != contractx.AgentTypeLocation {
		t.Fatalf("Route() = %+v, want location", got)
	}
}
