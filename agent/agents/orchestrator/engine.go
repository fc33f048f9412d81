package orchestrator

import (
	"context"
	"time"

	"github.com/cloudwego/eino/compose"
	specialistx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/agents/specialist"
	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	extractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/extract"
	fieldx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/fields"
	leadx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/lead"
	nodex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/nodes/orchestrator"
	promptx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/prompt"
	statex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrMessageTooLong = nodex.ErrMessageTooLong
	ErrInvalidSession = nodex.ErrInvalidSession
	ErrSessionClosed  = nodex.ErrSessionClosed
)

type EngineConfig struct {
	PrivacyURL        string        `split_words:"true" default:"https://inmobilia.pe/privacidad"`
	MaxAttempts       int           `split_words:"true" default:"3"`
	ExtractionTimeout time.Duration `split_words:"true" default:"8s"`
}

// Engine runs one conversation turn at a time. It holds no per-session
// data: every call receives and returns the full AgentState.
type Engine struct {
	book        promptx.Book
	agents      *specialistx.Registry
	extractor   *extractx.Extractor
	maxAttempts int

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

type EngineOption func(*Engine)

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine wires the turn graph. inferrer may be nil, in which case only
// deterministic extraction is used.
func NewEngine(inferrer contractx.Inferrer, cfg EngineConfig, opts ...EngineOption) (*Engine, error) {
	book, err := promptx.LoadBook(cfg.PrivacyURL)
	if err != nil {
		return nil, err
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = nodex.DefaultMaxAttempts
	}

	e := &Engine{
		book:        book,
		agents:      specialistx.NewRegistry(book),
		extractor:   extractx.New(inferrer, extractx.WithTimeout(cfg.ExtractionTimeout)),
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	graphRunner, err := e.compileAdvanceGraph(context.Background())
	if err != nil {
		return nil, err
	}
	e.graphRunner = graphRunner

	return e, nil
}

func (e *Engine) StartSession(sessionID string) *statex.AgentState {
	return statex.NewAgentState(sessionID, e.now().UTC())
}

// Welcome records the greeting as the first assistant turn and returns it.
func (e *Engine) Welcome(st *statex.AgentState) string {
	now := e.now().UTC()
	st.AppendTurn(statex.SpeakerAssistant, "", e.book.Welcome, now)
	st.Touch(now)
	return e.book.Welcome
}

// Advance runs one turn on a copy of st. On error st is untouched and no
// events are returned.
func (e *Engine) Advance(ctx context.Context, st *statex.AgentState, utterance string) (*statex.AgentState, string, []contractx.Event, error) {
	out, err := e.graphRunner.Invoke(ctx, nodex.GraphInput{
		State:     st,
		Utterance: utterance,
	})
	if err != nil {
		return nil, "", nil, err
	}
	return out.State, out.Reply, out.Events, nil
}

// Snapshot returns a copy of the lead that shares nothing with st.
func (e *Engine) Snapshot(st *statex.AgentState) leadx.Data {
	c, err := st.Clone()
	if err != nil {
		return copyLead(st.Lead)
	}
	return c.Lead
}

func copyLead(d leadx.Data) leadx.Data {
	if d.ConsentAt != nil {
		at := *d.ConsentAt
		d.ConsentAt = &at
	}
	prov := make(map[fieldx.Kind]leadx.Provenance, len(d.Provenance))
	for k, p := range d.Provenance {
		prov[k] = p
	}
	d.Provenance = prov
	return d
}
