package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
	leadx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/lead"
	statex "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/state"
)

var ErrSessionNotFound = errors.New("session not found")

// LeadRepository persists the consented lead snapshot of a session.
type LeadRepository interface {
	SaveLead(ctx context.Context, sessionID string, lead leadx.Data) error
	GetLead(ctx context.Context, sessionID string) (leadx.Data, error)
}

// LeadDelivery hands a completed lead over to the sales team.
type LeadDelivery interface {
	Deliver(ctx context.Context, h Handoff) error
}

type ServiceDeps struct {
	Store      statex.Store
	Leads      LeadRepository
	Delivery   LeadDelivery
	Recorder   contractx.Recorder
	Summarizer *Summarizer
}

// Service is the session boundary: it loads and saves state around each
// engine turn and fans the results out to the side stores.
type Service struct {
	engine     *Engine
	store      statex.Store
	leads      LeadRepository
	delivery   LeadDelivery
	recorder   contractx.Recorder
	summarizer *Summarizer

	newID func() string
}

type TurnResult struct {
	SessionID string              `json:"session_id"`
	Reply     string              `json:"reply"`
	Phase     statex.Phase        `json:"phase"`
	Agent     contractx.AgentType `json:"agent"`
	Stage     leadx.Stage         `json:"stage"`
	Complete  bool                `json:"complete"`
}

func NewService(engine *Engine, deps ServiceDeps) (*Service, error) {
	if engine == nil {
		return nil, errors.New("engine is required")
	}
	if deps.Store == nil {
		return nil, errors.New("state store is required")
	}
	if deps.Recorder == nil {
		deps.Recorder = noopRecorder{}
	}
	if deps.Summarizer == nil {
		deps.Summarizer = NewSummarizer(nil)
	}

	return &Service{
		engine:     engine,
		store:      deps.Store,
		leads:      deps.Leads,
		delivery:   deps.Delivery,
		recorder:   deps.Recorder,
		summarizer: deps.Summarizer,
		newID:      uuid.NewString,
	}, nil
}

// Start opens a session, saves it and returns its id with the greeting.
func (s *Service) Start(ctx context.Context) (TurnResult, error) {
	st := s.engine.StartSession(s.newID())
	reply := s.engine.Welcome(st)
	if err := s.store.Save(ctx, st); err != nil {
		return TurnResult{}, fmt.Errorf("save new session: %w", err)
	}

	s.record(ctx, []contractx.Event{{
		SessionID: st.SessionID,
		Type:      contractx.EventSessionStarted,
		Phase:     string(st.Phase),
		At:        st.CreatedAt,
	}})
	return resultOf(st, reply), nil
}

func (s *Service) HandleMessage(ctx context.Context, sessionID string, text string) (TurnResult, error) {
	st, err := s.load(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}

	next, reply, events, err := s.engine.Advance(ctx, st, text)
	if err != nil {
		return TurnResult{}, err
	}

	toSave := next
	if !next.Lead.ConsentGranted() {
		if toSave, err = next.Redacted(); err != nil {
			return TurnResult{}, err
		}
	}
	if err := s.store.Save(ctx, toSave); err != nil {
		return TurnResult{}, fmt.Errorf("save session: %w", err)
	}

	if next.Lead.ConsentGranted() && s.leads != nil {
		if err := s.leads.SaveLead(ctx, next.SessionID, s.engine.Snapshot(next)); err != nil {
			log.Error().Err(err).Str("session_id", next.SessionID).Msg("service: save lead failed")
		}
	}
	s.record(ctx, events)
	if completedIn(events) {
		s.deliver(ctx, next)
	}

	return resultOf(next, reply), nil
}

// Lead returns the lead of a live or closed session. Sessions that left
// the state store are looked up in the lead repository.
func (s *Service) Lead(ctx context.Context, sessionID string) (leadx.Data, error) {
	st, err := s.load(ctx, sessionID)
	switch {
	case err == nil:
		return s.engine.Snapshot(st), nil
	case errors.Is(err, ErrSessionClosed):
		if st, err = s.store.LoadArchived(ctx, strings.TrimSpace(sessionID)); err != nil {
			return leadx.Data{}, fmt.Errorf("load archived session: %w", err)
		}
		return s.engine.Snapshot(st), nil
	case errors.Is(err, ErrSessionNotFound) && s.leads != nil:
		lead, lerr := s.leads.GetLead(ctx, strings.TrimSpace(sessionID))
		if lerr != nil {
			if errors.Is(lerr, contractx.ErrLeadNotFound) {
				return leadx.Data{}, ErrSessionNotFound
			}
			return leadx.Data{}, fmt.Errorf("get lead: %w", lerr)
		}
		return lead, nil
	default:
		return leadx.Data{}, err
	}
}

// Close archives the session. Archived sessions no longer accept messages.
func (s *Service) Close(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrInvalidSession
	}
	if err := s.store.Archive(ctx, sessionID); err != nil {
		if errors.Is(err, statex.ErrStateNotFound) {
			return s.missing(ctx, sessionID)
		}
		return fmt.Errorf("archive session: %w", err)
	}

	s.record(ctx, []contractx.Event{{
		SessionID: sessionID,
		Type:      contractx.EventSessionClosed,
		At:        time.Now().UTC(),
	}})
	return nil
}

func (s *Service) load(ctx context.Context, sessionID string) (*statex.AgentState, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	st, err := s.store.Load(ctx, sessionID)
	if err != nil {
		if errors.Is(err, statex.ErrStateNotFound) {
			return nil, s.missing(ctx, sessionID)
		}
		return nil, err
	}
	return st, nil
}

// missing tells a closed session from one that never existed or expired.
func (s *Service) missing(ctx context.Context, sessionID string) error {
	_, err := s.store.LoadArchived(ctx, sessionID)
	switch {
	case err == nil:
		return ErrSessionClosed
	case errors.Is(err, statex.ErrStateNotFound):
		return ErrSessionNotFound
	default:
		return fmt.Errorf("load archived session: %w", err)
	}
}

func (s *Service) record(ctx context.Context, events []contractx.Event) {
	for _, ev := range events {
		if err := s.recorder.Record(ctx, ev); err != nil {
			log.Warn().Err(err).
				Str("session_id", ev.SessionID).
				Str("event", string(ev.Type)).
				Msg("service: record event failed")
		}
	}
}

func (s *Service) deliver(ctx context.Context, st *statex.AgentState) {
	if s.delivery == nil {
		return
	}
	lead := s.engine.Snapshot(st)
	h := Handoff{
		SessionID:    st.SessionID,
		Lead:         lead,
		Stage:        lead.Stage(),
		Completeness: lead.Completeness(),
		Summary:      s.summarizer.Summarize(ctx, lead),
		CompletedAt:  st.UpdatedAt,
	}
	if err := s.delivery.Deliver(ctx, h); err != nil {
		log.Error().Err(err).Str("session_id", st.SessionID).Msg("service: lead delivery failed")
	}
}

func completedIn(events []contractx.Event) bool {
	for _, ev := range events {
		if ev.Type == contractx.EventSessionCompleted {
			return true
		}
	}
	return false
}

func resultOf(st *statex.AgentState, reply string) TurnResult {
	return TurnResult{
		SessionID: st.SessionID,
		Reply:     reply,
		Phase:     st.Phase,
		Agent:     st.LastAgent,
		Stage:     st.Lead.Stage(),
		Complete:  st.Phase == statex.PhaseComplete,
	}
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, contractx.Event) error {
	return nil
}
