package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore keeps encoded states in process memory. It backs the local
// chat command and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	live     map[string][]byte
	archived map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		live:     make(map[string][]byte),
		archived: make(map[string][]byte),
	}
}

func (m *MemoryStore) Load(ctx context.Context, sessionID string) (*AgentState, error) {
	m.mu.RLock()
	raw, ok := m.live[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrStateNotFound
	}
	return decodeState(raw)
}

func (m *MemoryStore) Save(ctx context.Context, st *AgentState) error {
	if st == nil {
		return ErrNilState
	}
	if strings.TrimSpace(st.SessionID) == "" {
		return ErrInvalidSession
	}
	if err := st.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal agent state: %w", err)
	}

	m.mu.Lock()
	m.live[st.SessionID] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Archive(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.live[sessionID]
	if !ok {
		return ErrStateNotFound
	}
	st, err := decodeState(raw)
	if err != nil {
		return err
	}
	st.Archived = true
	if raw, err = json.Marshal(st); err != nil {
		return fmt.Errorf("marshal agent state: %w", err)
	}

	m.archived[sessionID] = raw
	delete(m.live, sessionID)
	return nil
}

// LoadArchived returns an archived session.
func (m *MemoryStore) LoadArchived(ctx context.Context, sessionID string) (*AgentState, error) {
	m.mu.RLock()
	raw, ok := m.archived[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrStateNotFound
	}
	return decodeState(raw)
}

func decodeState(raw []byte) (*AgentState, error) {
	var st AgentState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("unmarshal agent state: %w", err)
	}
	st.EnsureMaps()
	return &st, nil
}
