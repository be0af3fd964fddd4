// Package session keeps per-session chat history and the staged course draft.
package session

import (
	"context"
	"sync"

	"github.com/waste3d/courseforge/internal/domain"
)

// Store is the contract the build orchestrator depends on. Implementations
// must be safe for concurrent use.
type Store interface {
	History(ctx context.Context, sessionID string) ([]domain.ChatTurn, error)
	AppendHistory(ctx context.Context, sessionID string, turns ...domain.ChatTurn) error
	Draft(ctx context.Context, sessionID string) (map[string]any, bool, error)
	SetDraft(ctx context.Context, sessionID string, draft map[string]any) error
	ClearDraft(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore хранит сессии в памяти процесса, без вытеснения.
type MemoryStore struct {
	mu      sync.RWMutex
	history map[string][]domain.ChatTurn
	drafts  map[string]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		history: make(map[string][]domain.ChatTurn),
		drafts:  make(map[string]map[string]any),
	}
}

func (s *MemoryStore) History(_ context.Context, sessionID string) ([]domain.ChatTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.history[sessionID]
	out := make([]domain.ChatTurn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *MemoryStore) AppendHistory(_ context.Context, sessionID string, turns ...domain.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[sessionID] = append(s.history[sessionID], turns...)
	return nil
}

func (s *MemoryStore) Draft(_ context.Context, sessionID string) (map[string]any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[sessionID]
	return d, ok, nil
}

func (s *MemoryStore) SetDraft(_ context.Context, sessionID string, draft map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drafts[sessionID] = draft
	return nil
}

func (s *MemoryStore) ClearDraft(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.drafts, sessionID)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.history, sessionID)
	delete(s.drafts, sessionID)
	return nil
}
