package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/radieske/commitment-bets/internal/commitment/model"
)

// Memory é o repositório em memória usado em testes e com STORE=memory.
// Mesma semântica de versão do Postgres.
type Memory struct {
	mu   sync.RWMutex
	bets map[string]*model.Bet
}

func NewMemory() *Memory { return &Memory{bets: make(map[string]*model.Bet)} }

func (m *Memory) Create(_ context.Context, b *model.Bet) error {
	if err := b.CheckInvariants(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bets[b.ID]; ok {
		return model.Errorf("repo.create", model.KindInvalidState, "bet %s already exists", b.ID)
	}
	c := b.Clone()
	if c.Version == 0 {
		c.Version = 1
	}
	b.Version = c.Version
	m.bets[b.ID] = c
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*model.Bet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bets[id]
	if !ok {
		return nil, notFound(id)
	}
	return b.Clone(), nil
}

func (m *Memory) Update(_ context.Context, b *model.Bet, expectedVersion int64) error {
	if err := b.CheckInvariants(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.bets[b.ID]
	if !ok {
		return notFound(b.ID)
	}
	if cur.Version != expectedVersion {
		return model.ErrVersionConflict
	}
	if cur.Phase == model.PhaseSettled {
		return model.E("repo.update", model.KindInvalidState, "settled bets are immutable")
	}
	c := b.Clone()
	c.Version = expectedVersion + 1
	b.Version = c.Version
	m.bets[b.ID] = c
	return nil
}

func (m *Memory) DeleteDraft(_ context.Context, id string, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.bets[id]
	if !ok {
		return notFound(id)
	}
	if cur.Version != expectedVersion || cur.Phase != model.PhaseDraft {
		return model.ErrVersionConflict
	}
	delete(m.bets, id)
	return nil
}

func (m *Memory) ListByOwner(_ context.Context, ownerID string) ([]*model.Bet, error) {
	return m.filter(func(b *model.Bet) bool { return b.OwnerID == ownerID }), nil
}

func (m *Memory) ListByPhase(_ context.Context, phase model.Phase) ([]*model.Bet, error) {
	return m.filter(func(b *model.Bet) bool { return b.Phase == phase }), nil
}

// filter devolve cópias ordenadas por criação (mesma ordem do Postgres)
func (m *Memory) filter(keep func(*model.Bet) bool) []*model.Bet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Bet, 0)
	for _, b := range m.bets {
		if keep(b) {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Ping satisfaz o health check quando não há banco
func (m *Memory) Ping(context.Context) error { return nil }

func notFound(id string) error {
	return model.Errorf("repo.get", model.KindNotFound, "bet %s not found", id)
}
