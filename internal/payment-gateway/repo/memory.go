package repo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Memory é a versão em memória usada com STORE=memory e nos testes
type Memory struct {
	mu    sync.Mutex
	byID  map[string]*Intent
	byRef map[string]string
}

func NewMemory() *Memory {
	return &Memory{byID: make(map[string]*Intent), byRef: make(map[string]string)}
}

func (m *Memory) CreateIntent(_ context.Context, externalRef string, amount decimal.Decimal) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byRef[externalRef]; ok {
		in := m.byID[id]
		if !in.Amount.Equal(amount) {
			return Intent{}, ErrAmountConflict
		}
		return *in, nil
	}
	in := &Intent{
		ID:          "pi_" + uuid.NewString(),
		ExternalRef: externalRef,
		Amount:      amount,
		Status:      StatusRequiresCapture,
		CreatedAt:   time.Now().UTC(),
	}
	m.byID[in.ID] = in
	m.byRef[externalRef] = in.ID
	return *in, nil
}

func (m *Memory) GetIntent(_ context.Context, id string) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.byID[id]
	if !ok {
		return Intent{}, ErrNotFound
	}
	return *in, nil
}

func (m *Memory) Capture(_ context.Context, id string) (Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.byID[id]
	if !ok {
		return Intent{}, ErrNotFound
	}
	switch in.Status {
	case StatusCaptured:
	case StatusRequiresCapture:
		now := time.Now().UTC()
		in.Status = StatusCaptured
		in.CapturedAt = &now
	default:
		return Intent{}, ErrNotCapturable
	}
	return *in, nil
}

func (m *Memory) Ping(context.Context) error { return nil }
