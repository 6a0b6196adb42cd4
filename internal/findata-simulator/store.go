package findatasim

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Store simula a série de cada (ownerId, category): um valor inicial derivado da chave
// que cresce a cada dia desde o primeiro acesso. Valores gravados via Set têm prioridade.
type Store struct {
	mu        sync.Mutex
	firstSeen map[string]time.Time
	fixed     map[string]decimal.Decimal
	dailyGain decimal.Decimal
}

func NewStore(dailyGain decimal.Decimal) *Store {
	return &Store{
		firstSeen: make(map[string]time.Time),
		fixed:     make(map[string]decimal.Decimal),
		dailyGain: dailyGain,
	}
}

func key(ownerID, category string) string { return ownerID + "|" + category }

// Set fixa o valor informado para a chave
func (s *Store) Set(ownerID, category string, v decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixed[key(ownerID, category)] = v
}

// Value nunca decresce com asOf crescente para a mesma chave
func (s *Store) Value(ownerID, category string, asOf time.Time) decimal.Decimal {
	k := key(ownerID, category)
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.fixed[k]; ok {
		return v
	}
	first, ok := s.firstSeen[k]
	if !ok {
		first = asOf
		s.firstSeen[k] = first
	}
	days := int64(asOf.Sub(first) / (24 * time.Hour))
	if days < 0 {
		days = 0
	}
	return base(k).Add(s.dailyGain.Mul(decimal.NewFromInt(days)))
}

// base espalha as chaves entre 0 e 499
func base(k string) decimal.Decimal {
	h := fnv.New32a()
	_, _ = h.Write([]byte(k))
	return decimal.NewFromInt(int64(h.Sum32() % 500))
}
