package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/commitment-bets/pkg/contracts/events"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Refresher recalcula o leaderboard (ex.: *leaderboard.Refresher)
type Refresher interface {
	Refresh(ctx context.Context, cause string) (events.LeaderboardUpdate, error)
}

// Processor consome bet_settled do Kafka e recalcula o leaderboard a cada vitória
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log       *zap.Logger
	Reader    messageReader
	DLQ       messageWriter // opcional
	Refresher Refresher

	OnConsumed  func()       // métricas (counter++)
	OnRefreshed func()       // métricas
	OnError     func(string) // métricas por fase
}

// Run inicia o loop principal de consumo
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		p.Handle(ctx, m)
	}
}

// Handle processa uma mensagem; falhas vão para a DLQ quando configurada
func (p *Processor) Handle(ctx context.Context, m kafka.Message) {
	if p.OnConsumed != nil {
		p.OnConsumed()
	}

	var ev events.BetSettled
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.BetID == "" {
		p.Log.Warn("invalid message", zap.Error(err))
		p.fail("decode")
		p.deadLetter(ctx, m, "decode")
		return
	}

	// derrota não altera o ranking
	if ev.Outcome != "success" {
		return
	}

	if _, err := p.Refresher.Refresh(ctx, "bet_settled"); err != nil {
		p.Log.Warn("leaderboard refresh failed", zap.String("betId", ev.BetID), zap.Error(err))
		p.fail("refresh")
		p.deadLetter(ctx, m, "refresh")
		return
	}
	if p.OnRefreshed != nil {
		p.OnRefreshed()
	}
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, reason string) {
	if p.DLQ == nil {
		return
	}
	dlq := kafka.Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: append(m.Headers, kafka.Header{Key: "reason", Value: []byte(reason)}),
	}
	if err := p.DLQ.WriteMessages(ctx, dlq); err != nil {
		p.Log.Error("dlq write failed", zap.Error(err))
		p.fail("dlq")
	}
}

func (p *Processor) fail(phase string) {
	if p.OnError != nil {
		p.OnError(phase)
	}
}
