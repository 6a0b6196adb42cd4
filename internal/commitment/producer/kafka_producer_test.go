package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/commitment-bets/pkg/contracts/events"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestPublishBetSettled(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisher(w, "bet_settled")

	err := p.PublishBetSettled(context.Background(), events.BetSettled{BetID: "b1", OwnerID: "u1", Outcome: "success", StakeAmount: "50.00"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "b1" {
		t.Fatalf("msgs=%v", w.msgs)
	}
	var got events.BetSettled
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Outcome != "success" || got.TsUnixMs == 0 {
		t.Fatalf("event=%+v", got)
	}
}

type countingSink struct {
	n   int
	err error
}

func (c *countingSink) PublishBetSettled(context.Context, events.BetSettled) error {
	c.n++
	return c.err
}

func TestMulti_DeliversToAll(t *testing.T) {
	a := &countingSink{err: errors.New("a down")}
	b := &countingSink{}
	err := Multi{a, nil, b}.PublishBetSettled(context.Background(), events.BetSettled{BetID: "b1"})
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if a.n != 1 || b.n != 1 {
		t.Fatalf("deliveries a=%d b=%d", a.n, b.n)
	}
}
