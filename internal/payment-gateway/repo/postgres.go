package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Postgres guarda os intents na tabela payment_intents
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// CreateIntent é idempotente por external_ref: mesmo ref e valor devolve o intent existente
// Usa lock pessimista para serializar chamadas concorrentes do mesmo ref
func (p *Postgres) CreateIntent(ctx context.Context, externalRef string, amount decimal.Decimal) (Intent, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Intent{}, err
	}
	defer tx.Rollback()

	existing, err := scanIntent(tx.QueryRowContext(ctx, `
		SELECT id, external_ref, amount, status, created_at, captured_at
		FROM payment_intents WHERE external_ref=$1 FOR UPDATE`, externalRef))
	if err == nil {
		if !existing.Amount.Equal(amount) {
			return Intent{}, ErrAmountConflict
		}
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Intent{}, err
	}

	in := Intent{
		ID:          "pi_" + uuid.NewString(),
		ExternalRef: externalRef,
		Amount:      amount,
		Status:      StatusRequiresCapture,
		CreatedAt:   time.Now().UTC(),
	}
	// ON CONFLICT cobre a corrida entre dois inserts do mesmo ref
	res, err := tx.ExecContext(ctx, `
		INSERT INTO payment_intents(id, external_ref, amount, status, created_at)
		VALUES($1,$2,$3,$4,$5)
		ON CONFLICT (external_ref) DO NOTHING`,
		in.ID, in.ExternalRef, in.Amount.String(), in.Status, in.CreatedAt)
	if err != nil {
		return Intent{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_ = tx.Rollback()
		winner, err := p.get(ctx, `WHERE external_ref=$1`, externalRef)
		if err != nil {
			return Intent{}, err
		}
		if !winner.Amount.Equal(amount) {
			return Intent{}, ErrAmountConflict
		}
		return winner, nil
	}
	if err := tx.Commit(); err != nil {
		return Intent{}, err
	}
	return in, nil
}

func (p *Postgres) GetIntent(ctx context.Context, id string) (Intent, error) {
	return p.get(ctx, `WHERE id=$1`, id)
}

// Capture marca o intent como CAPTURED; idempotente para intents já capturados
func (p *Postgres) Capture(ctx context.Context, id string) (Intent, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Intent{}, err
	}
	defer tx.Rollback()

	in, err := scanIntent(tx.QueryRowContext(ctx, `
		SELECT id, external_ref, amount, status, created_at, captured_at
		FROM payment_intents WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return Intent{}, err
	}
	switch in.Status {
	case StatusCaptured:
		return in, nil
	case StatusRequiresCapture:
	default:
		return Intent{}, ErrNotCapturable
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE payment_intents SET status=$1, captured_at=$2 WHERE id=$3`,
		StatusCaptured, now, id); err != nil {
		return Intent{}, err
	}
	if err := tx.Commit(); err != nil {
		return Intent{}, err
	}
	in.Status = StatusCaptured
	in.CapturedAt = &now
	return in, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) get(ctx context.Context, where string, arg any) (Intent, error) {
	return scanIntent(p.db.QueryRowContext(ctx,
		`SELECT id, external_ref, amount, status, created_at, captured_at FROM payment_intents `+where, arg))
}

func scanIntent(row *sql.Row) (Intent, error) {
	var (
		in       Intent
		amount   string
		captured sql.NullTime
	)
	if err := row.Scan(&in.ID, &in.ExternalRef, &amount, &in.Status, &in.CreatedAt, &captured); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Intent{}, ErrNotFound
		}
		return Intent{}, err
	}
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return Intent{}, err
	}
	in.Amount = amt
	if captured.Valid {
		t := captured.Time
		in.CapturedAt = &t
	}
	return in, nil
}
