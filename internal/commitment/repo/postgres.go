package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/radieske/commitment-bets/internal/commitment/model"
)

// Postgres implementa a persistência de apostas de compromisso em banco Postgres.
// Concorrência otimista pela coluna version; apostas liquidadas não são mais alteradas.
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const selectCols = `
	id, owner_id, title, description, category,
	target_value, current_value, stake_amount,
	start_date, end_date, phase, outcome, payment_intent_id,
	created_at, updated_at, settled_at, version`

// uniqueViolation é o SQLSTATE do Postgres para chave duplicada
const uniqueViolation = "23505"

// Create insere uma nova aposta (fase draft)
func (p *Postgres) Create(ctx context.Context, b *model.Bet) error {
	if err := b.CheckInvariants(); err != nil {
		return err
	}
	if b.Version == 0 {
		b.Version = 1
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO commitment_bets (`+selectCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		b.ID, b.OwnerID, b.Title, b.Description, string(b.Category),
		b.TargetValue, b.CurrentValue, b.StakeAmount,
		b.StartDate, b.EndDate, string(b.Phase), string(b.Outcome), nullString(b.PaymentIntentID),
		b.CreatedAt, b.UpdatedAt, b.SettledAt, b.Version,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return model.Errorf("repo.create", model.KindInvalidState, "bet %s already exists", b.ID)
	}
	if err != nil {
		return fmt.Errorf("insert bet: %w", err)
	}
	return nil
}

// Get retorna a aposta pelo id
func (p *Postgres) Get(ctx context.Context, id string) (*model.Bet, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+selectCols+` FROM commitment_bets WHERE id=$1`, id)
	b, err := scanBet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get bet: %w", err)
	}
	return b, nil
}

// Update grava a transição e registra o histórico na mesma transação.
// Só altera se version ainda for expectedVersion e a aposta não estiver liquidada.
func (p *Postgres) Update(ctx context.Context, b *model.Bet, expectedVersion int64) error {
	if err := b.CheckInvariants(); err != nil {
		return err
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var oldPhase string
	err = tx.QueryRowContext(ctx, `
		SELECT phase FROM commitment_bets WHERE id=$1 FOR UPDATE`, b.ID).Scan(&oldPhase)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(b.ID)
	}
	if err != nil {
		return fmt.Errorf("lock bet: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE commitment_bets SET
			current_value=$1, phase=$2, outcome=$3, payment_intent_id=$4,
			updated_at=$5, settled_at=$6, version=version+1
		WHERE id=$7 AND version=$8 AND phase <> 'settled'`,
		b.CurrentValue, string(b.Phase), string(b.Outcome), nullString(b.PaymentIntentID),
		b.UpdatedAt, b.SettledAt, b.ID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update bet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrVersionConflict
	}

	if oldPhase != string(b.Phase) {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO commitment_bet_transitions (bet_id, old_phase, new_phase, outcome, created_at)
			VALUES ($1,$2,$3,$4,$5)`, b.ID, oldPhase, string(b.Phase), string(b.Outcome), b.UpdatedAt); err != nil {
			return fmt.Errorf("insert transition: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	b.Version = expectedVersion + 1
	return nil
}

// DeleteDraft remove a aposta apenas se ainda estiver em draft na versão esperada
func (p *Postgres) DeleteDraft(ctx context.Context, id string, expectedVersion int64) error {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM commitment_bets WHERE id=$1 AND version=$2 AND phase='draft'`, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("delete bet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrVersionConflict
	}
	return nil
}

// ListByOwner retorna as apostas de um usuário, mais antigas primeiro
func (p *Postgres) ListByOwner(ctx context.Context, ownerID string) ([]*model.Bet, error) {
	return p.list(ctx, `SELECT `+selectCols+` FROM commitment_bets WHERE owner_id=$1 ORDER BY created_at, id`, ownerID)
}

// ListByPhase é usado pelo sweep (active) e pelo ranking (settled)
func (p *Postgres) ListByPhase(ctx context.Context, phase model.Phase) ([]*model.Bet, error) {
	return p.list(ctx, `SELECT `+selectCols+` FROM commitment_bets WHERE phase=$1 ORDER BY created_at, id`, string(phase))
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) list(ctx context.Context, q string, args ...any) ([]*model.Bet, error) {
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	defer rows.Close()
	out := make([]*model.Bet, 0)
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBet(s scanner) (*model.Bet, error) {
	var (
		b                        model.Bet
		category, phase, outcome string
		intent                   sql.NullString
		target, current, stake   decimal.Decimal
		start, end, created, upd time.Time
		settled                  sql.NullTime
	)
	if err := s.Scan(
		&b.ID, &b.OwnerID, &b.Title, &b.Description, &category,
		&target, &current, &stake,
		&start, &end, &phase, &outcome, &intent,
		&created, &upd, &settled, &b.Version,
	); err != nil {
		return nil, err
	}
	b.Category = model.Category(category)
	b.Phase = model.Phase(phase)
	b.Outcome = model.Outcome(outcome)
	b.PaymentIntentID = intent.String
	b.TargetValue, b.CurrentValue, b.StakeAmount = target, current, stake
	b.StartDate, b.EndDate = start.UTC(), end.UTC()
	b.CreatedAt, b.UpdatedAt = created.UTC(), upd.UTC()
	if settled.Valid {
		t := settled.Time.UTC()
		b.SettledAt = &t
	}
	return &b, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
