package events

import "time"

// Evento emitido quando uma aposta de compromisso chega ao estado terminal.
// Consumido pelo leaderboard-worker e pelo fluxo externo de reembolso/doação.
type BetSettled struct {
	BetID       string    `json:"bet_id"`
	OwnerID     string    `json:"owner_id"`
	Outcome     string    `json:"outcome"` // "success" | "failure"
	StakeAmount string    `json:"stake_amount"`
	Category    string    `json:"category"`
	SettledAt   time.Time `json:"settled_at"`
	TsUnixMs    int64     `json:"ts_unix_ms"`
}
