package dto

import "time"

type BetResponse struct {
	BetID           string     `json:"betId"`
	OwnerID         string     `json:"ownerId"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Category        string     `json:"category"`
	TargetValue     string     `json:"targetValue"`
	CurrentValue    string     `json:"currentValue"`
	StakeAmount     string     `json:"stakeAmount"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         time.Time  `json:"endDate"`
	Phase           string     `json:"phase"`
	Outcome         string     `json:"outcome"`
	PaymentIntentID string     `json:"paymentIntentId,omitempty"`
	SettledAt       *time.Time `json:"settledAt,omitempty"`

	// derivados
	ProgressPercent string `json:"progressPercent"`
	DaysRemaining   int    `json:"daysRemaining"`
	Status          string `json:"status"` // pending | active | on_track | won | lost
}

type BetListResponse struct {
	Bets []BetResponse `json:"bets"`
}

type PaymentIntentResponse struct {
	BetID    string `json:"betId"`
	IntentID string `json:"intentId"`
	Amount   string `json:"amount"`
}

type SummaryResponse struct {
	OwnerID        string         `json:"ownerId"`
	Total          int            `json:"total"`
	Counts         map[string]int `json:"counts"`
	TotalStaked    string         `json:"totalStaked"`
	TotalWonBack   string         `json:"totalWonBack"`
	TotalForfeited string         `json:"totalForfeited"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"playerId"`
	Points   string `json:"points"`
	Wins     int    `json:"wins"`
}

type LeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// ErrorResponse carrega o kind estável; message é apenas informativa
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
