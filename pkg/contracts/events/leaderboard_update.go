package events

import "time"

// Payload publicado no canal Redis "leaderboard_updates" após cada reconstrução do ranking.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Points   string `json:"points"`
	Wins     int    `json:"wins"`
}

type LeaderboardUpdate struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updated_at"`
	Cause     string             `json:"cause,omitempty"` // bet id que disparou a reconstrução
}
