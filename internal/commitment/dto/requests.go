package dto

// Valores monetários trafegam como string decimal ("50.00")

type CreateBetRequest struct {
	OwnerID      string `json:"ownerId"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Category     string `json:"category"` // savings | debt | investment | purchase | spending_limit | habit_change
	TargetValue  string `json:"targetValue"`
	StakeAmount  string `json:"stakeAmount"`
	DurationDays int    `json:"durationDays"`
}

type ActivateRequest struct {
	IntentID   string `json:"intentId"`
	AmountPaid string `json:"amountPaid"`
}

// ResolveRequest sem currentValue consulta o provedor de dados
type ResolveRequest struct {
	CurrentValue *string `json:"currentValue,omitempty"`
}
