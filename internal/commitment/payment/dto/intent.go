package dto

// CreateIntentRequest representa o payload para criar um intent no payment-gateway.
type CreateIntentRequest struct {
	ExternalRef string `json:"external_ref"` // betId; chave de idempotência
	Amount      string `json:"amount"`       // decimal em string, ex: "50.00"
}

// IntentResponse representa a resposta dos endpoints de intent do payment-gateway.
type IntentResponse struct {
	IntentID    string `json:"intent_id"`
	ExternalRef string `json:"external_ref"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
}
