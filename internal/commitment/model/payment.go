package model

import "github.com/shopspring/decimal"

// PaymentIntent é a referência opaca devolvida pelo gateway de pagamento
type PaymentIntent struct {
	ID     string
	Amount decimal.Decimal
}
