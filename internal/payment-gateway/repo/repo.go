package repo

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusRequiresCapture = "REQUIRES_CAPTURE"
	StatusCaptured        = "CAPTURED"
	StatusCanceled        = "CANCELED"
)

var (
	ErrNotFound       = errors.New("intent not found")
	ErrAmountConflict = errors.New("external_ref already used with a different amount")
	ErrNotCapturable  = errors.New("intent is not capturable")
)

// Intent é a intenção de pagamento de uma aposta
type Intent struct {
	ID          string
	ExternalRef string
	Amount      decimal.Decimal
	Status      string
	CreatedAt   time.Time
	CapturedAt  *time.Time
}
