package sheets

import (
	"context"
	"errors"

	"daromad/internal/core"
)

// LedgerRow is one transaction as it appears in the mirror sheet.
type LedgerRow struct {
	TransactionID int64
	Date          core.Date
	Description   string
	Amount        core.Money
	CategoryPath  string
	Automated     bool
}

func (r LedgerRow) Validate() error {
	if r.TransactionID <= 0 {
		return errors.New("ledger row without transaction id")
	}
	if err := r.Date.Validate(); err != nil {
		return err
	}
	return r.Amount.Validate()
}

// Ports for outbound adapters.
type (
	LedgerWriter interface {
		Append(ctx context.Context, row LedgerRow) (rowRef string, err error)
	}
)
