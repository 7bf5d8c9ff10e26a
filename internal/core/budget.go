package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// BudgetStatus is the spend position of a budget for its month.
type BudgetStatus struct {
	BudgetID   int64           `json:"budget_id"`
	Month      Date            `json:"month"`
	Amount     Money           `json:"amount"`
	Spent      Money           `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage decimal.Decimal `json:"percentage"`
	Warning    bool            `json:"warning"`
	Exceeded   bool            `json:"exceeded"`
}

// MonthRange returns the first and last day of the budget month, inclusive.
func (b Budget) MonthRange() (Date, Date) {
	first := b.Month.FirstOfMonth()
	return first, first.LastOfMonth()
}

// SpentPercentage is spent/amount*100 rounded to two places, or zero when
// the budget amount is not positive.
func SpentPercentage(spent, amount Money) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	return spent.Decimal.Mul(hundred).Div(amount.Decimal).Round(2)
}

// StatusFor builds the status of b given the amount spent in its month.
func (b Budget) StatusFor(spent Money) BudgetStatus {
	pct := SpentPercentage(spent, b.Amount)
	return BudgetStatus{
		BudgetID:   b.ID,
		Month:      b.Month.FirstOfMonth(),
		Amount:     b.Amount,
		Spent:      spent,
		Remaining:  b.Amount.Decimal.Sub(spent.Decimal),
		Percentage: pct,
		Warning:    pct.GreaterThanOrEqual(decimal.NewFromInt(int64(b.WarningThreshold))),
		Exceeded:   spent.Decimal.GreaterThan(b.Amount.Decimal),
	}
}
