package core

import "sort"

const (
	summaryTopCategories = 5
	summaryRecent        = 5
)

// LedgerEntry is a transaction with its category resolved. Uncategorized
// transactions have an empty name and type and count as neither income
// nor expense.
type LedgerEntry struct {
	Transaction
	CategoryName string       `json:"category_name"`
	CategoryType CategoryType `json:"category_type"`
}

// CategoryTotal is the amount booked on one category in a period.
type CategoryTotal struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Total      Money  `json:"total"`
}

// MonthlySummary is the income/expense position of an owner for one month.
// For the current month the period ends today. Net and BalanceChange may be
// negative.
type MonthlySummary struct {
	Month          Date            `json:"month"`
	PeriodEnd      Date            `json:"period_end"`
	IsCurrentMonth bool            `json:"is_current_month"`
	Income         Money           `json:"income"`
	Expense        Money           `json:"expense"`
	Net            Money           `json:"net"`
	PreviousNet    Money           `json:"previous_net"`
	BalanceChange  Money           `json:"balance_change"`
	TopExpenses    []CategoryTotal `json:"top_expenses"`
	Recent         []LedgerEntry   `json:"recent"`
}

// SummaryPeriod returns the range a summary of month covers as seen on
// today: the whole month, or up to today when month is the current one.
func SummaryPeriod(month, today Date) (from, to Date, current bool) {
	from = month.FirstOfMonth()
	to = from.LastOfMonth()
	if from.Equal(today.FirstOfMonth()) {
		return from, today, true
	}
	return from, to, false
}

// FilterByType keeps the entries whose category has type t. An empty t
// keeps everything.
func FilterByType(entries []LedgerEntry, t CategoryType) []LedgerEntry {
	if t == "" {
		return entries
	}
	out := make([]LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if e.CategoryType == t {
			out = append(out, e)
		}
	}
	return out
}

// Totals sums income and expense entries separately.
func Totals(entries []LedgerEntry) (income, expense Money) {
	var in, out []Money
	for _, e := range entries {
		switch e.CategoryType {
		case Income:
			in = append(in, e.Amount)
		case Expense:
			out = append(out, e.Amount)
		}
	}
	return Sum(in), Sum(out)
}

// Summarize builds the summary of month from the entries in its period and
// the entries of the whole previous month.
func Summarize(month, today Date, current, previous []LedgerEntry) MonthlySummary {
	from, to, isCurrent := SummaryPeriod(month, today)
	income, expense := Totals(current)
	prevIncome, prevExpense := Totals(previous)
	net := income.Sub(expense)
	prevNet := prevIncome.Sub(prevExpense)

	return MonthlySummary{
		Month:          from,
		PeriodEnd:      to,
		IsCurrentMonth: isCurrent,
		Income:         income,
		Expense:        expense,
		Net:            net,
		PreviousNet:    prevNet,
		BalanceChange:  net.Sub(prevNet),
		TopExpenses:    topExpenses(current, summaryTopCategories),
		Recent:         recent(current, summaryRecent),
	}
}

func topExpenses(entries []LedgerEntry, n int) []CategoryTotal {
	byID := make(map[int64]*CategoryTotal)
	var order []int64
	for _, e := range entries {
		if e.CategoryType != Expense || e.CategoryID == nil {
			continue
		}
		ct, ok := byID[*e.CategoryID]
		if !ok {
			ct = &CategoryTotal{CategoryID: *e.CategoryID, Name: e.CategoryName}
			byID[*e.CategoryID] = ct
			order = append(order, *e.CategoryID)
		}
		ct.Total = ct.Total.Add(e.Amount)
	}

	out := make([]CategoryTotal, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total.Decimal); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// recent returns the n newest entries, newest first.
func recent(entries []LedgerEntry, n int) []LedgerEntry {
	out := make([]LedgerEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
