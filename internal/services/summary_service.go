package services

import (
	"context"
	"fmt"

	"daromad/internal/core"
)

// LedgerReader reads an owner's transactions with their categories resolved.
type LedgerReader interface {
	ListLedgerEntries(ctx context.Context, ownerID int64, from, to core.Date) ([]core.LedgerEntry, error)
}

// SummaryService builds the monthly income/expense overview.
type SummaryService struct {
	store LedgerReader
}

func NewSummaryService(store LedgerReader) *SummaryService {
	return &SummaryService{store: store}
}

// Monthly summarizes month for ownerID. When month is the current month the
// period stops at today; the previous month is always taken whole.
func (s *SummaryService) Monthly(ctx context.Context, ownerID int64, month, today core.Date) (core.MonthlySummary, error) {
	if ownerID == 0 {
		return core.MonthlySummary{}, core.ErrMissingOwner
	}
	if err := month.Validate(); err != nil {
		return core.MonthlySummary{}, err
	}

	from, to, _ := core.SummaryPeriod(month, today)
	current, err := s.store.ListLedgerEntries(ctx, ownerID, from, to)
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("load %s: %w", from, err)
	}

	prevFrom := from.AddDays(-1).FirstOfMonth()
	previous, err := s.store.ListLedgerEntries(ctx, ownerID, prevFrom, prevFrom.LastOfMonth())
	if err != nil {
		return core.MonthlySummary{}, fmt.Errorf("load %s: %w", prevFrom, err)
	}

	return core.Summarize(month, today, current, previous), nil
}

// Entries lists ownerID's transactions in month, newest first, keeping only
// categories of type t. An empty t keeps every transaction.
func (s *SummaryService) Entries(ctx context.Context, ownerID int64, month core.Date, t core.CategoryType) ([]core.LedgerEntry, error) {
	if ownerID == 0 {
		return nil, core.ErrMissingOwner
	}
	if t != "" && !t.Valid() {
		return nil, core.ErrInvalidCategoryType
	}
	from := month.FirstOfMonth()
	entries, err := s.store.ListLedgerEntries(ctx, ownerID, from, from.LastOfMonth())
	if err != nil {
		return nil, err
	}
	return core.FilterByType(entries, t), nil
}
