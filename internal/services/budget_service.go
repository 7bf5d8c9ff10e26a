package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"daromad/internal/cache"
	"daromad/internal/core"

	"github.com/shopspring/decimal"
)

type BudgetStore interface {
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	GetBudget(ctx context.Context, id int64) (core.Budget, error)
	ListBudgetsByOwner(ctx context.Context, ownerID int64, month core.Date) ([]core.Budget, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	SumCategory(ctx context.Context, ownerID, categoryID int64, from, to core.Date) (core.Money, error)
}

const (
	budgetCacheSize = 512
	budgetCacheTTL  = 30 * time.Second
)

// BudgetService computes spend against monthly budgets. Status results are
// cached per budget and dropped whenever the owner's ledger changes.
type BudgetService struct {
	store  BudgetStore
	status *cache.LRUCache[core.BudgetStatus]
}

func NewBudgetService(store BudgetStore) *BudgetService {
	return &BudgetService{
		store:  store,
		status: cache.NewLRUCache[core.BudgetStatus](budgetCacheSize, budgetCacheTTL),
	}
}

// StatusCache exposes the cache so it can be registered for periodic cleanup.
func (s *BudgetService) StatusCache() *cache.LRUCache[core.BudgetStatus] {
	return s.status
}

// Create validates and stores a budget. The month is normalized to day 1.
func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.IsActive = true
	b.Normalize()
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	category, err := s.store.GetCategory(ctx, b.CategoryID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("resolve category: %w", err)
	}
	if category.Type != core.Expense {
		return core.Budget{}, core.ErrBudgetCategoryType
	}
	if !category.VisibleTo(b.OwnerID) {
		return core.Budget{}, core.ErrCategoryOwnerMatch
	}

	return s.store.CreateBudget(ctx, b)
}

// SpentAmount sums the owner's transactions on the budget category within
// the budget month, both ends inclusive.
func (s *BudgetService) SpentAmount(ctx context.Context, b core.Budget) (core.Money, error) {
	from, to := b.MonthRange()
	return s.store.SumCategory(ctx, b.OwnerID, b.CategoryID, from, to)
}

func (s *BudgetService) SpentPercentage(ctx context.Context, b core.Budget) (decimal.Decimal, error) {
	spent, err := s.SpentAmount(ctx, b)
	if err != nil {
		return decimal.Zero, err
	}
	return core.SpentPercentage(spent, b.Amount), nil
}

// Status returns the spend position of a budget owned by ownerID.
func (s *BudgetService) Status(ctx context.Context, ownerID, budgetID int64) (core.BudgetStatus, error) {
	key := statusKey(ownerID, budgetID)
	if st, ok := s.status.Get(key); ok {
		return st, nil
	}

	b, err := s.store.GetBudget(ctx, budgetID)
	if err != nil {
		return core.BudgetStatus{}, err
	}
	if b.OwnerID != ownerID {
		return core.BudgetStatus{}, core.ErrNotFound
	}

	spent, err := s.SpentAmount(ctx, b)
	if err != nil {
		return core.BudgetStatus{}, err
	}

	st := b.StatusFor(spent)
	s.status.Set(key, st)
	return st, nil
}

// ListStatuses returns the status of every budget the owner set for month.
func (s *BudgetService) ListStatuses(ctx context.Context, ownerID int64, month core.Date) ([]core.BudgetStatus, error) {
	if ownerID == 0 {
		return nil, core.ErrMissingOwner
	}
	if err := month.Validate(); err != nil {
		return nil, err
	}
	budgets, err := s.store.ListBudgetsByOwner(ctx, ownerID, month.FirstOfMonth())
	if err != nil {
		return nil, err
	}
	out := make([]core.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		st, err := s.Status(ctx, ownerID, b.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// InvalidateOwner drops cached statuses of every budget owned by ownerID.
func (s *BudgetService) InvalidateOwner(ownerID int64) {
	s.status.DeletePrefix(ownerPrefix(ownerID))
}

// InvalidateAll drops every cached status, used after a recurring run.
func (s *BudgetService) InvalidateAll() {
	s.status.Clear()
}

func ownerPrefix(ownerID int64) string {
	return "owner:" + strconv.FormatInt(ownerID, 10) + ":"
}

func statusKey(ownerID, budgetID int64) string {
	var b strings.Builder
	b.WriteString(ownerPrefix(ownerID))
	b.WriteString("budget:")
	b.WriteString(strconv.FormatInt(budgetID, 10))
	return b.String()
}
