package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"daromad/internal/core"
)

// TransactionStore is the ledger storage used for manual bookkeeping.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactionsByOwner(ctx context.Context, ownerID int64, from, to core.Date) ([]core.Transaction, error)
	ListTransactionsBySchedule(ctx context.Context, scheduleID int64) ([]core.Transaction, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
}

// OwnerInvalidator drops cached views derived from an owner's ledger.
type OwnerInvalidator interface {
	InvalidateOwner(ownerID int64)
}

// TransactionService orchestrates manual ledger writes across SQLite and AMQP
type TransactionService struct {
	store       TransactionStore
	publisher   SyncPublisher
	invalidator OwnerInvalidator
}

func NewTransactionService(store TransactionStore, publisher SyncPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
	}
}

// SetInvalidator registers a cache to be cleared when an owner's ledger changes.
func (s *TransactionService) SetInvalidator(inv OwnerInvalidator) {
	s.invalidator = inv
}

// CreateTransaction saves a manual transaction locally and publishes a sync message
func (s *TransactionService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.IsAutomated = false
	t.RecurringScheduleID = nil
	t.Description = strings.TrimSpace(t.Description)

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.CategoryID != nil {
		category, err := s.store.GetCategory(ctx, *t.CategoryID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("resolve category: %w", err)
		}
		if !category.VisibleTo(t.OwnerID) {
			return core.Transaction{}, core.ErrCategoryOwnerMatch
		}
	}

	// Save to SQLite first
	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateOwner(created.OwnerID)
	}

	// Version 1 for a new transaction; a failed publish is picked up by the pending sweep
	if err := s.publishSyncMessage(ctx, created.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", created.ID, "error", err)
	}

	return created, nil
}

// ListByMonth returns the owner's transactions dated within month's calendar month.
func (s *TransactionService) ListByMonth(ctx context.Context, ownerID int64, month core.Date) ([]core.Transaction, error) {
	if ownerID == 0 {
		return nil, core.ErrMissingOwner
	}
	if err := month.Validate(); err != nil {
		return nil, err
	}
	return s.store.ListTransactionsByOwner(ctx, ownerID, month.FirstOfMonth(), month.LastOfMonth())
}

// ListBySchedule returns the transactions generated from one schedule.
func (s *TransactionService) ListBySchedule(ctx context.Context, scheduleID int64) ([]core.Transaction, error) {
	return s.store.ListTransactionsBySchedule(ctx, scheduleID)
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *TransactionService) publishSyncMessage(ctx context.Context, id, version int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}

	return s.publisher.PublishTransactionSync(ctx, id, version)
}
