package services

import (
	"context"
	"testing"

	"daromad/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryService_Monthly(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	owner := int64(1)
	salary, err := f.repo.CreateCategory(ctx, core.Category{OwnerID: &owner, Name: "Salary", Type: core.Income, IsActive: true})
	require.NoError(t, err)

	for _, tc := range []struct {
		cat    int64
		amount string
		date   core.Date
	}{
		{salary.ID, "3000", core.NewDate(2025, 3, 1)},
		{f.rent.ID, "1200", core.NewDate(2025, 3, 5)},
		{f.rent.ID, "99", core.NewDate(2025, 3, 20)}, // after today
		{salary.ID, "2500", core.NewDate(2025, 2, 1)},
		{f.rent.ID, "1200", core.NewDate(2025, 2, 5)},
	} {
		_, err := f.repo.CreateTransaction(ctx, core.Transaction{
			OwnerID: owner, Amount: core.MustMoney(tc.amount), CategoryID: &tc.cat, Date: tc.date,
		})
		require.NoError(t, err)
	}

	service := NewSummaryService(f.repo)
	sum, err := service.Monthly(ctx, owner, core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 10))
	require.NoError(t, err)

	assert.True(t, sum.IsCurrentMonth)
	assert.Equal(t, "2025-03-10", sum.PeriodEnd.String())
	assert.Equal(t, "3000.00", sum.Income.String())
	assert.Equal(t, "1200.00", sum.Expense.String())
	assert.Equal(t, "1800.00", sum.Net.String())
	assert.Equal(t, "1300.00", sum.PreviousNet.String())
	assert.Equal(t, "500.00", sum.BalanceChange.String())
	require.Len(t, sum.TopExpenses, 1)
	assert.Equal(t, "Rent", sum.TopExpenses[0].Name)
	assert.Len(t, sum.Recent, 2)

	// A past month is taken whole.
	sum, err = service.Monthly(ctx, owner, core.NewDate(2025, 3, 1), core.NewDate(2025, 4, 2))
	require.NoError(t, err)
	assert.False(t, sum.IsCurrentMonth)
	assert.Equal(t, "1299.00", sum.Expense.String())

	_, err = service.Monthly(ctx, 0, core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 10))
	assert.ErrorIs(t, err, core.ErrMissingOwner)
}

func TestSummaryService_Entries(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	owner := int64(1)
	salary, err := f.repo.CreateCategory(ctx, core.Category{OwnerID: &owner, Name: "Salary", Type: core.Income, IsActive: true})
	require.NoError(t, err)

	for _, cat := range []*int64{&salary.ID, &f.rent.ID, nil} {
		_, err := f.repo.CreateTransaction(ctx, core.Transaction{
			OwnerID: owner, Amount: core.MustMoney("10"), CategoryID: cat, Date: core.NewDate(2025, 3, 3),
		})
		require.NoError(t, err)
	}

	service := NewSummaryService(f.repo)
	month := core.NewDate(2025, 3, 1)

	all, err := service.Entries(ctx, owner, month, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	income, err := service.Entries(ctx, owner, month, core.Income)
	require.NoError(t, err)
	require.Len(t, income, 1)
	assert.Equal(t, "Salary", income[0].CategoryName)

	expense, err := service.Entries(ctx, owner, month, core.Expense)
	require.NoError(t, err)
	require.Len(t, expense, 1)
	assert.Equal(t, "Rent", expense[0].CategoryName)

	_, err = service.Entries(ctx, owner, month, "TRANSFER")
	assert.ErrorIs(t, err, core.ErrInvalidCategoryType)
}
