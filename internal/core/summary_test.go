package core

import "testing"

func entry(id int64, categoryID int64, name string, typ CategoryType, amount string, date Date) LedgerEntry {
	cat := categoryID
	return LedgerEntry{
		Transaction:  Transaction{ID: id, Amount: MustMoney(amount), CategoryID: &cat, Date: date},
		CategoryName: name,
		CategoryType: typ,
	}
}

func TestSummaryPeriod(t *testing.T) {
	today := NewDate(2025, 3, 12)

	from, to, current := SummaryPeriod(NewDate(2025, 3, 1), today)
	if !from.Equal(NewDate(2025, 3, 1)) || !to.Equal(today) || !current {
		t.Errorf("current month = %s..%s current=%v, want 2025-03-01..2025-03-12 true", from, to, current)
	}

	from, to, current = SummaryPeriod(NewDate(2025, 2, 14), today)
	if !from.Equal(NewDate(2025, 2, 1)) || !to.Equal(NewDate(2025, 2, 28)) || current {
		t.Errorf("past month = %s..%s current=%v, want 2025-02-01..2025-02-28 false", from, to, current)
	}
}

func TestSummarize(t *testing.T) {
	today := NewDate(2025, 3, 12)
	current := []LedgerEntry{
		entry(1, 1, "Salary", Income, "2000", NewDate(2025, 3, 1)),
		entry(2, 2, "Rent", Expense, "800", NewDate(2025, 3, 2)),
		entry(3, 3, "Food", Expense, "45.50", NewDate(2025, 3, 3)),
		entry(4, 3, "Food", Expense, "30.25", NewDate(2025, 3, 9)),
		entry(5, 4, "Fuel", Expense, "60", NewDate(2025, 3, 10)),
		entry(6, 5, "Books", Expense, "12", NewDate(2025, 3, 11)),
		entry(7, 6, "Games", Expense, "5", NewDate(2025, 3, 11)),
		entry(8, 7, "Bank", Expense, "1", NewDate(2025, 3, 12)),
		{Transaction: Transaction{ID: 9, Amount: MustMoney("99"), Date: NewDate(2025, 3, 12)}},
	}
	previous := []LedgerEntry{
		entry(20, 1, "Salary", Income, "1000", NewDate(2025, 2, 1)),
		entry(21, 2, "Rent", Expense, "1200", NewDate(2025, 2, 2)),
	}

	s := Summarize(NewDate(2025, 3, 5), today, current, previous)

	if !s.IsCurrentMonth || !s.PeriodEnd.Equal(today) || !s.Month.Equal(NewDate(2025, 3, 1)) {
		t.Errorf("period = %s..%s current=%v", s.Month, s.PeriodEnd, s.IsCurrentMonth)
	}
	checks := map[string][2]string{
		"income":         {s.Income.String(), "2000.00"},
		"expense":        {s.Expense.String(), "953.75"},
		"net":            {s.Net.String(), "1046.25"},
		"previous net":   {s.PreviousNet.String(), "-200.00"},
		"balance change": {s.BalanceChange.String(), "1246.25"},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %s, want %s", name, c[0], c[1])
		}
	}

	wantTop := []string{"Rent", "Food", "Fuel", "Books", "Games"}
	if len(s.TopExpenses) != len(wantTop) {
		t.Fatalf("top expenses = %d, want %d", len(s.TopExpenses), len(wantTop))
	}
	for i, name := range wantTop {
		if s.TopExpenses[i].Name != name {
			t.Errorf("top[%d] = %s, want %s", i, s.TopExpenses[i].Name, name)
		}
	}
	if got := s.TopExpenses[1].Total.String(); got != "75.75" {
		t.Errorf("Food total = %s, want 75.75", got)
	}

	wantRecent := []int64{9, 8, 7, 6, 5}
	if len(s.Recent) != len(wantRecent) {
		t.Fatalf("recent = %d, want %d", len(s.Recent), len(wantRecent))
	}
	for i, id := range wantRecent {
		if s.Recent[i].ID != id {
			t.Errorf("recent[%d] = %d, want %d", i, s.Recent[i].ID, id)
		}
	}
	if current[0].ID != 1 {
		t.Error("Summarize must not reorder its input")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(NewDate(2024, 12, 1), NewDate(2025, 3, 12), nil, nil)
	if s.IsCurrentMonth || !s.PeriodEnd.Equal(NewDate(2024, 12, 31)) {
		t.Errorf("period end = %s current=%v", s.PeriodEnd, s.IsCurrentMonth)
	}
	if !s.Net.IsZero() || !s.BalanceChange.IsZero() {
		t.Errorf("net = %s, change = %s, want zero", s.Net, s.BalanceChange)
	}
	if s.TopExpenses == nil || len(s.TopExpenses) != 0 || len(s.Recent) != 0 {
		t.Errorf("top = %v, recent = %v", s.TopExpenses, s.Recent)
	}
}

func TestFilterByType(t *testing.T) {
	entries := []LedgerEntry{
		entry(1, 1, "Salary", Income, "10", NewDate(2025, 3, 1)),
		entry(2, 2, "Rent", Expense, "5", NewDate(2025, 3, 1)),
		{Transaction: Transaction{ID: 3, Amount: MustMoney("1"), Date: NewDate(2025, 3, 1)}},
	}
	if got := FilterByType(entries, Income); len(got) != 1 || got[0].ID != 1 {
		t.Errorf("income filter = %v", got)
	}
	if got := FilterByType(entries, Expense); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("expense filter = %v", got)
	}
	if got := FilterByType(entries, ""); len(got) != 3 {
		t.Errorf("no filter = %d entries, want 3", len(got))
	}
}

func TestMoneySub(t *testing.T) {
	if got := MustMoney("10").Sub(MustMoney("12.50")).String(); got != "-2.50" {
		t.Errorf("Sub = %s, want -2.50", got)
	}
}
