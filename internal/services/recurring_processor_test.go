package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"daromad/internal/core"
	"daromad/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduleStore struct {
	due     []core.RecurringSchedule
	listErr error
	results map[int64]error
	calls   []int64
}

func (f *fakeScheduleStore) ListDueSchedules(ctx context.Context, today core.Date) ([]core.RecurringSchedule, error) {
	return f.due, f.listErr
}

func (f *fakeScheduleStore) ExecuteSchedule(ctx context.Context, id int64, today core.Date) (core.Transaction, error) {
	f.calls = append(f.calls, id)
	if err := f.results[id]; err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{ID: id * 100, OwnerID: 1, Amount: core.MustMoney("1"), Date: today}, nil
}

type fakeRunLog struct {
	saved []core.RunReport
	err   error
}

func (f *fakeRunLog) SaveRun(ctx context.Context, r core.RunReport) error {
	f.saved = append(f.saved, r)
	return f.err
}

type fakePublisher struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (f *fakePublisher) PublishTransactionSync(ctx context.Context, id, version int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	return f.err
}

func TestProcessDueClassifiesOutcomes(t *testing.T) {
	store := &fakeScheduleStore{
		due: []core.RecurringSchedule{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}},
		results: map[int64]error{
			2: fmt.Errorf("category gone: %w", core.ErrDataIntegrity),
			3: fmt.Errorf("claimed elsewhere: %w", core.ErrNotDue),
			4: errors.New("database is locked"),
		},
	}
	runs := &fakeRunLog{}
	pub := &fakePublisher{}
	p := NewRecurringProcessor(store, WithRunLog(runs), WithPublisher(pub))

	report, err := p.ProcessDue(context.Background(), core.NewDate(2025, 3, 5))
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalDue)
	assert.Equal(t, []int64{1}, report.Successes)
	assert.Equal(t, []int64{3}, report.Skipped)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, int64(2), report.Failures[0].ScheduleID)
	assert.Contains(t, report.Failures[0].Message, "category gone")
	assert.Equal(t, int64(4), report.Failures[1].ScheduleID)
	assert.Equal(t, []int64{1, 2, 3, 4}, store.calls, "a failure must not stop the batch")

	assert.Equal(t, []int64{100}, pub.ids)
	require.Len(t, runs.saved, 1)
	assert.Equal(t, report.RunID, runs.saved[0].RunID)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestProcessDueConfigurationErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewRecurringProcessor(nil).ProcessDue(ctx, core.NewDate(2025, 3, 5))
	assert.ErrorIs(t, err, core.ErrConfiguration)

	store := &fakeScheduleStore{}
	_, err = NewRecurringProcessor(store).ProcessDue(ctx, core.Date{})
	assert.ErrorIs(t, err, core.ErrConfiguration)
	assert.Empty(t, store.calls)

	store = &fakeScheduleStore{listErr: errors.New("unable to open database file")}
	_, err = NewRecurringProcessor(store).ProcessDue(ctx, core.NewDate(2025, 3, 5))
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestProcessDueSideEffectFailuresAreNotFatal(t *testing.T) {
	store := &fakeScheduleStore{due: []core.RecurringSchedule{{ID: 1}}}
	p := NewRecurringProcessor(store,
		WithRunLog(&fakeRunLog{err: errors.New("disk full")}),
		WithPublisher(&fakePublisher{err: errors.New("broker down")}))

	report, err := p.ProcessDue(context.Background(), core.NewDate(2025, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, report.Successes)
}

func TestProcessDueStopsOnCancel(t *testing.T) {
	store := &fakeScheduleStore{due: []core.RecurringSchedule{{ID: 1}, {ID: 2}}}
	runs := &fakeRunLog{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewRecurringProcessor(store, WithRunLog(runs)).ProcessDue(ctx, core.NewDate(2025, 3, 5))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.calls)
	assert.Equal(t, 2, report.TotalDue)

	require.Len(t, runs.saved, 1)
	assert.Equal(t, report.RunID, runs.saved[0].RunID)
	assert.Equal(t, 0, runs.saved[0].Processed())
}

// cancelAfterStore cancels the run once the first schedule is executed.
type cancelAfterStore struct {
	fakeScheduleStore
	cancel context.CancelFunc
}

func (c *cancelAfterStore) ExecuteSchedule(ctx context.Context, id int64, today core.Date) (core.Transaction, error) {
	tx, err := c.fakeScheduleStore.ExecuteSchedule(ctx, id, today)
	c.cancel()
	return tx, err
}

func TestProcessDueSavesPartialRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := &cancelAfterStore{
		fakeScheduleStore: fakeScheduleStore{due: []core.RecurringSchedule{{ID: 1}, {ID: 2}, {ID: 3}}},
		cancel:            cancel,
	}
	runs := &fakeRunLog{}

	report, err := NewRecurringProcessor(store, WithRunLog(runs)).ProcessDue(ctx, core.NewDate(2025, 3, 5))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int64{1}, report.Successes)

	require.Len(t, runs.saved, 1)
	assert.Equal(t, []int64{1}, runs.saved[0].Successes)
	assert.Equal(t, 3, runs.saved[0].TotalDue)
	assert.False(t, runs.saved[0].FinishedAt.IsZero())
}

// SQLite-backed engine tests.

type engineFixture struct {
	repo *storage.SQLiteRepository
	path string
	rent core.Category
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.db")
	repo, err := storage.NewSQLiteRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	owner := int64(1)
	rent, err := repo.CreateCategory(context.Background(), core.Category{
		OwnerID: &owner, Name: "Rent", Type: core.Expense, IsActive: true,
	})
	require.NoError(t, err)
	return &engineFixture{repo: repo, path: path, rent: rent}
}

func (f *engineFixture) schedule(t *testing.T, mutate func(*core.RecurringSchedule)) core.RecurringSchedule {
	t.Helper()
	s := core.RecurringSchedule{
		OwnerID:    1,
		CategoryID: &f.rent.ID,
		Amount:     core.MustMoney("500000"),
		DayOfMonth: 5,
		StartDate:  core.NewDate(2025, 1, 1),
		IsActive:   true,
	}
	if mutate != nil {
		mutate(&s)
	}
	created, err := f.repo.CreateSchedule(context.Background(), s)
	require.NoError(t, err)
	return created
}

func (f *engineFixture) generated(t *testing.T, scheduleID int64) []core.Transaction {
	t.Helper()
	txs, err := f.repo.ListTransactionsBySchedule(context.Background(), scheduleID)
	require.NoError(t, err)
	return txs
}

func TestEngineConcreteScenario(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	s := f.schedule(t, nil)
	today := core.NewDate(2025, 3, 5)

	p := NewRecurringProcessor(f.repo, WithRunLog(f.repo))
	report, err := p.ProcessDue(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalDue)
	assert.Equal(t, []int64{s.ID}, report.Successes)
	assert.Empty(t, report.Failures)

	txs := f.generated(t, s.ID)
	require.Len(t, txs, 1)
	tx := txs[0]
	assert.Equal(t, int64(1), tx.OwnerID)
	assert.Equal(t, "500000.00", tx.Amount.String())
	assert.Equal(t, "2025-03-05", tx.Date.String())
	assert.True(t, tx.IsAutomated)
	assert.Equal(t, "Recurring: Rent", tx.Description)

	reloaded, err := f.repo.GetSchedule(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastExecuted)
	assert.Equal(t, "2025-03-05", reloaded.LastExecuted.String())
	assert.Equal(t, core.StateExecutedToday, reloaded.StateOn(today))

	// Second run on the same date does nothing.
	again, err := p.ProcessDue(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 0, again.TotalDue)
	assert.Len(t, f.generated(t, s.ID), 1)

	runs, err := f.repo.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestEngineFiresAgainNextMonth(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	s := f.schedule(t, nil)
	p := NewRecurringProcessor(f.repo)

	for _, day := range []core.Date{
		core.NewDate(2025, 1, 5),
		core.NewDate(2025, 1, 6),
		core.NewDate(2025, 2, 5),
		core.NewDate(2025, 3, 5),
	} {
		_, err := p.ProcessDue(ctx, day)
		require.NoError(t, err)
	}

	txs := f.generated(t, s.ID)
	require.Len(t, txs, 3)
	assert.Equal(t, "2025-01-05", txs[0].Date.String())
	assert.Equal(t, "2025-02-05", txs[1].Date.String())
	assert.Equal(t, "2025-03-05", txs[2].Date.String())
}

func TestEngineNeverFires(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*core.RecurringSchedule)
		today  core.Date
	}{
		{
			name:   "day 30 in February",
			mutate: func(s *core.RecurringSchedule) { s.DayOfMonth = 30 },
			today:  core.NewDate(2025, 2, 28),
		},
		{
			name: "expired",
			mutate: func(s *core.RecurringSchedule) {
				end := core.NewDate(2025, 3, 4)
				s.EndDate = &end
			},
			today: core.NewDate(2025, 3, 5),
		},
		{
			name: "executed today",
			mutate: func(s *core.RecurringSchedule) {
				last := core.NewDate(2025, 3, 5)
				s.LastExecuted = &last
			},
			today: core.NewDate(2025, 3, 5),
		},
		{
			name:   "inactive",
			mutate: func(s *core.RecurringSchedule) { s.IsActive = false },
			today:  core.NewDate(2025, 3, 5),
		},
		{
			name:   "not started",
			mutate: func(s *core.RecurringSchedule) { s.StartDate = core.NewDate(2025, 4, 1) },
			today:  core.NewDate(2025, 3, 5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t)
			s := f.schedule(t, tt.mutate)

			report, err := NewRecurringProcessor(f.repo).ProcessDue(context.Background(), tt.today)
			require.NoError(t, err)
			assert.Equal(t, 0, report.TotalDue)
			assert.Empty(t, f.generated(t, s.ID))
		})
	}
}

func TestEngineOpenEndedScheduleFires(t *testing.T) {
	f := newEngineFixture(t)
	s := f.schedule(t, func(s *core.RecurringSchedule) { s.EndDate = nil })

	report, err := NewRecurringProcessor(f.repo).ProcessDue(context.Background(), core.NewDate(2031, 7, 5))
	require.NoError(t, err)
	assert.Equal(t, []int64{s.ID}, report.Successes)
}

func TestEngineUsesNoteAsDescription(t *testing.T) {
	f := newEngineFixture(t)
	s := f.schedule(t, func(s *core.RecurringSchedule) { s.Note = "Flat on Amir Temur" })

	_, err := NewRecurringProcessor(f.repo).ProcessDue(context.Background(), core.NewDate(2025, 3, 5))
	require.NoError(t, err)

	txs := f.generated(t, s.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, "Flat on Amir Temur", txs[0].Description)
}

func TestEngineDeletedCategoryFailsOnlyThatSchedule(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	owner := int64(1)
	gym, err := f.repo.CreateCategory(ctx, core.Category{OwnerID: &owner, Name: "Gym", Type: core.Expense, IsActive: true})
	require.NoError(t, err)

	broken := f.schedule(t, func(s *core.RecurringSchedule) { s.CategoryID = &gym.ID })
	healthy := f.schedule(t, nil)
	require.NoError(t, f.repo.DeleteCategory(ctx, gym.ID))

	report, err := NewRecurringProcessor(f.repo).ProcessDue(ctx, core.NewDate(2025, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalDue)
	assert.Equal(t, []int64{healthy.ID}, report.Successes)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, broken.ID, report.Failures[0].ScheduleID)

	reloaded, err := f.repo.GetSchedule(ctx, broken.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.LastExecuted, "failed schedule stays due for the next run")
	assert.Empty(t, f.generated(t, broken.ID))
}

func TestEngineConcurrentRunsProduceOneTransaction(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	var ids []int64
	for i := 0; i < 5; i++ {
		ids = append(ids, f.schedule(t, nil).ID)
	}

	other, err := storage.NewSQLiteRepository(f.path)
	require.NoError(t, err)
	defer other.Close()

	today := core.NewDate(2025, 3, 5)
	reports := make([]core.RunReport, 4)
	var wg sync.WaitGroup
	for i := range reports {
		repo := f.repo
		if i%2 == 1 {
			repo = other
		}
		wg.Add(1)
		go func(i int, repo *storage.SQLiteRepository) {
			defer wg.Done()
			r, err := NewRecurringProcessor(repo).ProcessDue(ctx, today)
			assert.NoError(t, err)
			reports[i] = r
		}(i, repo)
	}
	wg.Wait()

	succeeded := 0
	for _, r := range reports {
		succeeded += len(r.Successes)
		assert.Empty(t, r.Failures)
	}
	assert.Equal(t, len(ids), succeeded, "each schedule succeeds in exactly one run")

	for _, id := range ids {
		assert.Len(t, f.generated(t, id), 1)
	}
}

func TestEngineClockStampsReport(t *testing.T) {
	f := newEngineFixture(t)
	fixed := time.Date(2025, 3, 5, 0, 5, 0, 0, time.UTC)
	p := NewRecurringProcessor(f.repo, WithClock(func() time.Time { return fixed }))

	report, err := p.ProcessDue(context.Background(), core.NewDate(2025, 3, 5))
	require.NoError(t, err)
	assert.Equal(t, fixed, report.StartedAt)
	assert.Equal(t, fixed, report.FinishedAt)
}
