package periods

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/simtunkin/simtunkin/internal/platform/httpx"
)

type memoryPeriodRepo struct {
	periods      map[int64]Period
	recordCounts map[int64]int
	nextID       int64
}

func newMemoryPeriodRepo() *memoryPeriodRepo {
	return &memoryPeriodRepo{periods: make(map[int64]Period), recordCounts: make(map[int64]int)}
}

func (r *memoryPeriodRepo) ListPeriods(ctx context.Context) ([]Period, error) {
	var out []Period
	for _, p := range r.periods {
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryPeriodRepo) GetPeriod(ctx context.Context, id int64) (Period, error) {
	p, ok := r.periods[id]
	if !ok {
		return Period{}, httpx.ErrNotFound
	}
	return p, nil
}

func (r *memoryPeriodRepo) CreatePeriod(ctx context.Context, p Period) (Period, error) {
	r.nextID++
	p.ID = r.nextID
	p.Status = StatusOpen
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.periods[p.ID] = p
	return p, nil
}

func (r *memoryPeriodRepo) UpdatePeriod(ctx context.Context, p Period) (Period, error) {
	current, ok := r.periods[p.ID]
	if !ok {
		return Period{}, httpx.ErrNotFound
	}
	current.Name = p.Name
	current.StartDate = p.StartDate
	current.EndDate = p.EndDate
	current.UpdatedAt = time.Now()
	r.periods[p.ID] = current
	return current, nil
}

func (r *memoryPeriodRepo) ClosePeriod(ctx context.Context, id int64) (Period, error) {
	current, ok := r.periods[id]
	if !ok || current.Status != StatusOpen {
		return Period{}, httpx.ErrNotFound
	}
	now := time.Now()
	current.Status = StatusClosed
	current.ClosedAt = &now
	current.UpdatedAt = now
	r.periods[id] = current
	return current, nil
}

func (r *memoryPeriodRepo) DeletePeriod(ctx context.Context, id int64) error {
	if _, ok := r.periods[id]; !ok {
		return httpx.ErrNotFound
	}
	delete(r.periods, id)
	return nil
}

func (r *memoryPeriodRepo) CountRecordsForPeriod(ctx context.Context, id int64) (int, error) {
	return r.recordCounts[id], nil
}

type enqueueSpy struct {
	periodIDs []int64
}

func (s *enqueueSpy) EnqueueRecomputePeriod(ctx context.Context, periodID int64) error {
	s.periodIDs = append(s.periodIDs, periodID)
	return nil
}

func newPeriodService(t *testing.T) (*Service, *memoryPeriodRepo, *enqueueSpy) {
	t.Helper()
	repo := newMemoryPeriodRepo()
	spy := &enqueueSpy{}
	return NewService(repo, spy, nil, nil, nil), repo, spy
}

func openPeriod(t *testing.T, svc *Service) Period {
	t.Helper()
	p, err := svc.CreatePeriod(context.Background(), 1, Period{
		Name:      "Triwulan I 2026",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return p
}

func TestCreatePeriodValidatesDateRange(t *testing.T) {
	svc, _, _ := newPeriodService(t)
	_, err := svc.CreatePeriod(context.Background(), 1, Period{
		Name:      "Mundur",
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestClosePeriodEnqueuesRecompute(t *testing.T) {
	svc, _, spy := newPeriodService(t)
	ctx := context.Background()
	p := openPeriod(t, svc)

	closed, err := svc.ClosePeriod(ctx, 1, p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	require.Equal(t, []int64{p.ID}, spy.periodIDs)
}

func TestClosePeriodTwiceConflicts(t *testing.T) {
	svc, _, spy := newPeriodService(t)
	ctx := context.Background()
	p := openPeriod(t, svc)

	_, err := svc.ClosePeriod(ctx, 1, p.ID)
	require.NoError(t, err)

	_, err = svc.ClosePeriod(ctx, 1, p.ID)
	require.ErrorIs(t, err, httpx.ErrConflict)
	require.Len(t, spy.periodIDs, 1, "second close must not enqueue another recompute")
}

func TestClosePeriodMissing(t *testing.T) {
	svc, _, _ := newPeriodService(t)
	_, err := svc.ClosePeriod(context.Background(), 1, 99)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpdateClosedPeriodRefused(t *testing.T) {
	svc, _, _ := newPeriodService(t)
	ctx := context.Background()
	p := openPeriod(t, svc)

	_, err := svc.ClosePeriod(ctx, 1, p.ID)
	require.NoError(t, err)

	p.Name = "Triwulan I 2026 (revisi)"
	_, err = svc.UpdatePeriod(ctx, 1, p.ID, p)
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestDeletePeriodRefusedWhileReferenced(t *testing.T) {
	svc, repo, _ := newPeriodService(t)
	ctx := context.Background()
	p := openPeriod(t, svc)

	repo.recordCounts[p.ID] = 12
	require.ErrorIs(t, svc.DeletePeriod(ctx, 1, p.ID), httpx.ErrConflict)

	repo.recordCounts[p.ID] = 0
	require.NoError(t, svc.DeletePeriod(ctx, 1, p.ID))
}
