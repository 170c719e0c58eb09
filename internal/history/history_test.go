package history_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wyxpro/mindcare/internal/fusion"
	"github.com/wyxpro/mindcare/internal/history"
)

type fakeSource struct {
	calls   atomic.Int32
	reports []fusion.Report
	err     error
	gate    chan struct{}
}

func (f *fakeSource) HistoricalReports(ctx context.Context, userID uuid.UUID, limit int) ([]fusion.Report, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]fusion.Report, len(f.reports))
	copy(out, f.reports)
	return out, nil
}

func newCache(src history.Source, capacity int) *history.Cache {
	return history.New(src, capacity, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func reportsAt(userID uuid.UUID, base time.Time, offsets ...int) []fusion.Report {
	out := make([]fusion.Report, 0, len(offsets))
	for _, h := range offsets {
		out = append(out, fusion.Report{
			ID:        uuid.New(),
			UserID:    userID,
			CreatedAt: base.Add(time.Duration(h) * time.Hour),
		})
	}
	return out
}

func TestFetchRecentOrdersNewestFirst(t *testing.T) {
	user := uuid.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{reports: reportsAt(user, base, 2, 7, 1, 5, 3, 6, 4)}
	c := newCache(src, history.DefaultCapacity)

	got, err := c.FetchRecent(context.Background(), user, 5)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Errorf("reports not newest first at %d", i)
		}
	}
	if !got[0].CreatedAt.Equal(base.Add(7 * time.Hour)) {
		t.Errorf("newest = %v", got[0].CreatedAt)
	}
}

func TestFetchRecentLimit(t *testing.T) {
	user := uuid.New()
	src := &fakeSource{reports: reportsAt(user, time.Now(), 1, 2, 3, 4, 5)}
	c := newCache(src, history.DefaultCapacity)

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"within capacity", 3, 3},
		{"zero uses capacity", 0, 5},
		{"above capacity", 10, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.FetchRecent(context.Background(), user, tt.limit)
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}

	if n := src.calls.Load(); n != 1 {
		t.Errorf("source calls = %d, want 1", n)
	}
}

func TestInvalidateRefetches(t *testing.T) {
	user := uuid.New()
	src := &fakeSource{reports: reportsAt(user, time.Now(), 1)}
	c := newCache(src, history.DefaultCapacity)
	ctx := context.Background()

	if _, err := c.FetchRecent(ctx, user, 5); err != nil {
		t.Fatal(err)
	}
	c.Invalidate(user)
	if _, ok := c.Cached(user); ok {
		t.Error("list retained after invalidate")
	}
	if _, err := c.FetchRecent(ctx, user, 5); err != nil {
		t.Fatal(err)
	}
	if n := src.calls.Load(); n != 2 {
		t.Errorf("source calls = %d, want 2", n)
	}
}

func TestClearIsScopedToUser(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	src := &fakeSource{reports: reportsAt(alice, time.Now(), 1)}
	c := newCache(src, history.DefaultCapacity)
	ctx := context.Background()

	c.FetchRecent(ctx, alice, 5)
	c.FetchRecent(ctx, bob, 5)
	c.Clear(alice)

	if _, ok := c.Cached(alice); ok {
		t.Error("cleared user still cached")
	}
	if _, ok := c.Cached(bob); !ok {
		t.Error("other user's list was cleared")
	}
}

func TestFetchRecentSourceError(t *testing.T) {
	boom := errors.New("unavailable")
	c := newCache(&fakeSource{err: boom}, history.DefaultCapacity)
	user := uuid.New()

	if _, err := c.FetchRecent(context.Background(), user, 5); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped source error", err)
	}
	if _, ok := c.Cached(user); ok {
		t.Error("failed fetch retained")
	}
}

func TestConcurrentFetchesCollapse(t *testing.T) {
	user := uuid.New()
	src := &fakeSource{reports: reportsAt(user, time.Now(), 1), gate: make(chan struct{})}
	c := newCache(src, history.DefaultCapacity)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			if _, err := c.FetchRecent(context.Background(), user, 5); err != nil {
				t.Error(err)
			}
		})
	}

	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	if n := src.calls.Load(); n != 1 {
		t.Errorf("source calls = %d, want 1", n)
	}
}

func TestClearDuringFetchDiscardsResult(t *testing.T) {
	user := uuid.New()
	src := &fakeSource{reports: reportsAt(user, time.Now(), 1), gate: make(chan struct{})}
	c := newCache(src, history.DefaultCapacity)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.FetchRecent(context.Background(), user, 5)
	}()

	for src.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	c.Clear(user)
	close(src.gate)
	<-done

	if _, ok := c.Cached(user); ok {
		t.Error("list read before logout was retained")
	}
}

func TestCollapsedFetchSurvivesFirstCallerCancel(t *testing.T) {
	user := uuid.New()
	src := &fakeSource{reports: reportsAt(user, time.Now(), 1, 2), gate: make(chan struct{})}
	c := newCache(src, history.DefaultCapacity)

	ctx, cancel := context.WithCancel(context.Background())
	go c.FetchRecent(ctx, user, 5)

	for src.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	type result struct {
		reports []fusion.Report
		err     error
	}
	waiter := make(chan result)
	go func() {
		reports, err := c.FetchRecent(context.Background(), user, 5)
		waiter <- result{reports, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(5 * time.Millisecond)
	close(src.gate)

	got := <-waiter
	if got.err != nil {
		t.Fatalf("waiter err = %v, want shared read to complete", got.err)
	}
	if len(got.reports) != 2 {
		t.Errorf("reports = %d, want 2", len(got.reports))
	}
}
