// Package history keeps the most recently fetched assessment reports per
// user. Reads are collapsed per user so concurrent requests share one
// upstream call.
package history

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/wyxpro/mindcare/internal/fusion"
)

// DefaultCapacity bounds the reports retained per user.
const DefaultCapacity = 5

// Source returns a user's stored reports.
type Source interface {
	HistoricalReports(ctx context.Context, userID uuid.UUID, limit int) ([]fusion.Report, error)
}

// Cache holds one newest-first report list per user.
type Cache struct {
	source   Source
	capacity int
	logger   *slog.Logger

	group singleflight.Group

	mu    sync.RWMutex
	users map[uuid.UUID][]fusion.Report
	gen   map[uuid.UUID]uint64
}

// New creates a Cache. A capacity below one falls back to DefaultCapacity.
func New(source Source, capacity int, logger *slog.Logger) *Cache {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Cache{
		source:   source,
		capacity: capacity,
		logger:   logger.With("system", "history"),
		users:    make(map[uuid.UUID][]fusion.Report),
		gen:      make(map[uuid.UUID]uint64),
	}
}

// Capacity returns the per-user bound.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Cached returns the retained list for a user without contacting the source.
func (c *Cache) Cached(userID uuid.UUID) ([]fusion.Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reports, ok := c.users[userID]
	if !ok {
		return nil, false
	}
	return slices.Clone(reports), true
}

// FetchRecent returns up to limit reports for the user, newest first.
// A retained list is served when present; otherwise the source is read
// and the result retained. A limit outside 1..capacity is clamped to the
// capacity.
func (c *Cache) FetchRecent(ctx context.Context, userID uuid.UUID, limit int) ([]fusion.Report, error) {
	if limit < 1 || limit > c.capacity {
		limit = c.capacity
	}

	if reports, ok := c.Cached(userID); ok {
		return head(reports, limit), nil
	}

	// collapsed callers share the read, so one caller leaving must not fail the rest
	fetchCtx := context.WithoutCancel(ctx)

	v, err, _ := c.group.Do(userID.String(), func() (any, error) {
		c.mu.RLock()
		gen := c.gen[userID]
		c.mu.RUnlock()

		reports, err := c.source.HistoricalReports(fetchCtx, userID, c.capacity)
		if err != nil {
			return nil, err
		}

		reports = SortNewest(reports)
		reports = head(reports, c.capacity)

		// a list read before an invalidation is returned but not retained
		c.mu.Lock()
		if c.gen[userID] == gen {
			c.users[userID] = reports
		}
		c.mu.Unlock()

		c.logger.DebugContext(fetchCtx, "history refreshed", "user_id", userID, "count", len(reports))
		return reports, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch history for %s: %w", userID, err)
	}

	return head(slices.Clone(v.([]fusion.Report)), limit), nil
}

// Invalidate drops the retained list so the next fetch reads the source.
func (c *Cache) Invalidate(userID uuid.UUID) {
	c.group.Forget(userID.String())
	c.mu.Lock()
	delete(c.users, userID)
	c.gen[userID]++
	c.mu.Unlock()
}

// Clear removes everything retained for the user. Called on logout.
func (c *Cache) Clear(userID uuid.UUID) {
	c.Invalidate(userID)
	c.logger.Info("history cleared", "user_id", userID)
}

// SortNewest orders reports by CreatedAt descending. The input is sorted
// in place and returned.
func SortNewest(reports []fusion.Report) []fusion.Report {
	slices.SortStableFunc(reports, func(a, b fusion.Report) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return reports
}

func head(reports []fusion.Report, n int) []fusion.Report {
	if len(reports) > n {
		return reports[:n]
	}
	return reports
}
