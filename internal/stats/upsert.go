// Package stats provides utilities for tracking rating upsert statistics.
package stats

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// UpsertStats tracks cumulative statistics for rating upsert operations,
// including recomputations that failed and were swallowed.
// All operations are thread-safe using atomic counters.
type UpsertStats struct {
	inserted          int64 // First-time ratings inserted
	updated           int64 // Existing ratings overwritten
	recomputeFailures int64 // Recomputations logged and swallowed
}

// NewUpsertStats creates a new UpsertStats instance.
func NewUpsertStats() *UpsertStats {
	return &UpsertStats{}
}

// RecordInsert increments the inserted counter.
func (s *UpsertStats) RecordInsert() {
	atomic.AddInt64(&s.inserted, 1)
}

// RecordUpdate increments the updated counter.
func (s *UpsertStats) RecordUpdate() {
	atomic.AddInt64(&s.updated, 1)
}

// RecordRecomputeFailure increments the swallowed-recompute counter.
func (s *UpsertStats) RecordRecomputeFailure() {
	atomic.AddInt64(&s.recomputeFailures, 1)
}

// Inserted returns the total number of first-time ratings.
func (s *UpsertStats) Inserted() int64 {
	return atomic.LoadInt64(&s.inserted)
}

// Updated returns the total number of overwritten ratings.
func (s *UpsertStats) Updated() int64 {
	return atomic.LoadInt64(&s.updated)
}

// RecomputeFailures returns the total number of swallowed recomputations.
func (s *UpsertStats) RecomputeFailures() int64 {
	return atomic.LoadInt64(&s.recomputeFailures)
}

// Total returns the total number of upsert operations (inserts + updates).
func (s *UpsertStats) Total() int64 {
	return s.Inserted() + s.Updated()
}

// Reset resets all counters to zero.
func (s *UpsertStats) Reset() {
	atomic.StoreInt64(&s.inserted, 0)
	atomic.StoreInt64(&s.updated, 0)
	atomic.StoreInt64(&s.recomputeFailures, 0)
}

// String returns a human-readable summary of the statistics.
func (s *UpsertStats) String() string {
	return fmt.Sprintf("inserted=%d updated=%d total=%d recompute_failures=%d",
		s.Inserted(), s.Updated(), s.Total(), s.RecomputeFailures())
}

// LogSummary logs a summary of upsert statistics at INFO level.
// Useful for periodic reporting.
func (s *UpsertStats) LogSummary(logger *slog.Logger, entity string) {
	logger.Info("upsert statistics",
		"entity", entity,
		"inserted", s.Inserted(),
		"updated", s.Updated(),
		"total", s.Total(),
		"recompute_failures", s.RecomputeFailures(),
	)
}
