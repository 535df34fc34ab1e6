package pipeline

import (
	"time"

	"github.com/hazyhaar/storet-normalizer/pkg/storet"
)

// RoleStats counts what happened to one input category.
type RoleStats struct {
	Files      int
	Unreadable int
	Lines      int
	Written    int
	Duplicates int
	Skipped    map[storet.SkipReason]int
}

func newRoleStats() RoleStats {
	return RoleStats{Skipped: make(map[storet.SkipReason]int)}
}

func (s *RoleStats) skip(r storet.SkipReason) {
	s.Skipped[r]++
}

// SkippedTotal returns the number of dropped lines across all reasons.
func (s RoleStats) SkippedTotal() int {
	n := 0
	for _, v := range s.Skipped {
		n += v
	}
	return n
}

// merge folds per-file counters into s. Written is tracked by the writer.
func (s *RoleStats) merge(o RoleStats) {
	s.Unreadable += o.Unreadable
	s.Lines += o.Lines
	s.Duplicates += o.Duplicates
	for k, v := range o.Skipped {
		s.Skipped[k] += v
	}
}

// Summary is the outcome of one pipeline run.
type Summary struct {
	Parameters RoleStats
	Stations   RoleStats
	Results    RoleStats
	StartedAt  time.Time
	FinishedAt time.Time
}

func newSummary(started time.Time) *Summary {
	return &Summary{
		Parameters: newRoleStats(),
		Stations:   newRoleStats(),
		Results:    newRoleStats(),
		StartedAt:  started,
	}
}

// Role returns the counters for r.
func (s *Summary) Role(r storet.Role) *RoleStats {
	switch r {
	case storet.RoleInventory:
		return &s.Parameters
	case storet.RoleStation:
		return &s.Stations
	default:
		return &s.Results
	}
}

// Duration returns the wall time of the run.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
