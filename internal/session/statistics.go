package session

import (
	"context"
	"time"

	"github.com/sadopc/studylog/internal/signal"
	"github.com/sadopc/studylog/internal/stats"
)

// Statistics publishes the three rollups of an aggregator.
type Statistics struct {
	agg *stats.Aggregator

	Daily   *signal.Value[[]stats.DailyStatistic]
	Weekly  *signal.Value[[]stats.WeeklyStatistic]
	Monthly *signal.Value[[]stats.MonthlyStatistic]
}

func NewStatistics(agg *stats.Aggregator) *Statistics {
	return &Statistics{
		agg:     agg,
		Daily:   signal.New[[]stats.DailyStatistic](nil),
		Weekly:  signal.New[[]stats.WeeklyStatistic](nil),
		Monthly: signal.New[[]stats.MonthlyStatistic](nil),
	}
}

// Snapshot holds the three rollups for one reference week.
type Snapshot struct {
	Daily   []stats.DailyStatistic
	Weekly  []stats.WeeklyStatistic
	Monthly []stats.MonthlyStatistic
}

// Compute builds the rollups for the week containing now without
// publishing them.
func (s *Statistics) Compute(ctx context.Context, now time.Time) (Snapshot, error) {
	daily, err := s.agg.Daily(ctx, now)
	if err != nil {
		return Snapshot{}, err
	}
	weekly, err := s.agg.Weekly(ctx, now)
	if err != nil {
		return Snapshot{}, err
	}
	monthly, err := s.agg.Monthly(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Daily: daily, Weekly: weekly, Monthly: monthly}, nil
}

func (s *Statistics) Publish(snap Snapshot) {
	s.Daily.Set(snap.Daily)
	s.Weekly.Set(snap.Weekly)
	s.Monthly.Set(snap.Monthly)
}

// Load computes and publishes every rollup for the week containing now.
// Nothing is published if any rollup fails.
func (s *Statistics) Load(ctx context.Context, now time.Time) error {
	snap, err := s.Compute(ctx, now)
	if err != nil {
		return err
	}
	s.Publish(snap)
	return nil
}
