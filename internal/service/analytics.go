package service

import (
	"context"
	"log/slog"

	"github.com/timetowish/timetowish-server/internal/datemath"
	"github.com/timetowish/timetowish-server/internal/store"
)

// AnalyticsService computes platform-wide counters.
type AnalyticsService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(store *store.Store, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{store: store, logger: logger}
}

// PlatformStats is a snapshot of platform-wide usage.
type PlatformStats struct {
	TotalUsers       int `json:"total_users"`
	TotalCollections int `json:"total_collections"`
	TotalBirthdays   int `json:"total_birthdays"`
	// UpcomingWeek counts birthdays whose next occurrence is within 7 days.
	UpcomingWeek int `json:"upcoming_week"`
	// Today counts birthdays occurring today.
	Today int `json:"today"`
}

// Platform walks the store and counts everything. The keyspace is small
// enough that a full scan per request is fine.
func (s *AnalyticsService) Platform(ctx context.Context) (*PlatformStats, error) {
	stats := &PlatformStats{}

	var err error
	if stats.TotalUsers, err = s.store.Users.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalCollections, err = s.store.Collections.Count(ctx); err != nil {
		return nil, err
	}

	today := datemath.Today()
	for b, err := range s.store.Birthdays.List(ctx) {
		if err != nil {
			return nil, err
		}
		stats.TotalBirthdays++
		switch days := b.DaysUntil(today); {
		case days == 0:
			stats.Today++
			stats.UpcomingWeek++
		case days <= 7:
			stats.UpcomingWeek++
		}
	}

	return stats, nil
}
