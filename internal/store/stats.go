package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type countCollection interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// StatsProvider exposes helper methods to retrieve collection counts for basic
// diagnostics without leaking MongoDB internals to callers.
type StatsProvider struct {
	progress countCollection
	warnings countCollection
}

// NewStatsProvider constructs a StatsProvider backed by the provided progress
// and warnings collections.
func NewStatsProvider(progress, warnings countCollection) *StatsProvider {
	return &StatsProvider{
		progress: progress,
		warnings: warnings,
	}
}

// CountTracked returns the number of users with a progress document.
func (p *StatsProvider) CountTracked(ctx context.Context) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if p == nil || p.progress == nil {
		return 0, errors.New("stats provider is not initialized")
	}

	count, err := p.progress.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count tracked users: %w", err)
	}

	return count, nil
}

// CountWarned returns the number of users with a warning log.
func (p *StatsProvider) CountWarned(ctx context.Context) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if p == nil || p.warnings == nil {
		return 0, errors.New("stats provider is not initialized")
	}

	count, err := p.warnings.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count warned users: %w", err)
	}

	return count, nil
}
