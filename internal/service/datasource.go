package service

import (
	"context"
	"errors"
	"sync"

	"daily-leaderboard/internal/api"
	"daily-leaderboard/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type MonthFetcher interface {
	FetchMonth(ctx context.Context, key string) (*api.MonthDocument, error)
}

type FetchRecorder interface {
	Record(ctx context.Context, rec domain.FetchRecord) (domain.FetchRecord, error)
}

// DataSource memoizes month datasets per key for the life of the process.
// Concurrent first requests share one fetch. Only a successful fetch writes
// the cache.
type DataSource struct {
	fetcher  MonthFetcher
	recorder FetchRecorder
	clock    clockwork.Clock
	logger   zerolog.Logger

	mu    sync.RWMutex
	cache map[string]*domain.MonthDataset
	group singleflight.Group
}

func NewDataSource(fetcher MonthFetcher, recorder FetchRecorder, clock clockwork.Clock, logger zerolog.Logger) *DataSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &DataSource{
		fetcher:  fetcher,
		recorder: recorder,
		clock:    clock,
		logger:   logger,
		cache:    make(map[string]*domain.MonthDataset),
	}
}

func (s *DataSource) Month(ctx context.Context, key string) (*domain.MonthDataset, error) {
	if ds, ok := s.cached(key); ok {
		s.logger.Debug().Str("month", key).Msg("returning cached month")
		return ds, nil
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		if ds, ok := s.cached(key); ok {
			return ds, nil
		}
		return s.load(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug().Str("month", key).Msg("joined in-flight month fetch")
	}
	return v.(*domain.MonthDataset), nil
}

// Reload fetches key again and replaces the cached copy once the fetch
// succeeds. On failure the previously cached dataset stays in place.
func (s *DataSource) Reload(ctx context.Context, key string) (*domain.MonthDataset, error) {
	s.logger.Info().Str("month", key).Msg("reloading month")

	v, err, _ := s.group.Do("reload:"+key, func() (any, error) {
		return s.load(ctx, key)
	})
	if err != nil {
		if _, ok := s.cached(key); ok {
			s.logger.Warn().Err(err).Str("month", key).Msg("reload failed, keeping cached month")
		}
		return nil, err
	}
	return v.(*domain.MonthDataset), nil
}

func (s *DataSource) Cached() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.cache))
	for k := range s.cache {
		keys = append(keys, k)
	}
	return keys
}

func (s *DataSource) cached(key string) (*domain.MonthDataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.cache[key]
	return ds, ok
}

func (s *DataSource) load(ctx context.Context, key string) (*domain.MonthDataset, error) {
	s.logger.Info().Str("month", key).Msg("fetching month")

	doc, err := s.fetcher.FetchMonth(ctx, key)
	if err != nil {
		s.logger.Error().Err(err).Str("month", key).Msg("failed to fetch month")
		s.record(ctx, failedFetch(key, err))
		var loadErr *domain.LoadError
		if !errors.As(err, &loadErr) {
			err = &domain.LoadError{MonthKey: key, Source: key, Err: err}
		}
		return nil, err
	}

	rows := 0
	for _, d := range doc.Dataset.Days {
		rows += len(d.Rows)
	}
	s.record(ctx, domain.FetchRecord{
		MonthKey: key,
		Source:   doc.Source,
		Status:   domain.FetchStatusOK,
		Days:     len(doc.Dataset.Days),
		Rows:     rows,
		Bytes:    doc.Bytes,
	})

	s.mu.Lock()
	s.cache[key] = doc.Dataset
	s.mu.Unlock()

	s.logger.Info().
		Str("month", key).
		Int("days", len(doc.Dataset.Days)).
		Int("rows", rows).
		Msg("month fetched successfully")
	return doc.Dataset, nil
}

func failedFetch(key string, err error) domain.FetchRecord {
	rec := domain.FetchRecord{
		MonthKey: key,
		Source:   key,
		Status:   domain.FetchStatusError,
		Error:    err.Error(),
	}
	var loadErr *domain.LoadError
	if errors.As(err, &loadErr) && loadErr.Source != "" {
		rec.Source = loadErr.Source
	}
	return rec
}

// record archives a fetch. Archive failures are logged and never fail the load.
func (s *DataSource) record(ctx context.Context, rec domain.FetchRecord) {
	if s.recorder == nil {
		return
	}
	rec.FetchedAt = s.clock.Now()
	if _, err := s.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn().Err(err).Str("month", rec.MonthKey).Msg("failed to archive fetch")
	}
}
