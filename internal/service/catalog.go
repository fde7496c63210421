package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/locallibrary/catalog/internal/metrics"
	"github.com/locallibrary/catalog/internal/model"
)

// Summary is the catalog home page: counts plus the caller's visit count.
type Summary struct {
	model.CatalogSummary
	NumVisits int64 `json:"num_visits"`
}

// CatalogService serves the catalog summary.
type CatalogService struct {
	store        SummaryStore
	cache        SummaryCache
	visits       VisitCounter
	metrics      metrics.Recorder
	logger       *slog.Logger
	genreKeyword string
	titleKeyword string
}

// NewCatalogService creates a new CatalogService. cache and visits may be nil.
func NewCatalogService(store SummaryStore, cache SummaryCache, visits VisitCounter, recorder metrics.Recorder, logger *slog.Logger, genreKeyword, titleKeyword string) *CatalogService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		store:        store,
		cache:        cache,
		visits:       visits,
		metrics:      recorder,
		logger:       logger,
		genreKeyword: genreKeyword,
		titleKeyword: titleKeyword,
	}
}

// Summary returns the catalog counts and how many times this session
// visited before. An empty sessionID reports zero visits.
func (s *CatalogService) Summary(ctx context.Context, sessionID string) (*Summary, error) {
	counts, err := s.counts(ctx)
	if err != nil {
		return nil, err
	}

	out := &Summary{CatalogSummary: *counts}
	if sessionID != "" && s.visits != nil {
		n, err := s.visits.IncrementVisits(ctx, sessionID)
		if err != nil {
			s.logger.Warn("failed to count session visit", "error", err)
		} else {
			out.NumVisits = n
		}
	}
	return out, nil
}

func (s *CatalogService) counts(ctx context.Context) (*model.CatalogSummary, error) {
	if s.cache != nil {
		cached, err := s.cache.GetSummary(ctx)
		if err != nil {
			s.logger.Warn("summary cache read failed", "error", err)
		}
		if cached != nil {
			s.metrics.IncSummaryCacheHit()
			return cached, nil
		}
	}
	s.metrics.IncSummaryCacheMiss()

	counts, err := s.store.CatalogSummary(ctx, s.genreKeyword, s.titleKeyword)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog summary: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetSummary(ctx, counts); err != nil {
			s.logger.Warn("summary cache write failed", "error", err)
		}
	}
	return counts, nil
}
