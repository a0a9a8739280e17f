// Package catalog serves game details and the platform and genre lists
// used to build filters.
package catalog

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/arcade/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Facets are the reference lists a filter picks from.
type Facets struct {
	Platforms []domain.Platform
	Genres    []domain.Genre
}

// Service orchestrates metadata client + reference cache operations.
type Service struct {
	client domain.MetadataClient
	cache  domain.ReferenceCache
	logger *slog.Logger

	mu      sync.RWMutex
	details map[int]domain.CatalogItem
}

// NewService creates a new catalog service. cache may be nil.
func NewService(client domain.MetadataClient, cache domain.ReferenceCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:  client,
		cache:   cache,
		logger:  logger,
		details: make(map[int]domain.CatalogItem),
	}
}

// Details returns the full record for id. Successful lookups are cached for
// the life of the service.
func (s *Service) Details(ctx context.Context, id int) (domain.CatalogItem, error) {
	s.mu.RLock()
	item, ok := s.details[id]
	s.mu.RUnlock()
	if ok {
		return item, nil
	}

	item, err := s.client.GetGame(ctx, id)
	if err != nil {
		s.logger.Error("failed to fetch game details", "itemID", id, "error", err)
		return domain.CatalogItem{}, err
	}

	s.mu.Lock()
	s.details[id] = item
	s.mu.Unlock()
	return item, nil
}

// LoadFacets returns platforms and genres, from the cache when both lists
// are there and refresh is false. Both lists are fetched concurrently.
func (s *Service) LoadFacets(ctx context.Context, refresh bool) (Facets, error) {
	if !refresh && s.cache != nil {
		platforms, okP := s.cache.GetPlatforms()
		genres, okG := s.cache.GetGenres()
		if okP && okG {
			s.logger.Debug("facets from cache", "platforms", len(platforms), "genres", len(genres))
			return Facets{Platforms: platforms, Genres: genres}, nil
		}
	}

	var facets Facets
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		platforms, err := s.client.GetPlatforms(gctx)
		if err != nil {
			return err
		}
		facets.Platforms = platforms
		return nil
	})
	g.Go(func() error {
		genres, err := s.client.GetGenres(gctx)
		if err != nil {
			return err
		}
		facets.Genres = genres
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to fetch facets", "error", err)
		return Facets{}, err
	}

	if s.cache != nil {
		if err := s.cache.SavePlatforms(facets.Platforms); err != nil {
			s.logger.Error("failed to save platforms", "error", err)
		}
		if err := s.cache.SaveGenres(facets.Genres); err != nil {
			s.logger.Error("failed to save genres", "error", err)
		}
	}
	s.logger.Debug("fetched facets", "platforms", len(facets.Platforms), "genres", len(facets.Genres))
	return facets, nil
}

// Find returns refs whose name fuzzy-matches query, closest first. A blank
// query returns refs unchanged.
func Find(refs []domain.Ref, query string) []domain.Ref {
	query = strings.TrimSpace(query)
	if query == "" {
		return refs
	}

	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}

	ranks := fuzzy.RankFindFold(query, names)
	slices.SortStableFunc(ranks, func(a, b fuzzy.Rank) int {
		return a.Distance - b.Distance
	})

	out := make([]domain.Ref, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, refs[r.OriginalIndex])
	}
	return out
}

// Names resolves ids to display names, skipping unknown ids.
func Names(refs []domain.Ref, ids []int) []string {
	var names []string
	for _, id := range ids {
		if i := slices.IndexFunc(refs, func(r domain.Ref) bool { return r.ID == id }); i >= 0 {
			names = append(names, refs[i].Name)
		}
	}
	return names
}
