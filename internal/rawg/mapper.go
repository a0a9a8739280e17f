package rawg

import "github.com/mmcdole/arcade/internal/domain"

// MapPage converts a /games page to a RemotePage. A non-null next link
// means another page exists.
func MapPage(resp GamesResponse) domain.RemotePage {
	return domain.RemotePage{
		TotalCount: resp.Count,
		HasNext:    hasNext(resp.Next),
		Items:      MapGames(resp.Results),
	}
}

func MapGames(games []Game) []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(games))
	for _, g := range games {
		items = append(items, MapGame(g))
	}
	return items
}

// MapGame converts a RAWG game to a domain item
func MapGame(g Game) domain.CatalogItem {
	item := domain.CatalogItem{
		ID:          g.ID,
		Name:        g.Name,
		ImageURL:    deref(g.BackgroundImage),
		Released:    deref(g.Released),
		Rating:      g.Rating,
		Metacritic:  g.Metacritic,
		Description: deref(g.DescriptionRaw),
		Website:     deref(g.Website),
	}

	if len(g.Platforms) > 0 {
		item.Platforms = make([]domain.Ref, 0, len(g.Platforms))
		for _, p := range g.Platforms {
			item.Platforms = append(item.Platforms, mapRef(p.Platform))
		}
	}
	if len(g.Genres) > 0 {
		item.Genres = MapRefs(g.Genres)
	}
	for _, s := range g.ShortScreenshots {
		if s.Image != "" {
			item.Screenshots = append(item.Screenshots, s.Image)
		}
	}
	return item
}

func MapRefs(refs []Ref) []domain.Ref {
	out := make([]domain.Ref, 0, len(refs))
	for _, r := range refs {
		out = append(out, mapRef(r))
	}
	return out
}

func mapRef(r Ref) domain.Ref {
	return domain.Ref{ID: r.ID, Name: r.Name, Slug: r.Slug}
}

func hasNext(next *string) bool {
	return next != nil && *next != ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
