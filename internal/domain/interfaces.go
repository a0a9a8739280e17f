package domain

import "context"

// RemotePage is one page of results from the remote catalog
type RemotePage struct {
	TotalCount int
	HasNext    bool
	Items      []CatalogItem
}

// CatalogClient issues page requests against the remote catalog.
// Recognized params keys: search, platforms, genres, ordering.
type CatalogClient interface {
	FetchPage(ctx context.Context, page, pageSize int, params map[string]string) (RemotePage, error)
}

// MetadataClient provides detail and reference lookups
type MetadataClient interface {
	GetGame(ctx context.Context, id int) (CatalogItem, error)
	GetPlatforms(ctx context.Context) ([]Platform, error)
	GetGenres(ctx context.Context) ([]Genre, error)
}

// CatalogSource combines everything a remote catalog backend implements.
type CatalogSource interface {
	CatalogClient
	MetadataClient
}
