package domain

import "context"

// SavedStore is durable keyed storage for saved items.
// Upsert has insert-or-replace semantics; there is never more than one row per ID.
type SavedStore interface {
	Upsert(item SavedItem) error
	DeleteByID(id int) error
	Exists(id int) (bool, error)
	GetByID(id int) (SavedItem, bool, error)
	DeleteAll() error

	// ObserveAll streams the full listing ordered by name, starting with the
	// current contents and again after every change. Closed when ctx is done.
	ObserveAll(ctx context.Context) <-chan []SavedItem
}

// SettingsStore is simple durable key-value settings storage.
type SettingsStore interface {
	GetSetting(key string) ([]byte, bool, error)
	PutSetting(key string, value []byte) error
	DeleteSetting(key string) error
}

// ReferenceCache holds platform and genre lists between runs.
type ReferenceCache interface {
	GetPlatforms() ([]Platform, bool)
	SavePlatforms(platforms []Platform) error
	GetGenres() ([]Genre, bool)
	SaveGenres(genres []Genre) error
}
