package domain

import (
	"fmt"
	"strings"
	"time"
)

// Ref is a lightweight reference to a platform or genre
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// Platform is a catalog platform (PC, PlayStation 5, ...)
type Platform = Ref

// Genre is a catalog genre (Action, RPG, ...)
type Genre = Ref

// CatalogItem is a single record fetched from the remote catalog.
// Immutable once fetched; identity is ID.
type CatalogItem struct {
	ID       int    // Globally unique within one remote source
	Name     string // Display name
	ImageURL string // Cover image, empty if absent
	Released string // Release date (YYYY-MM-DD), empty if absent

	Rating     *float64 // Community rating (0-5 scale), nil if absent
	Metacritic *int     // Critic score (0-100), nil if absent

	Platforms []Ref // Ordered as returned by the remote
	Genres    []Ref // Ordered as returned by the remote

	Description string   // Plain-text description (detail endpoint only)
	Website     string   // External website URL
	Screenshots []string // Short screenshot image URLs
}

// ReleaseYear returns the release year, or 0 if unknown
func (c CatalogItem) ReleaseYear() int {
	return releaseYear(c.Released)
}

// FormattedRating returns the rating as "4.3", or "" if absent
func (c CatalogItem) FormattedRating() string {
	return formatRating(c.Rating)
}

// PlatformNames returns the platform names joined for display
func (c CatalogItem) PlatformNames() string {
	return joinNames(c.Platforms)
}

// GenreNames returns the genre names joined for display
func (c CatalogItem) GenreNames() string {
	return joinNames(c.Genres)
}

// Snapshot freezes the fields stored for a saved item.
func (c CatalogItem) Snapshot(savedAt time.Time) SavedItem {
	var rating *float64
	if c.Rating != nil {
		r := *c.Rating
		rating = &r
	}
	return SavedItem{
		ID:       c.ID,
		Name:     c.Name,
		ImageURL: c.ImageURL,
		Released: c.Released,
		Rating:   rating,
		SavedAt:  savedAt,
	}
}

// SavedItem is a durable local snapshot of a catalog entry.
// It is decoupled from the live CatalogItem after save.
type SavedItem struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	ImageURL string    `json:"image_url,omitempty"`
	Released string    `json:"released,omitempty"`
	Rating   *float64  `json:"rating,omitempty"`
	SavedAt  time.Time `json:"saved_at"`
}

// ReleaseYear returns the release year, or 0 if unknown
func (s SavedItem) ReleaseYear() int {
	return releaseYear(s.Released)
}

// FormattedRating returns the rating as "4.3", or "" if absent
func (s SavedItem) FormattedRating() string {
	return formatRating(s.Rating)
}

func releaseYear(released string) int {
	if len(released) < 4 {
		return 0
	}
	t, err := time.Parse("2006", released[:4])
	if err != nil {
		return 0
	}
	return t.Year()
}

func formatRating(r *float64) string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *r)
}

func joinNames(refs []Ref) string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		names = append(names, r.Name)
	}
	return strings.Join(names, ", ")
}
