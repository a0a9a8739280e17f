package rawg

// GamesResponse is a page of /games results
type GamesResponse struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []Game  `json:"results"`
}

// Game is a RAWG game, as returned by both /games and /games/{id}.
// The detail endpoint additionally fills DescriptionRaw and Website.
type Game struct {
	ID               int             `json:"id"`
	Name             string          `json:"name"`
	BackgroundImage  *string         `json:"background_image"`
	Released         *string         `json:"released"`
	Rating           *float64        `json:"rating"`
	RatingTop        *int            `json:"rating_top"`
	Platforms        []PlatformEntry `json:"platforms"`
	Genres           []Ref           `json:"genres"`
	ShortScreenshots []Screenshot    `json:"short_screenshots"`
	DescriptionRaw   *string         `json:"description_raw"`
	Website          *string         `json:"website"`
	Metacritic       *int            `json:"metacritic"`
}

// PlatformEntry wraps the platform inside a game's platform list
type PlatformEntry struct {
	Platform Ref `json:"platform"`
}

// Ref is a platform or genre
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Screenshot struct {
	ID    int    `json:"id"`
	Image string `json:"image"`
}

// RefListResponse is a page of /platforms or /genres results
type RefListResponse struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []Ref   `json:"results"`
}
