package catalog

import "time"

// GameSummary is the list/suggestion projection of a game.
type GameSummary struct {
	ID         int64      `json:"id"`
	GameID     string     `json:"game_id"`
	Slug       string     `json:"slug"`
	Title      string     `json:"title"`
	CoverImage *string    `json:"cover_image"`
	Release    *time.Time `json:"release"`
	Rating     *float64   `json:"rating"`
}

// Game is the detail projection.
type Game struct {
	GameSummary
	Summary   *string  `json:"summary"`
	Storyline *string  `json:"storyline"`
	Genres    []string `json:"genres"`
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Video struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
}

type Screenshot struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
}
