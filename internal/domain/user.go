package domain

// User represents a registered account in the catalog.
// Users are immutable after creation; the favorite genre drives the
// client's recommendation view.
type User struct {
	Record
	Username      string `json:"username"`
	FavoriteGenre string `json:"favorite_genre"`
}
