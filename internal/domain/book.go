package domain

import "slices"

// Book represents a single title in the catalog.
// A book always references an existing author and is immutable once created.
type Book struct {
	Record
	Title     string `json:"title"`
	Published *int32 `json:"published,omitempty"`
	AuthorID  string `json:"author_id"`
	// Genres preserves the order the client supplied. May be empty.
	Genres []string `json:"genres,omitempty"`
}

// HasGenre reports whether the book carries the given genre, exact match.
func (b *Book) HasGenre(genre string) bool {
	return slices.Contains(b.Genres, genre)
}

// BookAdded is the event payload published on the bus when a book is created.
// The author is carried alongside so subscribers never have to re-resolve it.
type BookAdded struct {
	Book   *Book   `json:"book"`
	Author *Author `json:"author"`
}
