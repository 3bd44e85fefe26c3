// Package search provides full-text search over the catalog using Bleve.
package search

import "github.com/kirjastoapp/kirjasto-server/internal/domain"

// BookDocument is the document structure stored in the Bleve index.
//
// The author name is denormalized into the book document so a single
// query covers both title and author matches.
type BookDocument struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Author string   `json:"author"`
	Genres []string `json:"genres,omitempty"`
}

// NewBookDocument builds the index document for a book.
func NewBookDocument(book *domain.Book, authorName string) BookDocument {
	return BookDocument{
		ID:     book.ID,
		Title:  book.Title,
		Author: authorName,
		Genres: book.Genres,
	}
}
