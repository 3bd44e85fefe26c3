package domain

// Author represents a writer in the catalog.
// Authors are created implicitly the first time a book names them and are
// never deleted. Born is optional because most authors are added by title
// first and get their birth year filled in later.
type Author struct {
	Record
	Name string `json:"name"`
	Born *int32 `json:"born,omitempty"`
	// Books holds the IDs of this author's books in the order they were added.
	Books []string `json:"books"`
}

// AddBook appends a book ID to the author's book list.
func (a *Author) AddBook(bookID string) {
	a.Books = append(a.Books, bookID)
	a.Touch()
}
