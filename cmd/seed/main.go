// Package main provides a tool to seed the database with a sample catalog.
//
// Usage:
//
//	DB_PATH=~/Kirjasto/data/db go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/kirjastoapp/kirjasto-server/internal/domain"
	domainerrors "github.com/kirjastoapp/kirjasto-server/internal/errors"
	"github.com/kirjastoapp/kirjasto-server/internal/id"
	"github.com/kirjastoapp/kirjasto-server/internal/store"
)

type seedBook struct {
	title     string
	author    string
	published int32
	genres    []string
}

var seedAuthors = map[string]int32{
	"Robert Martin":     1952,
	"Martin Fowler":     1963,
	"Fyodor Dostoevsky": 1821,
	"Joshua Kerievsky":  0,
	"Sandi Metz":        0,
}

var seedBooks = []seedBook{
	{"Clean Code", "Robert Martin", 2008, []string{"refactoring"}},
	{"Agile software development", "Robert Martin", 2002, []string{"agile", "patterns", "design"}},
	{"Refactoring, edition 2", "Martin Fowler", 2018, []string{"refactoring"}},
	{"Refactoring to patterns", "Joshua Kerievsky", 2008, []string{"refactoring", "patterns"}},
	{"Practical Object-Oriented Design, An Agile Primer Using Ruby", "Sandi Metz", 2012, []string{"refactoring", "design"}},
	{"Crime and punishment", "Fyodor Dostoevsky", 1866, []string{"classic", "crime"}},
	{"Demons", "Fyodor Dostoevsky", 1872, []string{"classic", "revolution"}},
}

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Kirjasto/data/db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	authorIDs := make(map[string]string, len(seedAuthors))
	for name, born := range seedAuthors {
		author, err := ensureAuthor(ctx, s, name, born)
		if err != nil {
			log.Fatalf("Failed to seed author %q: %v", name, err)
		}
		authorIDs[name] = author.ID
	}
	fmt.Printf("Seeded %d authors\n", len(authorIDs))

	created := 0
	for _, sb := range seedBooks {
		book := &domain.Book{
			Record:   domain.Record{ID: id.MustGenerate("book")},
			Title:    sb.title,
			AuthorID: authorIDs[sb.author],
			Genres:   sb.genres,
		}
		if sb.published != 0 {
			published := sb.published
			book.Published = &published
		}
		book.InitTimestamps()

		if err := s.CreateBook(ctx, book); err != nil {
			log.Fatalf("Failed to seed book %q: %v", sb.title, err)
		}

		author, err := s.GetAuthor(ctx, book.AuthorID)
		if err != nil {
			log.Fatalf("Failed to load author for %q: %v", sb.title, err)
		}
		author.AddBook(book.ID)
		if err := s.UpdateAuthor(ctx, author); err != nil {
			log.Fatalf("Failed to update author for %q: %v", sb.title, err)
		}
		created++
	}

	fmt.Printf("Seeded %d books. Done.\n", created)
}

// ensureAuthor creates the author unless one with the same name exists.
func ensureAuthor(ctx context.Context, s *store.Store, name string, born int32) (*domain.Author, error) {
	if existing, err := s.GetAuthorByName(ctx, name); err == nil {
		return existing, nil
	} else if !domainerrors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	author := &domain.Author{
		Record: domain.Record{ID: id.MustGenerate("author")},
		Name:   name,
		Books:  []string{},
	}
	if born != 0 {
		b := born
		author.Born = &b
	}
	author.InitTimestamps()

	if err := s.CreateAuthor(ctx, author); err != nil {
		return nil, err
	}
	return author, nil
}
