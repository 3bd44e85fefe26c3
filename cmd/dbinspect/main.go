// Package main provides a read-only inspection tool for the catalog
// database.
//
// Usage:
//
//	DB_PATH=~/Kirjasto/data/db go run ./cmd/dbinspect
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/kirjastoapp/kirjasto-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Kirjasto/data/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	books := 0
	authors := 0
	users := 0
	indexKeys := 0
	orphanBooks := 0

	authorIDs := make(map[string]bool)

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		// First pass: collect author IDs.
		for it.Seek([]byte("author:")); it.ValidForPrefix([]byte("author:")); it.Next() {
			key := string(it.Item().Key())
			if isIndexKey(key, "author:") {
				indexKeys++
				continue
			}
			authors++
			authorIDs[strings.TrimPrefix(key, "author:")] = true
		}

		// Second pass: books, checking author references.
		for it.Seek([]byte("book:")); it.ValidForPrefix([]byte("book:")); it.Next() {
			item := it.Item()
			key := string(item.Key())
			if isIndexKey(key, "book:") {
				indexKeys++
				continue
			}
			books++

			err := item.Value(func(val []byte) error {
				var book domain.Book
				if err := json.Unmarshal(val, &book); err != nil {
					return fmt.Errorf("decode %s: %w", key, err)
				}
				if !authorIDs[book.AuthorID] {
					orphanBooks++
					fmt.Printf("  ORPHAN: book %q references missing author %s\n", book.Title, book.AuthorID)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}

		for it.Seek([]byte("user:")); it.ValidForPrefix([]byte("user:")); it.Next() {
			key := string(it.Item().Key())
			if isIndexKey(key, "user:") {
				indexKeys++
				continue
			}
			users++
		}

		return nil
	})
	if err != nil {
		log.Fatalf("Inspection failed: %v", err)
	}

	fmt.Printf("Authors:      %d\n", authors)
	fmt.Printf("Books:        %d\n", books)
	fmt.Printf("Users:        %d\n", users)
	fmt.Printf("Index keys:   %d\n", indexKeys)
	fmt.Printf("Orphan books: %d\n", orphanBooks)
}

// isIndexKey reports whether the key is a secondary index entry rather
// than a primary document.
func isIndexKey(key, prefix string) bool {
	rest := strings.TrimPrefix(key, prefix)
	return strings.HasPrefix(rest, "idx:") || strings.HasPrefix(rest, "ref:")
}
