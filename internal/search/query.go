package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// defaultLimit caps search results; the catalog UI shows one page.
const defaultLimit = 50

// SearchBooks runs a full-text query over titles, author names, and genres
// and returns the matching book IDs in relevance order.
func (s *Index) SearchBooks(queryStr string) ([]string, error) {
	queryStr = strings.TrimSpace(queryStr)
	if queryStr == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Match with fuzziness on the text fields, exact term on genres.
	titleQuery := bleve.NewMatchQuery(queryStr)
	titleQuery.SetField("title")
	titleQuery.SetBoost(2.0)

	authorQuery := bleve.NewMatchQuery(queryStr)
	authorQuery.SetField("author")
	authorQuery.SetBoost(1.5)

	genreQuery := bleve.NewTermQuery(strings.ToLower(queryStr))
	genreQuery.SetField("genres")

	disjunction := bleve.NewDisjunctionQuery(
		[]query.Query{titleQuery, authorQuery, genreQuery}...,
	)

	req := bleve.NewSearchRequest(disjunction)
	req.Size = defaultLimit

	result, err := s.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}
