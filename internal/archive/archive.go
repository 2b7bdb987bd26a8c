// Package archive keeps a local full-text index of finished transcripts.
package archive

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
)

// Entry is one transcript in the index. ID is the transcript's object key.
type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"` // audio key the transcript came from
	PageID    string    `json:"page_id,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Hit is a search result.
type Hit struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Source  string  `json:"source"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Index wraps a bleve index on disk.
type Index struct {
	bleve bleve.Index
}

// Open opens the index at path, creating it when it does not exist yet.
func Open(path string) (*Index, error) {
	var idx bleve.Index
	var err error

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		mapping := bleve.NewIndexMapping()
		idx, err = bleve.New(path, mapping)
	} else {
		idx, err = bleve.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	return &Index{bleve: idx}, nil
}

// Add indexes or replaces an entry.
func (i *Index) Add(e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("archive: entry has no id")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := i.bleve.Index(e.ID, e); err != nil {
		return fmt.Errorf("archive index %s: %w", e.ID, err)
	}
	return nil
}

// Search runs a match query over titles and text, best first.
func (i *Index) Search(query string, topK int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = 10
	}

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = topK
	req.Fields = []string{"title", "source"}
	req.Highlight = bleve.NewHighlight()
	res, err := i.bleve.Search(req)
	if err != nil {
		return nil, fmt.Errorf("archive search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if v, ok := h.Fields["title"].(string); ok {
			hit.Title = v
		}
		if v, ok := h.Fields["source"].(string); ok {
			hit.Source = v
		}
		if frags := h.Fragments["text"]; len(frags) > 0 {
			hit.Snippet = frags[0]
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Count returns the number of indexed transcripts.
func (i *Index) Count() (uint64, error) {
	return i.bleve.DocCount()
}

// Close closes the index. Must be called before opening it again.
func (i *Index) Close() error {
	if i.bleve != nil {
		return i.bleve.Close()
	}
	return nil
}
