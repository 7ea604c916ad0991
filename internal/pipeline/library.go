package pipeline

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/bookflow/internal/booktree"
)

// ErrNotFound is returned for an unknown document id.
var ErrNotFound = errors.New("document not found")

// Document is a parsed book with its image dictionary fully resolved. It is
// never mutated after it enters the library.
type Document struct {
	ID          string
	Title       string
	Filename    string
	ContentHash string
	Book        *booktree.Book
	CreatedAt   time.Time
}

// DocumentInfo is the JSON listing form of a document.
type DocumentInfo struct {
	ID          string    `json:"doc_id"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash"`
	Nodes       int       `json:"nodes"`
	Images      int       `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
}

func (d *Document) Info() DocumentInfo {
	return DocumentInfo{
		ID:          d.ID,
		Title:       d.Title,
		Filename:    d.Filename,
		ContentHash: d.ContentHash,
		Nodes:       len(d.Book.Nodes),
		Images:      len(d.Book.Images),
		CreatedAt:   d.CreatedAt,
	}
}

// Library holds ingested documents with TTL eviction.
type Library struct {
	mu   sync.RWMutex
	docs map[string]*Document
	ttl  time.Duration
}

func NewLibrary(ttl time.Duration) *Library {
	return &Library{
		docs: make(map[string]*Document),
		ttl:  ttl,
	}
}

// Put stores doc, replacing any document with the same id.
func (l *Library) Put(doc *Document) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[doc.ID] = doc
}

func (l *Library) Get(id string) (*Document, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	doc, ok := l.docs[id]
	return doc, ok
}

// FindByHash returns the id of a document with the given content hash.
func (l *Library) FindByHash(hash string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for id, doc := range l.docs {
		if doc.ContentHash == hash {
			return id, true
		}
	}
	return "", false
}

// List returns all documents, oldest first.
func (l *Library) List() []DocumentInfo {
	l.mu.RLock()
	out := make([]DocumentInfo, 0, len(l.docs))
	for _, doc := range l.docs {
		out = append(out, doc.Info())
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (l *Library) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.docs[id]; !ok {
		return ErrNotFound
	}
	delete(l.docs, id)
	return nil
}

func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.docs)
}

// Cleanup removes documents older than the TTL and returns their ids.
func (l *Library) Cleanup() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var evicted []string
	now := time.Now()
	for id, doc := range l.docs {
		if now.Sub(doc.CreatedAt) > l.ttl {
			delete(l.docs, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}
