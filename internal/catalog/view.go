// Package catalog is the search and sort view over a user's entries. Sorting
// is delegated to whoever serves the entries; filtering by term happens in
// memory over the last successful fetch.
package catalog

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrijs2005/wordbook/internal/server/models"
)

// Fetcher returns the current user's entries in the given order.
type Fetcher interface {
	Fetch(ctx context.Context, order models.SortOrder) ([]*models.Entry, error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc func(ctx context.Context, order models.SortOrder) ([]*models.Entry, error)

func (f FetchFunc) Fetch(ctx context.Context, order models.SortOrder) ([]*models.Entry, error) {
	return f(ctx, order)
}

// Filter keeps the entries whose term contains query, ignoring case. Input
// order is preserved and an empty query returns all entries.
func Filter(entries []*models.Entry, query string) []*models.Entry {
	if query == "" {
		return slices.Clone(entries)
	}
	q := strings.ToLower(query)
	out := make([]*models.Entry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Term), q) {
			out = append(out, e)
		}
	}
	return out
}

// SortEntries orders entries in place. Latest is created_at descending,
// alphabetical compares terms by code point. The sort is stable.
func SortEntries(entries []*models.Entry, order models.SortOrder) {
	switch order {
	case models.SortAlphabetical:
		slices.SortStableFunc(entries, func(a, b *models.Entry) int {
			return strings.Compare(a.Term, b.Term)
		})
	default:
		slices.SortStableFunc(entries, func(a, b *models.Entry) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
}

// View holds the last fetched entries together with the current query and order.
type View struct {
	mu      sync.RWMutex
	fetcher Fetcher
	entries []*models.Entry
	query   string
	order   models.SortOrder
}

// NewView creates an empty view with the latest-first order.
func NewView(f Fetcher) *View {
	return &View{fetcher: f, order: models.SortLatest}
}

// Refresh refetches the entries using the current order.
func (v *View) Refresh(ctx context.Context) error {
	v.mu.RLock()
	order := v.order
	v.mu.RUnlock()
	return v.load(ctx, order)
}

// SetOrder refetches with the new order. On failure the previous entries and
// order are kept.
func (v *View) SetOrder(ctx context.Context, order models.SortOrder) error {
	return v.load(ctx, order)
}

func (v *View) load(ctx context.Context, order models.SortOrder) error {
	entries, err := v.fetcher.Fetch(ctx, order)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.entries = entries
	v.order = order
	v.mu.Unlock()
	return nil
}

// SetQuery changes the term filter. No fetch is made.
func (v *View) SetQuery(query string) {
	v.mu.Lock()
	v.query = query
	v.mu.Unlock()
}

// Order returns the order of the last successful fetch.
func (v *View) Order() models.SortOrder {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.order
}

// Query returns the current filter query.
func (v *View) Query() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.query
}

// Results applies the current query to the last fetched entries.
func (v *View) Results() []*models.Entry {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return Filter(v.entries, v.query)
}
