// Package entriestest provides an in-memory entries.Repository for tests.
package entriestest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/wordbook/internal/catalog"
	"github.com/dmitrijs2005/wordbook/internal/common"
	"github.com/dmitrijs2005/wordbook/internal/server/models"
	"github.com/google/uuid"
)

// Memory is a goroutine-safe entries.Repository backed by a map. Timestamps
// come from a clock that never returns the same instant twice.
type Memory struct {
	mu      sync.Mutex
	rows    map[string]models.Entry
	last    time.Time
	Now     func() time.Time
	Inserts int
	Updates int
	Deletes int
}

// NewMemory returns an empty repository.
func NewMemory() *Memory {
	return &Memory{rows: make(map[string]models.Entry), Now: time.Now}
}

func (m *Memory) tick() time.Time {
	t := m.Now().UTC()
	if !t.After(m.last) {
		t = m.last.Add(time.Microsecond)
	}
	m.last = t
	return t
}

func clone(e models.Entry) *models.Entry {
	e.Media = append(models.MediaList{}, e.Media...)
	return &e
}

// Writes is the number of mutating calls made so far.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Inserts + m.Updates + m.Deletes
}

func (m *Memory) List(_ context.Context, ownerID string, opts models.ListOptions) ([]*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	term := strings.ToLower(opts.Term)
	out := make([]*models.Entry, 0)
	for _, e := range m.rows {
		if e.OwnerID != ownerID {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(e.Term), term) {
			continue
		}
		out = append(out, clone(e))
	}
	catalog.SortEntries(out, opts.Order)
	return out, nil
}

func (m *Memory) Get(_ context.Context, ownerID, id string) (*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.rows[id]
	if !ok || e.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return clone(e), nil
}

func (m *Memory) Insert(_ context.Context, entry *models.Entry) (*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := *clone(*entry)
	e.ID = uuid.NewString()
	e.CreatedAt = m.tick()
	e.UpdatedAt = e.CreatedAt
	m.rows[e.ID] = e
	m.Inserts++
	return clone(e), nil
}

func (m *Memory) Update(_ context.Context, ownerID, id string, patch models.Patch) (*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.rows[id]
	if !ok || e.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	if patch.IsEmpty() {
		return clone(e), nil
	}
	e = patch.Apply(e)
	e.UpdatedAt = m.tick()
	m.rows[id] = e
	m.Updates++
	return clone(e), nil
}

func (m *Memory) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.rows[id]
	if !ok || e.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(m.rows, id)
	m.Deletes++
	return nil
}
