// Package storagetest provides an in-memory storage.ObjectStore for tests.
package storagetest

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/wordbook/internal/server/storage"
)

// BaseURL is the public base of every Memory store.
const BaseURL = "https://media.test/wordbook"

// ErrExists mirrors the no-overwrite precondition of the real store.
var ErrExists = errors.New("object already exists")

// Object is a stored body with its content type.
type Object struct {
	Body        []byte
	ContentType string
}

// Memory is a goroutine-safe object store. PutHook, when set, is consulted
// before each write and can fail it.
type Memory struct {
	mu      sync.Mutex
	objects map[string]Object
	PutHook func(key string, body []byte) error
	Deleted []string
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]Object)}
}

func (m *Memory) Put(_ context.Context, key string, body []byte, contentType string) error {
	m.mu.Lock()
	hook := m.PutHook
	m.mu.Unlock()
	if hook != nil {
		if err := hook(key, body); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; ok {
		return ErrExists
	}
	m.objects[key] = Object{Body: append([]byte(nil), body...), ContentType: contentType}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

func (m *Memory) PublicURL(key string) string {
	return storage.PublicBase(BaseURL).URL(key)
}

func (m *Memory) KeyFromURL(rawURL string) (string, error) {
	return storage.PublicBase(BaseURL).Key(rawURL)
}

// Object returns the object stored under key.
func (m *Memory) Object(key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	return o, ok
}

// HasURL reports whether the object behind a public URL exists.
func (m *Memory) HasURL(rawURL string) bool {
	key, err := m.KeyFromURL(rawURL)
	if err != nil {
		return false
	}
	_, ok := m.Object(key)
	return ok
}

// Len is the number of stored objects.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
