// Package storage is the object-store half of the remote data gateway.
package storage

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"
)

// ErrForeignURL is returned for URLs outside the store's public base.
var ErrForeignURL = errors.New("url does not belong to the media store")

// ObjectStore keeps uploaded media objects under server-generated keys.
type ObjectStore interface {
	// Put stores body under key. Existing objects are never overwritten.
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	// PublicURL is the URL at which key can be fetched.
	PublicURL(key string) string
	// KeyFromURL reverses PublicURL.
	KeyFromURL(rawURL string) (string, error)
}

// PublicBase joins public URLs and extracts keys for a base URL such as
// https://cdn.example.com/media.
type PublicBase string

func (b PublicBase) URL(key string) string {
	return strings.TrimRight(string(b), "/") + "/" + key
}

// Key returns the last path segment of rawURL, provided rawURL lives
// directly under the base.
func (b PublicBase) Key(rawURL string) (string, error) {
	base, err := url.Parse(strings.TrimRight(string(b), "/"))
	if err != nil {
		return "", err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ErrForeignURL
	}
	if u.Scheme != base.Scheme || u.Host != base.Host {
		return "", ErrForeignURL
	}
	dir, key := path.Split(u.Path)
	if key == "" || strings.TrimRight(dir, "/") != base.Path {
		return "", ErrForeignURL
	}
	return key, nil
}
