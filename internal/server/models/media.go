package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// MediaKind tells how an attached media object is rendered.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// KindOfContentType maps a MIME type to a media kind. Only image/* and
// video/* are accepted.
func KindOfContentType(contentType string) (MediaKind, bool) {
	mediaType, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(contentType)), ";")
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return MediaImage, true
	case strings.HasPrefix(mediaType, "video/"):
		return MediaVideo, true
	default:
		return "", false
	}
}

// Media is a reference from an entry to an uploaded object. The kind is
// recorded once at upload time.
type Media struct {
	URL  string    `json:"url"`
	Kind MediaKind `json:"kind"`
}

// MediaList is the ordered media of an entry, stored as a JSON array.
type MediaList []Media

// Value implements driver.Valuer.
func (m MediaList) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *MediaList) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*m = MediaList{}
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported media column type %T", src)
	}
	var out MediaList
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("decode media: %w", err)
	}
	if out == nil {
		out = MediaList{}
	}
	*m = out
	return nil
}

// Without returns the items of m whose URL is not in urls, and the removed items.
func (m MediaList) Without(urls ...string) (kept, removed MediaList) {
	drop := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		drop[u] = struct{}{}
	}
	kept = MediaList{}
	for _, item := range m {
		if _, ok := drop[item.URL]; ok {
			removed = append(removed, item)
			continue
		}
		kept = append(kept, item)
	}
	return kept, removed
}

// Dropped returns the items of before that are absent from after.
func Dropped(before, after MediaList) MediaList {
	keep := make(map[string]struct{}, len(after))
	for _, item := range after {
		keep[item.URL] = struct{}{}
	}
	var out MediaList
	for _, item := range before {
		if _, ok := keep[item.URL]; !ok {
			out = append(out, item)
		}
	}
	return out
}
