// Package models defines the server-side data models of Wordbook.
package models

import (
	"slices"
	"time"
	"unicode/utf8"
)

// Entry is a single vocabulary record.
type Entry struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Term        string    `json:"term"`
	Description string    `json:"description"`
	Source      string    `json:"source,omitempty"`
	Media       MediaList `json:"media"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MediaURLs returns the URLs of the attached media in display order.
func (e *Entry) MediaURLs() []string {
	urls := make([]string, 0, len(e.Media))
	for _, m := range e.Media {
		urls = append(urls, m.URL)
	}
	return urls
}

// Preview returns the description cut to n runes, with an ellipsis when
// something was cut.
func (e *Entry) Preview(n int) string {
	if utf8.RuneCountInString(e.Description) <= n {
		return e.Description
	}
	runes := []rune(e.Description)
	return string(runes[:n]) + "..."
}

// Draft is the caller-supplied content of a new entry. It carries no id,
// owner or timestamps: those are assigned by the synchronizer and the gateway.
type Draft struct {
	Term        string    `json:"term"`
	Description string    `json:"description"`
	Source      string    `json:"source,omitempty"`
	Media       MediaList `json:"media,omitempty"`
}

// DraftOf returns the editable content of e.
func DraftOf(e Entry) Draft {
	return Draft{
		Term:        e.Term,
		Description: e.Description,
		Source:      e.Source,
		Media:       slices.Clone(e.Media),
	}
}

// Patch is the changed subset of an entry's editable fields. A nil field is
// left untouched by an update.
type Patch struct {
	Term        *string    `json:"term,omitempty"`
	Description *string    `json:"description,omitempty"`
	Source      *string    `json:"source,omitempty"`
	Media       *MediaList `json:"media,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Term == nil && p.Description == nil && p.Source == nil && p.Media == nil
}

// Apply returns a copy of e with the patch applied. Timestamps are not touched.
func (p Patch) Apply(e Entry) Entry {
	out := e
	if p.Term != nil {
		out.Term = *p.Term
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Source != nil {
		out.Source = *p.Source
	}
	if p.Media != nil {
		out.Media = slices.Clone(*p.Media)
	} else {
		out.Media = slices.Clone(e.Media)
	}
	return out
}

// Diff computes the patch that turns before into draft.
func Diff(before Entry, draft Draft) Patch {
	var p Patch
	if draft.Term != before.Term {
		p.Term = &draft.Term
	}
	if draft.Description != before.Description {
		p.Description = &draft.Description
	}
	if draft.Source != before.Source {
		p.Source = &draft.Source
	}
	if !slices.Equal(draft.Media, before.Media) {
		media := slices.Clone(draft.Media)
		if media == nil {
			media = MediaList{}
		}
		p.Media = &media
	}
	return p
}
