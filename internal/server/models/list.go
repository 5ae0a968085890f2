package models

import "fmt"

// SortOrder is the order in which the gateway returns entries.
type SortOrder string

const (
	// SortLatest orders by creation time, newest first.
	SortLatest SortOrder = "latest"
	// SortAlphabetical orders by term, ascending code-point order.
	SortAlphabetical SortOrder = "alphabetical"
)

// ParseSortOrder validates s. The empty string means SortLatest.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "", SortLatest:
		return SortLatest, nil
	case SortAlphabetical:
		return SortAlphabetical, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

// ListOptions narrows and orders a listing. Term, when set, keeps entries
// whose term contains it, case-insensitively.
type ListOptions struct {
	Order SortOrder
	Term  string
}
