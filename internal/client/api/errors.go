package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/wordbook/internal/common"
	"github.com/dmitrijs2005/wordbook/internal/server/models"
)

var ErrUnavailable = errors.New("server unavailable")

// FileFailure is one rejected file of a batch upload.
type FileFailure struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Error is a non-2xx answer of the API. Upload failures also carry the
// per-file errors and the objects stored before the batch failed.
type Error struct {
	Status   int            `json:"-"`
	Message  string         `json:"error"`
	Failed   []FileFailure  `json:"failed,omitempty"`
	Orphaned []models.Media `json:"orphaned,omitempty"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server answered %d", e.Status)
	}
	return e.Message
}

// Is maps HTTP statuses onto the shared sentinel errors.
func (e *Error) Is(target error) bool {
	switch e.Status {
	case http.StatusBadRequest:
		return target == common.ErrValidation
	case http.StatusUnauthorized:
		if target == common.ErrTokenExpired {
			return e.Message == common.ErrTokenExpired.Error()
		}
		return target == common.ErrorUnauthorized
	case http.StatusNotFound:
		return target == common.ErrorNotFound
	case http.StatusConflict:
		return target == common.ErrorAlreadyExists
	}
	return false
}
