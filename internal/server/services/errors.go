package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/wordbook/internal/common"
	"github.com/dmitrijs2005/wordbook/internal/server/models"
)

var (
	ErrAuthRequired         = errors.New("sign in required")
	ErrConfirmationRequired = errors.New("deletion must be confirmed")
	ErrEmptyBatch           = errors.New("no files to upload")
)

// ValidationError names the field that failed validation. It matches
// common.ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == common.ErrValidation
}

// GatewayError wraps a failure of the table or the object store.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// gatewayErr wraps err for op. Not-found passes through unwrapped so callers
// can tell it apart from an unavailable backend.
func gatewayErr(op string, err error) error {
	if err == nil || errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return &GatewayError{Op: op, Err: err}
}

// FileError is the failure of one file of a batch.
type FileError struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Err   error  `json:"-"`
}

func (e FileError) Error() string {
	return fmt.Sprintf("file %d (%s): %v", e.Index, e.Name, e.Err)
}

// UploadError reports a failed batch: every per-file failure plus the media
// that were stored anyway. Orphaned objects are not referenced by any entry.
type UploadError struct {
	Total    int
	Failed   []FileError
	Orphaned []models.Media
}

func (e *UploadError) Error() string {
	msgs := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("upload failed for %d of %d files: %s", len(e.Failed), e.Total, strings.Join(msgs, "; "))
}

func (e *UploadError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}
