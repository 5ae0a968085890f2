// Package services contains server-side business logic: the media upload
// orchestrator, the entry synchronizer and account management.
package services

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/wordbook/internal/common"
	"github.com/dmitrijs2005/wordbook/internal/logging"
	"github.com/dmitrijs2005/wordbook/internal/server/config"
	"github.com/dmitrijs2005/wordbook/internal/server/metrics"
	"github.com/dmitrijs2005/wordbook/internal/server/models"
	"github.com/dmitrijs2005/wordbook/internal/server/storage"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
)

var (
	errEmptyFile       = fmt.Errorf("%w: file is empty", common.ErrValidation)
	errTooLarge        = fmt.Errorf("%w: file is too large", common.ErrValidation)
	errUnsupportedKind = fmt.Errorf("%w: only images and videos are accepted", common.ErrValidation)
)

// now is a seam for tests.
var now = time.Now

// UploadFile is one file of an upload batch.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

type preparedFile struct {
	key         string
	contentType string
	kind        models.MediaKind
	data        []byte
}

// MediaService uploads media batches to the object store and removes
// objects on request. It never retries.
type MediaService struct {
	store       storage.ObjectStore
	maxBytes    int64
	concurrency int
	logger      logging.Logger
	metrics     *metrics.Metrics
}

func NewMediaService(store storage.ObjectStore, cfg *config.Config, logger logging.Logger, m *metrics.Metrics) *MediaService {
	concurrency := cfg.UploadConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &MediaService{
		store:       store,
		maxBytes:    cfg.MaxUploadBytes,
		concurrency: concurrency,
		logger:      logger.With("module", "media"),
		metrics:     m,
	}
}

// NewStorageKey returns <unix-millis>_<8 hex>.<ext>. The extension comes from
// name, or from contentType when name has none.
func NewStorageKey(name, contentType string, at time.Time) (string, error) {
	suffix, err := common.MakeRandHexString(4)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		if m := mimetype.Lookup(contentType); m != nil {
			ext = m.Extension()
		}
	}
	return fmt.Sprintf("%d_%s%s", at.UnixMilli(), suffix, ext), nil
}

func isGeneric(contentType string) bool {
	ct, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(contentType)), ";")
	return ct == "" || ct == "application/octet-stream" || ct == "binary/octet-stream"
}

// DetectKind returns the content type and media kind of f. The declared type
// is trusted unless missing or generic, in which case the body is sniffed.
func DetectKind(f UploadFile) (string, models.MediaKind, error) {
	contentType := f.ContentType
	if isGeneric(contentType) {
		contentType = mimetype.Detect(f.Data).String()
	}
	kind, ok := models.KindOfContentType(contentType)
	if !ok {
		return "", "", errUnsupportedKind
	}
	return contentType, kind, nil
}

func (s *MediaService) prepare(f UploadFile) (preparedFile, error) {
	if len(f.Data) == 0 {
		return preparedFile{}, errEmptyFile
	}
	if s.maxBytes > 0 && int64(len(f.Data)) > s.maxBytes {
		return preparedFile{}, errTooLarge
	}
	contentType, kind, err := DetectKind(f)
	if err != nil {
		return preparedFile{}, err
	}
	key, err := NewStorageKey(f.Name, contentType, now())
	if err != nil {
		return preparedFile{}, err
	}
	return preparedFile{key: key, contentType: contentType, kind: kind, data: f.Data}, nil
}

// Upload stores every file of the batch under a fresh key and returns the
// media in input order. All files are validated before anything is written.
// Uploads run concurrently, are not cancelled by ctx and are all awaited;
// if any of them fails the result is an *UploadError listing the failures
// and the objects that were stored regardless.
func (s *MediaService) Upload(ctx context.Context, files []UploadFile) ([]models.Media, error) {
	if len(files) == 0 {
		return nil, ErrEmptyBatch
	}

	prepared := make([]preparedFile, len(files))
	var invalid []FileError
	for i, f := range files {
		p, err := s.prepare(f)
		if err != nil {
			invalid = append(invalid, FileError{Index: i, Name: f.Name, Err: err})
			continue
		}
		prepared[i] = p
	}
	if len(invalid) > 0 {
		return nil, &UploadError{Total: len(files), Failed: invalid}
	}

	uploadCtx := context.WithoutCancel(ctx)
	results := make([]models.Media, len(files))
	errs := make([]error, len(files))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, p := range prepared {
		g.Go(func() error {
			err := s.store.Put(uploadCtx, p.key, p.data, p.contentType)
			s.metrics.ObserveUpload(err, len(p.data))
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = models.Media{URL: s.store.PublicURL(p.key), Kind: p.kind}
			return nil
		})
	}
	_ = g.Wait()

	uerr := &UploadError{Total: len(files)}
	for i, err := range errs {
		if err != nil {
			uerr.Failed = append(uerr.Failed, FileError{Index: i, Name: files[i].Name, Err: err})
			continue
		}
		uerr.Orphaned = append(uerr.Orphaned, results[i])
	}
	if len(uerr.Failed) > 0 {
		s.logger.Warn(ctx, "media batch failed", "failed", len(uerr.Failed), "orphaned", len(uerr.Orphaned))
		return nil, uerr
	}

	s.logger.Debug(ctx, "media batch uploaded", "count", len(results))
	return results, nil
}

// Remove deletes the object behind url. URLs outside the store are rejected.
func (s *MediaService) Remove(ctx context.Context, url string) error {
	key, err := s.store.KeyFromURL(url)
	if err != nil {
		return &ValidationError{Field: "url", Reason: storage.ErrForeignURL.Error()}
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return gatewayErr("remove media", err)
	}
	s.logger.Info(ctx, "media removed", "key", key)
	return nil
}

// MergeMedia appends added after existing. Neither input is modified.
func MergeMedia(existing, added []models.Media) models.MediaList {
	out := make(models.MediaList, 0, len(existing)+len(added))
	out = append(out, existing...)
	return append(out, slices.Clone(added)...)
}
