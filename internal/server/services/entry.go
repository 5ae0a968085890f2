package services

import (
	"context"
	"database/sql"
	"slices"
	"strings"

	"github.com/dmitrijs2005/wordbook/internal/logging"
	"github.com/dmitrijs2005/wordbook/internal/server/config"
	"github.com/dmitrijs2005/wordbook/internal/server/metrics"
	"github.com/dmitrijs2005/wordbook/internal/server/models"
	"github.com/dmitrijs2005/wordbook/internal/server/repositories/entries"
	"github.com/dmitrijs2005/wordbook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/wordbook/internal/server/session"
)

// EntryService validates and persists entries on behalf of the signed-in
// user. Ownership is enforced by the owner-scoped repository queries.
type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	media       *MediaService
	reclaim     bool
	logger      logging.Logger
	metrics     *metrics.Metrics
}

func NewEntryService(db *sql.DB, rm repomanager.RepositoryManager, media *MediaService, cfg *config.Config,
	logger logging.Logger, m *metrics.Metrics) *EntryService {
	return &EntryService{
		db:          db,
		repomanager: rm,
		media:       media,
		reclaim:     cfg.ReclaimOrphanedMedia,
		logger:      logger.With("module", "entries"),
		metrics:     m,
	}
}

func (s *EntryService) repo() entries.Repository {
	return s.repomanager.Entries(s.db)
}

func currentUser(ctx context.Context) (string, error) {
	id, ok := session.UserID(ctx)
	if !ok {
		return "", ErrAuthRequired
	}
	return id, nil
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	return nil
}

// Validate checks a draft before it is created.
func Validate(d models.Draft) error {
	if err := requireText("term", d.Term); err != nil {
		return err
	}
	return requireText("description", d.Description)
}

// ValidatePatch checks the fields present in p.
func ValidatePatch(p models.Patch) error {
	if p.Term != nil {
		if err := requireText("term", *p.Term); err != nil {
			return err
		}
	}
	if p.Description != nil {
		return requireText("description", *p.Description)
	}
	return nil
}

// Create validates the draft and inserts it as an entry of the current user.
func (s *EntryService) Create(ctx context.Context, draft models.Draft) (e *models.Entry, err error) {
	defer func() { s.metrics.ObserveEntryOp("create", err) }()

	if err := Validate(draft); err != nil {
		return nil, err
	}
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	media := slices.Clone(draft.Media)
	if media == nil {
		media = models.MediaList{}
	}
	created, err := s.repo().Insert(ctx, &models.Entry{
		OwnerID:     owner,
		Term:        draft.Term,
		Description: draft.Description,
		Source:      draft.Source,
		Media:       media,
	})
	if err != nil {
		return nil, gatewayErr("insert entry", err)
	}

	s.logger.Info(ctx, "entry created", "id", created.ID)
	return created, nil
}

// Update writes the fields present in patch. An empty patch writes nothing
// and returns the current entry.
func (s *EntryService) Update(ctx context.Context, id string, patch models.Patch) (e *models.Entry, err error) {
	defer func() { s.metrics.ObserveEntryOp("update", err) }()

	if err := ValidatePatch(patch); err != nil {
		return nil, err
	}
	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	repo := s.repo()

	if patch.IsEmpty() {
		current, err := repo.Get(ctx, owner, id)
		return current, gatewayErr("get entry", err)
	}

	var before *models.Entry
	if s.reclaim && patch.Media != nil {
		if before, err = repo.Get(ctx, owner, id); err != nil {
			return nil, gatewayErr("get entry", err)
		}
	}

	updated, err := repo.Update(ctx, owner, id, patch)
	if err != nil {
		return nil, gatewayErr("update entry", err)
	}

	if before != nil {
		s.reclaimMedia(ctx, models.Dropped(before.Media, updated.Media))
	}
	s.logger.Info(ctx, "entry updated", "id", id)
	return updated, nil
}

// Delete removes an entry. Nothing happens unless confirmed is true.
func (s *EntryService) Delete(ctx context.Context, id string, confirmed bool) (err error) {
	defer func() { s.metrics.ObserveEntryOp("delete", err) }()

	if !confirmed {
		return ErrConfirmationRequired
	}
	owner, err := currentUser(ctx)
	if err != nil {
		return err
	}
	repo := s.repo()

	var before *models.Entry
	if s.reclaim {
		if before, err = repo.Get(ctx, owner, id); err != nil {
			return gatewayErr("get entry", err)
		}
	}

	if err := repo.Delete(ctx, owner, id); err != nil {
		return gatewayErr("delete entry", err)
	}

	if before != nil {
		s.reclaimMedia(ctx, before.Media)
	}
	s.logger.Info(ctx, "entry deleted", "id", id)
	return nil
}

// Get returns one entry of the current user.
func (s *EntryService) Get(ctx context.Context, id string) (e *models.Entry, err error) {
	defer func() { s.metrics.ObserveEntryOp("get", err) }()

	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	e, err = s.repo().Get(ctx, owner, id)
	if err != nil {
		return nil, gatewayErr("get entry", err)
	}
	return e, nil
}

// List returns the current user's entries, sorted and optionally narrowed
// to terms containing opts.Term.
func (s *EntryService) List(ctx context.Context, opts models.ListOptions) (list []*models.Entry, err error) {
	defer func() { s.metrics.ObserveEntryOp("list", err) }()

	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	list, err = s.repo().List(ctx, owner, opts)
	if err != nil {
		return nil, gatewayErr("list entries", err)
	}
	return list, nil
}

// AttachMedia uploads files and appends them to the entry's media. If the
// final write fails the uploaded objects stay in storage unreferenced.
func (s *EntryService) AttachMedia(ctx context.Context, id string, files []UploadFile) (e *models.Entry, err error) {
	defer func() { s.metrics.ObserveEntryOp("attach_media", err) }()

	owner, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	repo := s.repo()

	current, err := repo.Get(ctx, owner, id)
	if err != nil {
		return nil, gatewayErr("get entry", err)
	}

	uploaded, err := s.media.Upload(ctx, files)
	if err != nil {
		return nil, err
	}

	merged := MergeMedia(current.Media, uploaded)
	updated, err := repo.Update(ctx, owner, id, models.Patch{Media: &merged})
	if err != nil {
		s.logger.Warn(ctx, "uploaded media left unreferenced", "id", id, "urls", urlsOf(uploaded))
		return nil, gatewayErr("update entry", err)
	}

	s.logger.Info(ctx, "media attached", "id", id, "count", len(uploaded))
	return updated, nil
}

// reclaimMedia deletes objects no entry refers to any more. Failures are
// only logged.
func (s *EntryService) reclaimMedia(ctx context.Context, items []models.Media) {
	for _, m := range items {
		if err := s.media.Remove(ctx, m.URL); err != nil {
			s.logger.Warn(ctx, "orphaned media not reclaimed", "url", m.URL, "error", err)
		}
	}
}

func urlsOf(items []models.Media) []string {
	out := make([]string, 0, len(items))
	for _, m := range items {
		out = append(out, m.URL)
	}
	return out
}
