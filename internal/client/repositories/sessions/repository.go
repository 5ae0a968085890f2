// Package sessions persists the CLI's single signed-in session.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/wordbook/internal/client/models"
)

// Repository stores at most one session. Load returns common.ErrorNotFound
// when nobody is signed in.
type Repository interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}
