// Package entries is the table half of the remote data gateway: owner-scoped
// persistence of vocabulary entries.
package entries

import (
	"context"

	"github.com/dmitrijs2005/wordbook/internal/server/models"
)

// Repository persists entries. Every method is scoped to ownerID; rows of
// other owners behave as if they did not exist (common.ErrorNotFound).
type Repository interface {
	List(ctx context.Context, ownerID string, opts models.ListOptions) ([]*models.Entry, error)
	Get(ctx context.Context, ownerID, id string) (*models.Entry, error)
	// Insert assigns the id and timestamps and returns the stored entry.
	Insert(ctx context.Context, entry *models.Entry) (*models.Entry, error)
	// Update writes only the fields present in patch and refreshes updated_at.
	Update(ctx context.Context, ownerID, id string, patch models.Patch) (*models.Entry, error)
	Delete(ctx context.Context, ownerID, id string) error
}
