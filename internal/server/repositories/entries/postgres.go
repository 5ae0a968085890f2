package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/wordbook/internal/common"
	"github.com/dmitrijs2005/wordbook/internal/dbx"
	"github.com/dmitrijs2005/wordbook/internal/server/models"
	"github.com/google/uuid"
)

const entryColumns = `id, user_id, term, description, source, media, created_at, updated_at`

// newID is a seam for tests.
var newID = uuid.NewString

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	e := &models.Entry{}
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Term, &e.Description, &e.Source, &e.Media, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return e, nil
}

// escapeLike escapes the ILIKE wildcards so the term is matched literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// List returns the owner's entries in the requested order. Alphabetical order
// uses the "C" collation so terms compare by code point.
func (r *PostgresRepository) List(ctx context.Context, ownerID string, opts models.ListOptions) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE user_id = $1`
	args := []any{ownerID}

	if opts.Term != "" {
		args = append(args, "%"+escapeLike(opts.Term)+"%")
		query += fmt.Sprintf(` AND term ILIKE $%d ESCAPE '\'`, len(args))
	}

	switch opts.Order {
	case models.SortAlphabetical:
		query += ` ORDER BY term COLLATE "C" ASC`
	default:
		query += ` ORDER BY created_at DESC`
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns a single entry or common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, ownerID, id string) (*models.Entry, error) {
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1 AND user_id = $2`
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// Insert stores a new entry under a freshly generated id.
func (r *PostgresRepository) Insert(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	query := `
		INSERT INTO entries (id, user_id, term, description, source, media)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + entryColumns

	e, err := scanEntry(r.db.QueryRowContext(ctx, query,
		newID(), entry.OwnerID, entry.Term, entry.Description, entry.Source, entry.Media))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// Update writes the fields present in patch. updated_at always moves forward,
// even when two writes land within the clock's resolution.
func (r *PostgresRepository) Update(ctx context.Context, ownerID, id string, patch models.Patch) (*models.Entry, error) {
	if patch.IsEmpty() {
		return r.Get(ctx, ownerID, id)
	}
	if uuid.Validate(id) != nil {
		return nil, common.ErrorNotFound
	}

	var sets []string
	var args []any
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Term != nil {
		set("term", *patch.Term)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Source != nil {
		set("source", *patch.Source)
	}
	if patch.Media != nil {
		set("media", *patch.Media)
	}
	sets = append(sets, "updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')")

	args = append(args, id, ownerID)
	query := fmt.Sprintf(`UPDATE entries SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), entryColumns)

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// Delete removes the entry. Exactly one row must be affected.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id string) error {
	if uuid.Validate(id) != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
