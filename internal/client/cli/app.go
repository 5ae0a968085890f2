package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/wordbook/internal/client/api"
	"github.com/dmitrijs2005/wordbook/internal/client/config"
	"github.com/dmitrijs2005/wordbook/internal/client/localdb"
	"github.com/dmitrijs2005/wordbook/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/wordbook/internal/client/session"
)

// App is what every command works with: the API client and the session.
type App struct {
	api      *api.Client
	sessions *session.Manager
	db       *sql.DB
}

// NewApp opens the local session database, restores the session and builds
// an API client that authenticates with it.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := localdb.Open(ctx, c.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	app, err := newApp(ctx, db, api.NewClient(c.ServerURL, &http.Client{Timeout: c.Timeout}))
	if err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, db *sql.DB, client *api.Client) (*App, error) {
	m := session.NewManager(sessions.NewSQLiteRepository(db), client)
	client.SetTokenStore(m)
	if err := m.Load(ctx); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &App{api: client, sessions: m, db: db}, nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) requireSession() error {
	if _, ok := a.sessions.UserID(); !ok {
		return fmt.Errorf("%w: run `wordbook signin` first", session.ErrNotSignedIn)
	}
	return nil
}

// cmdIO bundles a command's streams.
type cmdIO struct {
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

// reportUpload prints the per-file failures and the objects left behind by a
// failed batch upload.
func reportUpload(w io.Writer, err error) {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return
	}
	for _, f := range apiErr.Failed {
		fmt.Fprintf(w, "  file %d (%s): %s\n", f.Index+1, f.Name, f.Error)
	}
	if len(apiErr.Orphaned) > 0 {
		fmt.Fprintln(w, "Uploaded before the failure (not attached to any entry):")
		for _, m := range apiErr.Orphaned {
			fmt.Fprintf(w, "  %s\n", m.URL)
		}
	}
}

func readFiles(paths []string) ([]api.File, error) {
	files := make([]api.File, 0, len(paths))
	for _, p := range paths {
		f, err := api.ReadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
