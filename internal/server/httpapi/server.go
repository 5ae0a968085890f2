// Package httpapi serves the Wordbook JSON API over gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/wordbook/internal/logging"
	"github.com/dmitrijs2005/wordbook/internal/server/metrics"
	"github.com/dmitrijs2005/wordbook/internal/server/models"
	"github.com/dmitrijs2005/wordbook/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type UserService interface {
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	SignOut(ctx context.Context, refreshToken string) error
	CurrentUser(ctx context.Context) (*models.User, error)
	UserIDFromAccessToken(token string) (string, error)
}

type EntryService interface {
	Create(ctx context.Context, draft models.Draft) (*models.Entry, error)
	Update(ctx context.Context, id string, patch models.Patch) (*models.Entry, error)
	Delete(ctx context.Context, id string, confirmed bool) error
	Get(ctx context.Context, id string) (*models.Entry, error)
	List(ctx context.Context, opts models.ListOptions) ([]*models.Entry, error)
	AttachMedia(ctx context.Context, id string, files []services.UploadFile) (*models.Entry, error)
}

type MediaService interface {
	Upload(ctx context.Context, files []services.UploadFile) ([]models.Media, error)
	Remove(ctx context.Context, url string) error
}

// Options tune the HTTP surface.
type Options struct {
	CORSOrigins    []string
	MaxUploadBytes int64
	Gatherer       prometheus.Gatherer
}

type Server struct {
	address string
	users   UserService
	entries EntryService
	media   MediaService
	logger  logging.Logger
	metrics *metrics.Metrics
	opts    Options
}

func NewServer(address string, l logging.Logger, us UserService, es EntryService, ms MediaService, m *metrics.Metrics, opts Options) *Server {
	return &Server{
		address: address,
		users:   us,
		entries: es,
		media:   ms,
		logger:  l.With("module", "http_server"),
		metrics: m,
		opts:    opts,
	}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  s.opts.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{"Authorization", "Content-Type"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if s.opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.Use(s.authenticate())

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", s.signUp)
		authGroup.POST("/signin", s.signIn)
		authGroup.POST("/refresh", s.refresh)
		authGroup.POST("/signout", s.signOut)
		authGroup.GET("/me", s.me)
	}

	entries := api.Group("/entries")
	{
		entries.GET("", s.listEntries)
		entries.POST("", s.createEntry)
		entries.GET("/:id", s.getEntry)
		entries.PATCH("/:id", s.updateEntry)
		entries.DELETE("/:id", s.deleteEntry)
		entries.POST("/:id/media", s.attachMedia)
	}

	api.POST("/media", s.uploadMedia)
	api.DELETE("/media", s.removeMedia)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
