package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/wordbook/internal/common"
	"github.com/dmitrijs2005/wordbook/internal/server/models"
	"github.com/dmitrijs2005/wordbook/internal/server/services"
	"github.com/gin-gonic/gin"
)

type fileFailure struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

type uploadFailure struct {
	Error    string         `json:"error"`
	Failed   []fileFailure  `json:"failed"`
	Orphaned []models.Media `json:"orphaned"`
}

// statusOf maps a service error to its HTTP status.
func statusOf(err error) int {
	var gerr *services.GatewayError
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, services.ErrEmptyBatch):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrAuthRequired),
		errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrConfirmationRequired):
		return http.StatusPreconditionRequired
	case errors.As(err, &gerr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	var uerr *services.UploadError
	if errors.As(err, &uerr) {
		body := uploadFailure{Error: uerr.Error(), Orphaned: uerr.Orphaned}
		for _, f := range uerr.Failed {
			body.Failed = append(body.Failed, fileFailure{Index: f.Index, Name: f.Name, Error: f.Err.Error()})
		}
		if body.Orphaned == nil {
			body.Orphaned = []models.Media{}
		}
		status := http.StatusBadGateway
		if len(uerr.Orphaned) == 0 && errors.Is(err, common.ErrValidation) {
			status = http.StatusBadRequest
		}
		s.logger.Warn(c.Request.Context(), "upload failed", "error", err)
		c.JSON(status, body)
		return
	}

	status := statusOf(err)
	msg := err.Error()
	switch {
	case status == http.StatusInternalServerError:
		s.logger.Error(c.Request.Context(), "request failed", "error", err)
		msg = common.ErrorInternal.Error()
	case status == http.StatusBadGateway:
		s.logger.Error(c.Request.Context(), "backend failed", "error", err)
	}
	c.JSON(status, gin.H{"error": msg})
}
