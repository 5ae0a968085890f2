package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/wordbook/internal/common"
	"github.com/dmitrijs2005/wordbook/internal/server/session"
	"github.com/gin-gonic/gin"
)

// authenticate resolves a bearer token into the request's user id. Requests
// without a token pass through anonymously; an invalid token is rejected.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		if header == "" {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			abortWithError(c, http.StatusUnauthorized, common.ErrInvalidToken)
			return
		}

		userID, err := s.users.UserIDFromAccessToken(token)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, err)
			return
		}

		c.Request = c.Request.WithContext(session.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		s.metrics.ObserveRequest(c.Request.Method, route, c.Writer.Status(), elapsed)
		s.logger.Info(c.Request.Context(), "http",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", elapsed)
	}
}

func abortWithError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
