package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/collab-matcher/internal/auth"
)

const identityKey = "identity"

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.metrics.observeRequest(route, c.Request.Method, status)

		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.deps.Verifier == nil {
			abortWithError(c, http.StatusInternalServerError, "Authentication is not configured")
			return
		}

		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Unauthorized: Missing token")
			return
		}

		id, err := s.deps.Verifier.Verify(token)
		switch {
		case errors.Is(err, auth.ErrForbidden):
			abortWithError(c, http.StatusForbidden, s.deps.Verifier.ForbiddenMessage())
			return
		case err != nil:
			s.logger.Debug("token verification failed", zap.Error(err))
			abortWithError(c, http.StatusUnauthorized, "Unauthorized: Invalid token")
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

func identity(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*auth.Identity)
	return id
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
