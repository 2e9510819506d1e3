package httpserver

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/pontofacil/internal/errs"
	"github.com/and161185/pontofacil/internal/model"
	"github.com/and161185/pontofacil/internal/service"
)

// AccessLog records request metadata. Bodies are never logged.
func AccessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// Recovery turns a handler panic into a logged 500.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("route", c.FullPath()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
			}
		}()
		c.Next()
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(h string) (string, bool) {
	const prefix = "bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}

// Bearer authenticates the caller and reloads the account on every request.
func Bearer(auth service.AuthService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			writeError(c, log, errs.ErrUnauthorized)
			return
		}
		u, err := auth.Authenticate(c.Request.Context(), tok)
		if err != nil {
			writeError(c, log, err)
			return
		}
		withUser(c, u)
		c.Next()
	}
}

// RequireAdmin must run after Bearer.
func RequireAdmin(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := userFrom(c)
		if !ok {
			writeError(c, log, errs.ErrUnauthorized)
			return
		}
		if u.Role != model.RoleAdmin {
			writeError(c, log, errs.ErrForbidden)
			return
		}
		c.Next()
	}
}
