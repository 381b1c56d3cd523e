package httpapi

import (
	"crypto/subtle"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// AdminTokenHeader is the header carrying the host token.
const AdminTokenHeader = "X-Admin-Token"

const adminKey = "is_admin"

// RequireAdmin rejects requests without a valid host token.
func RequireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !validToken(c.GetHeader(AdminTokenHeader), token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
			return
		}
		c.Set(adminKey, true)
		c.Next()
	}
}

// isAdmin reports whether the request carries a valid host token, whether or not
// the route requires one.
func (s *Server) isAdmin(c *gin.Context) bool {
	if c.GetBool(adminKey) {
		return true
	}
	return validToken(c.GetHeader(AdminTokenHeader), s.config.Admin.Token)
}

func validToken(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// RequestLogger logs each request, skipping errors from clients that hung up.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		for _, e := range c.Errors {
			if isClientGone(e.Err) {
				return
			}
		}

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			ev = zlog.Error()
		case status >= http.StatusBadRequest:
			ev = zlog.Warn()
		default:
			ev = zlog.Debug()
		}
		ev.Msgf("http: method=%s path=%s status=%d latency=%s client=%s",
			c.Request.Method, path, status, time.Since(start), c.ClientIP())
	}
}

func isClientGone(err error) bool {
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if !errors.As(opErr.Err, &sysErr) {
		return false
	}
	msg := strings.ToLower(sysErr.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
