package middleware

import (
	"net/http"
	"time"

	"cuchito/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var errInterno = apierror.New("Error interno del servidor")

// withRequest adds the fields every request-scoped log line carries.
func withRequest(ev *zerolog.Event, c *gin.Context) *zerolog.Event {
	ev = ev.Str("request_id", c.GetString(RequestIDKey)).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path)
	if uid, ok := c.Get(UserIDKey); ok {
		if id, ok := uid.(uuid.UUID); ok {
			ev = ev.Str("user_id", id.String())
		}
	}
	return ev
}

// ErrorHandler turns errors attached with c.Error into a response when the
// handler wrote none. Typed errors keep their status and message; anything
// else is logged and answered with a generic 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}
		status := apierror.HTTPStatus(last.Err)
		if status >= http.StatusInternalServerError {
			withRequest(log.Error(), c).Err(last.Err).Msg("unhandled error")
		}
		if c.Writer.Written() {
			return
		}
		if status >= http.StatusInternalServerError {
			c.AbortWithStatusJSON(status, errInterno)
			return
		}
		c.AbortWithStatusJSON(status, apierror.New(last.Err.Error()))
	}
}

// Recovery answers a panicking handler with 500.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				withRequest(log.Error(), c).Interface("panic", r).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, errInterno)
			}
		}()
		c.Next()
	}
}

// Logger writes one access line per request; 5xx at error level, 4xx at warn.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		}
		withRequest(ev, c).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
