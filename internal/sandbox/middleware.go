package sandbox

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clickreserve/click/internal/models"
)

const (
	bearerPrefix = "Bearer "
	sessionKey   = "session"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
)

// sessionData is the authenticated caller of a request
type sessionData struct {
	User    models.User
	TokenID string
}

func setSession(c *gin.Context, s *sessionData) {
	c.Set(sessionKey, s)
}

func getSession(c *gin.Context) (*sessionData, bool) {
	v, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	s, ok := v.(*sessionData)
	return s, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// loggingMiddleware logs every request with zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetHeader("X-Request-ID")).
			Msg("HTTP request")
	}
}

// jwtAuthMiddleware validates the bearer token, rejects revoked tokens and
// loads the user
func (s *Server) jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			var message string
			switch err {
			case ErrMissingAuthHeader:
				message = "Missing authorization header"
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			default:
				message = "Empty token"
			}
			s.abort(c, http.StatusUnauthorized, err, message)
			return
		}

		claims, err := s.tokens.Validate(token)
		if err != nil {
			s.abort(c, http.StatusUnauthorized, err, "Invalid or expired token")
			return
		}

		var revoked int64
		if err := s.db.Model(&models.RevokedToken{}).Where("token = ?", claims.ID).Count(&revoked).Error; err != nil {
			s.abort(c, http.StatusInternalServerError, err, "Internal server error")
			return
		}
		if revoked > 0 {
			s.abort(c, http.StatusUnauthorized, errors.New("token revoked"), "Token has been revoked")
			return
		}

		var user models.User
		if err := models.FindByID(s.db, claims.UserID, &user); err != nil {
			s.abort(c, http.StatusUnauthorized, err, "User not found")
			return
		}

		setSession(c, &sessionData{User: user, TokenID: claims.ID})

		c.Next()
	}
}

// agentOnlyMiddleware ensures the authenticated user is an agent
func (s *Server) agentOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, exists := getSession(c)
		if !exists {
			s.abort(c, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if !sess.User.IsAgent {
			s.abort(c, http.StatusForbidden, errors.New("not an agent"), "Agent access required")
			return
		}

		c.Next()
	}
}

func (s *Server) abort(c *gin.Context, status int, err error, message string) {
	s.logger.Warn().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	fail(c, status, message)
	c.Abort()
}
