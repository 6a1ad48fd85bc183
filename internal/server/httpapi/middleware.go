package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const (
	userIDKey    = "userID"
	sessionIDKey = "sessionID"
)

// requireAccessToken verifies the Bearer access token and stores the
// authenticated user and session ids in the request context.
func (s *Server) requireAccessToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token")
			c.Abort()
			return
		}

		claims, err := auth.Verify(token, s.accessTokenSecret)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid access token")
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(sessionIDKey, claims.SessionID)
		c.Next()
	}
}
