package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/antigravity/internal/identity"
	obslogger "github.com/smallbiznis/antigravity/internal/observability/logger"
)

const userContextKey = "auth.user"

// AuthRequired resolves the bearer token against the identity provider and
// stores the authenticated user on the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		user, err := s.identitySvc.Resolve(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(userContextKey, user)
		c.Request = c.Request.WithContext(
			obslogger.WithUserID(c.Request.Context(), user.ID),
		)
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func currentUser(c *gin.Context) (*identity.User, bool) {
	value, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*identity.User)
	return user, ok
}
