package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Me handles GET /api/me.
func (s *Server) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}
	c.JSON(http.StatusOK, user)
}
