package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const creemSignatureHeader = "creem-signature"

// HandleCreemWebhook handles POST /api/webhooks/creem. The body must be
// read raw: the signature covers the exact bytes on the wire.
func (s *Server) HandleCreemWebhook(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, newValidationError("body", "invalid_body", "unreadable body"))
		return
	}

	if err := s.webhookSvc.Ingest(c.Request.Context(), raw, c.GetHeader(creemSignatureHeader)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
