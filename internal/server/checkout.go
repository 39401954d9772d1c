package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type createCheckoutRequest struct {
	ProductID string `json:"product_id"`
}

// CreateCheckout handles POST /api/checkout.
func (s *Server) CreateCheckout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		AbortWithError(c, newValidationError("product_id", "required", "product_id is required"))
		return
	}

	result, err := s.checkoutSvc.CreateCheckout(c.Request.Context(), *user, req.ProductID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.obsMetrics.RecordCheckoutSession(c.Request.Context(), req.ProductID, "created")
	c.JSON(http.StatusOK, result)
}
