package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"webpush-saas/internal/wire"
)

// GetVAPIDPublicKey returns the VAPID public key to the client.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vapid keys are not configured"})
		return
	}

	c.JSON(http.StatusOK, wire.Envelope[wire.VAPIDKey]{Data: wire.VAPIDKey{PublicKey: h.webpush.VAPIDPublicKey}})
}
