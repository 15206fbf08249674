package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"webpush-saas/internal/model"
	"webpush-saas/internal/store"
	"webpush-saas/internal/wire"
)

// TrackDelivered handles POST /public/notifications/:id/delivered.
func (h *Handler) TrackDelivered(c *gin.Context) {
	h.track(c, model.TrackingDelivered)
}

// TrackClicked handles POST /public/notifications/:id/clicked.
func (h *Handler) TrackClicked(c *gin.Context) {
	h.track(c, model.TrackingClicked)
}

func (h *Handler) track(c *gin.Context, kind model.TrackingKind) {
	var req wire.TrackingRequest
	// An empty body is a receipt without a customer.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, wire.ErrorBody{Error: "invalid tracking body"})
			return
		}
	}

	notificationID := c.Param("id")
	ctx := c.Request.Context()
	if _, err := h.store.GetNotification(ctx, notificationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, wire.ErrorBody{Error: "Notificação não encontrada"})
			return
		}
		h.logger.Error().Err(err).Str("notification_id", notificationID).Msg("failed to load notification")
		c.JSON(http.StatusInternalServerError, wire.ErrorBody{Error: err.Error()})
		return
	}

	recorded, err := h.store.RecordTrackingEvent(ctx, &model.TrackingEvent{
		NotificationID: notificationID,
		CustomerID:     req.CustomerID,
		Kind:           kind,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("notification_id", notificationID).Str("kind", string(kind)).Msg("failed to record receipt")
		c.JSON(http.StatusInternalServerError, wire.ErrorBody{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, wire.Envelope[wire.TrackingResult]{Data: wire.TrackingResult{Recorded: recorded}})
}
