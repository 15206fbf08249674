package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"webpush-saas/internal/model"
	"webpush-saas/internal/store"
	"webpush-saas/internal/wire"
)

type createLinkRequest struct {
	Name          string             `json:"name" binding:"required"`
	ExpiresAt     *time.Time         `json:"expires_at"`
	FormFields    wire.FormFields    `json:"form_fields"`
	Customization wire.Customization `json:"customization"`
}

type createdLink struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

type createNotificationRequest struct {
	OptInLinkToken     string `json:"opt_in_link_token" binding:"required"`
	Title              string `json:"title" binding:"required"`
	Body               string `json:"body"`
	Icon               string `json:"icon"`
	Badge              string `json:"badge"`
	Image              string `json:"image"`
	URL                string `json:"url"`
	Tag                string `json:"tag"`
	RequireInteraction bool   `json:"require_interaction"`
}

type createdNotification struct {
	ID     string `json:"id"`
	Queued bool   `json:"queued"`
}

// CreateOptInLink handles POST /admin/opt-in-links.
func (h *Handler) CreateOptInLink(c *gin.Context) {
	var req createLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, wire.ErrorBody{Error: err.Error()})
		return
	}

	cz := req.Customization
	link := &model.OptInLink{
		Name:         strings.TrimSpace(req.Name),
		Active:       true,
		ExpiresAt:    req.ExpiresAt,
		RequireName:  req.FormFields.RequireName,
		RequireEmail: req.FormFields.RequireEmail,
		RequirePhone: req.FormFields.RequirePhone,
		Customization: model.Customization{
			CompanyName:     cz.CompanyName,
			LogoURL:         cz.LogoURL,
			Title:           cz.Title,
			Description:     cz.Description,
			ButtonText:      cz.ButtonText,
			BackgroundColor: cz.BackgroundColor,
			TextColor:       cz.TextColor,
			PrimaryColor:    cz.PrimaryColor,
			SecondaryColor:  cz.SecondaryColor,
			ButtonTextColor: cz.ButtonTextColor,
		},
	}
	if err := h.store.CreateOptInLink(c.Request.Context(), link); err != nil {
		h.logger.Error().Err(err).Msg("failed to create opt-in link")
		c.JSON(http.StatusInternalServerError, wire.ErrorBody{Error: err.Error()})
		return
	}

	h.logger.Info().Str("link_id", link.ID).Str("name", link.Name).Msg("opt-in link created")
	c.JSON(http.StatusCreated, wire.Envelope[createdLink]{Data: createdLink{ID: link.ID, Token: link.Token}})
}

// CreateNotification handles POST /admin/notifications. The notification is
// stored and queued; delivery happens on the worker pool.
func (h *Handler) CreateNotification(c *gin.Context) {
	var req createNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, wire.ErrorBody{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	link, err := h.store.GetOptInLinkByToken(ctx, req.OptInLinkToken)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, wire.ErrorBody{Message: msgInvalidLink})
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load opt-in link")
		c.JSON(http.StatusInternalServerError, wire.ErrorBody{Error: err.Error()})
		return
	}

	n := &model.Notification{
		OptInLinkID:        link.ID,
		Title:              req.Title,
		Body:               req.Body,
		Icon:               req.Icon,
		Badge:              req.Badge,
		Image:              req.Image,
		URL:                req.URL,
		Tag:                req.Tag,
		RequireInteraction: req.RequireInteraction,
	}
	if err := h.store.CreateNotification(ctx, n); err != nil {
		h.logger.Error().Err(err).Msg("failed to create notification")
		c.JSON(http.StatusInternalServerError, wire.ErrorBody{Error: err.Error()})
		return
	}

	queued := h.dispatcher.Dispatch(n.ID)
	if !queued {
		h.logger.Warn().Str("notification_id", n.ID).Msg("dispatch queue full, notification stored unsent")
	}
	c.JSON(http.StatusAccepted, wire.Envelope[createdNotification]{Data: createdNotification{ID: n.ID, Queued: queued}})
}
