package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"webpush-saas/internal/model"
	"webpush-saas/internal/mw"
	"webpush-saas/internal/store"
	"webpush-saas/internal/wire"
)

const (
	msgInvalidLink          = "Link inválido ou expirado"
	msgNameRequired         = "Nome é obrigatório"
	msgEmailRequired        = "Email é obrigatório"
	msgPhoneRequired        = "Telefone é obrigatório"
	msgInvalidSubscription  = "Inscrição push inválida"
	msgInvalidOptInRequest  = "Dados de inscrição inválidos"
	msgOptInInternalFailure = "Erro ao registrar inscrição"
)

// usableLink loads the link named by the :token parameter and answers the
// request itself when the link cannot be used.
func (h *Handler) usableLink(c *gin.Context) (*model.OptInLink, bool) {
	link, err := h.store.GetOptInLinkByToken(c.Request.Context(), c.Param("token"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, wire.ErrorBody{Message: msgInvalidLink})
		return nil, false
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load opt-in link")
		c.JSON(http.StatusInternalServerError, wire.ErrorBody{Error: err.Error()})
		return nil, false
	}
	if !link.Usable(h.now()) {
		c.JSON(http.StatusGone, wire.ErrorBody{Message: msgInvalidLink})
		return nil, false
	}
	return link, true
}

// GetOptInLink handles GET /opt-in/:token.
func (h *Handler) GetOptInLink(c *gin.Context) {
	link, ok := h.usableLink(c)
	if !ok {
		return
	}
	if link.ExpiresAt != nil {
		c.Set(mw.CacheUntilKey, *link.ExpiresAt)
	}
	c.JSON(http.StatusOK, wire.Envelope[wire.OptInLink]{Data: toWireLink(link)})
}

// PostOptIn handles POST /opt-in/:token.
func (h *Handler) PostOptIn(c *gin.Context) {
	var req wire.SubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, wire.ErrorBody{Error: msgInvalidOptInRequest})
		return
	}

	link, ok := h.usableLink(c)
	if !ok {
		return
	}

	if msg := missingField(link, req); msg != "" {
		c.JSON(http.StatusBadRequest, wire.ErrorBody{Error: msg})
		return
	}

	var sub *model.PushSubscription
	if req.Subscription != nil {
		s := req.Subscription
		if s.Endpoint == "" || s.Keys.P256DH == "" || s.Keys.Auth == "" {
			c.JSON(http.StatusBadRequest, wire.ErrorBody{Error: msgInvalidSubscription})
			return
		}
		sub = &model.PushSubscription{
			Endpoint:       s.Endpoint,
			P256DH:         s.Keys.P256DH,
			Auth:           s.Keys.Auth,
			ExpirationTime: s.ExpirationTime,
		}
	}

	customer := &model.Customer{
		OptInLinkID: link.ID,
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       strings.TrimSpace(req.Phone),
		Platform:    oneOf(req.Platform, wire.PlatformIOS, wire.PlatformOther),
		Browser:     oneOf(req.Browser, wire.BrowserSafari, wire.BrowserOther),
		CustomData:  req.CustomData,
	}

	if err := h.store.RegisterOptIn(c.Request.Context(), customer, sub); err != nil {
		h.logger.Error().Err(err).Str("link_id", link.ID).Msg("failed to register opt-in")
		c.JSON(http.StatusInternalServerError, wire.ErrorBody{Error: msgOptInInternalFailure})
		return
	}

	h.logger.Info().
		Str("link_id", link.ID).
		Str("customer_id", customer.ID).
		Bool("subscribed", sub != nil).
		Str("platform", customer.Platform).
		Msg("opt-in registered")

	c.JSON(http.StatusCreated, wire.Envelope[wire.OptInResult]{Data: wire.OptInResult{
		CustomerID: customer.ID,
		Subscribed: sub != nil,
	}})
}

func missingField(link *model.OptInLink, req wire.SubscriptionRequest) string {
	switch {
	case link.RequireName && strings.TrimSpace(req.Name) == "":
		return msgNameRequired
	case link.RequireEmail && strings.TrimSpace(req.Email) == "":
		return msgEmailRequired
	case link.RequirePhone && strings.TrimSpace(req.Phone) == "":
		return msgPhoneRequired
	}
	return ""
}

// oneOf returns v when it is the special value, otherwise fallback.
func oneOf(v, special, fallback string) string {
	if v == special {
		return special
	}
	return fallback
}

func toWireLink(l *model.OptInLink) wire.OptInLink {
	return wire.OptInLink{
		Token: l.Token,
		Name:  l.Name,
		FormFields: wire.FormFields{
			RequireName:  l.RequireName,
			RequireEmail: l.RequireEmail,
			RequirePhone: l.RequirePhone,
		},
		Customization: wire.Customization{
			CompanyName:     l.Customization.CompanyName,
			LogoURL:         l.Customization.LogoURL,
			Title:           l.Customization.Title,
			Description:     l.Customization.Description,
			ButtonText:      l.Customization.ButtonText,
			BackgroundColor: l.Customization.BackgroundColor,
			TextColor:       l.Customization.TextColor,
			PrimaryColor:    l.Customization.PrimaryColor,
			SecondaryColor:  l.Customization.SecondaryColor,
			ButtonTextColor: l.Customization.ButtonTextColor,
		},
	}
}
