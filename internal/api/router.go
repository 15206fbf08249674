package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"webpush-saas/config"
	"webpush-saas/internal/mw"
	"webpush-saas/internal/store"
)

// limiterIdle is how long a client IP may stay silent before its limiter is dropped.
const limiterIdle = 10 * time.Minute

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, webpushOptions *webpush.Options, dispatcher Dispatcher, cfg config.ServerConfig, logger zerolog.Logger) *gin.Engine {
	r := gin.Default()
	if cfg.RequestIPHeader != "" {
		r.TrustedPlatform = cfg.RequestIPHeader
	}

	handler := NewHandler(s, webpushOptions, dispatcher, logger)

	rateLimiter := mw.RateLimiter(mw.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, limiterIdle))

	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		public := api.Group("/public")
		public.GET("/vapid", caching, handler.GetVAPIDPublicKey)
		public.POST("/notifications/:id/delivered", handler.TrackDelivered)
		public.POST("/notifications/:id/clicked", handler.TrackClicked)

		api.GET("/opt-in/:token", caching, handler.GetOptInLink)
		api.POST("/opt-in/:token", handler.PostOptIn)

		admin := api.Group("/admin")
		admin.POST("/opt-in-links", handler.CreateOptInLink)
		admin.POST("/notifications", handler.CreateNotification)
	}

	return r
}
