package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"asrama-occupancy-backend/config"
	"asrama-occupancy-backend/internal/metrics"
	"asrama-occupancy-backend/internal/mw"
	"asrama-occupancy-backend/internal/occupancy"
	"asrama-occupancy-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(engine *occupancy.Engine, s store.Store, webpushOptions *webpush.Options, cfg config.ServerConfig) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.AccessLog())

	handler := NewHandler(engine, s, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	// Catalog data changes only through seeding.
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	r.GET("/healthz", handler.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/admit", handler.Admit)
		api.POST("/transfer", handler.Transfer)
		api.POST("/updateProfile", handler.UpdateProfile)
		api.POST("/remove", handler.Remove)

		api.GET("/roster", handler.GetRoster)
		api.GET("/rooms/:ref/roster", handler.GetRoomRoster)
		api.GET("/occupancy", handler.GetOccupancy)
		api.GET("/auditTrail", handler.GetAuditTrail)

		api.GET("/dormitories", caching, handler.GetDormitories)
		api.GET("/rooms", caching, handler.GetRooms)
		api.GET("/faculties", handler.GetFaculties)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
