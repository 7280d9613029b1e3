package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"unimate/internal/infra/config"
	"unimate/internal/infra/obs"
)

type Handlers struct {
	Listings       ListingHTTP
	Chats          ChatHTTP
	Reviews        ReviewsHTTP
	Saved          SavedHTTP
	Push           PushHTTP
	Realtime       RealtimeHTTP
	Status         StatusHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the engine without binding an address.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = multipartMemory
	router.Use(obsMW.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Listings != nil {
		api.GET("/categories", h.Listings.Categories)
		api.GET("/marketplace", h.Listings.Marketplace)
		api.POST("/listings", h.Listings.Create)
		api.GET("/listings/:id", h.Listings.Get)
		api.PUT("/listings/:id", h.Listings.Update)
		api.DELETE("/listings/:id", h.Listings.Delete)
		api.GET("/listings/:id/related", h.Listings.Related)
		api.POST("/listings/:id/media", h.Listings.AddMedia)
		api.DELETE("/listings/:id/media/:mediaID", h.Listings.RemoveMedia)
		api.POST("/listings/:id/media/:mediaID/primary", h.Listings.SetPrimaryImage)
		api.GET("/users/:id/listings", h.Listings.BySeller)
		api.GET("/me/listings", h.Listings.Mine)
	}
	if h.Reviews != nil {
		api.GET("/listings/:id/reviews", h.Reviews.ListByListing)
		api.POST("/listings/:id/reviews", h.Reviews.Submit)
		api.PUT("/reviews/:id", h.Reviews.Update)
		api.DELETE("/reviews/:id", h.Reviews.Delete)
	}
	if h.Saved != nil {
		api.GET("/me/saved", h.Saved.List)
		api.PUT("/me/saved/:id", h.Saved.Save)
		api.DELETE("/me/saved/:id", h.Saved.Unsave)
	}
	if h.Chats != nil {
		api.GET("/chats", h.Chats.Conversations)
		api.POST("/chats", h.Chats.Open)
		api.GET("/chats/unread", h.Chats.Unread)
		api.GET("/chats/:id", h.Chats.Get)
		api.GET("/chats/:id/messages", h.Chats.ListMessages)
		api.POST("/chats/:id/messages", h.Chats.SendMessage)
		api.POST("/chats/:id/media", h.Chats.SendMedia)
		api.POST("/chats/:id/read", h.Chats.MarkRead)
		api.POST("/chats/:id/sold", h.Chats.MarkSold)
		api.GET("/chats/:id/deal", h.Chats.Deal)
		api.GET("/me/deals", h.Chats.Deals)
		api.GET("/me/stats", h.Chats.ProfileStats)
	}
	if h.Push != nil {
		api.GET("/push/vapid-key", h.Push.VapidKey)
		api.POST("/push/subscriptions", h.Push.Subscribe)
		api.DELETE("/push/subscriptions", h.Push.Unsubscribe)
	}
	if h.Realtime != nil {
		api.GET("/realtime", h.Realtime.Connect)
	}
	if h.Status != nil {
		api.GET("/status/busy", h.Status.Busy)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
