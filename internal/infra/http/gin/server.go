package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"stayhub/internal/infra/config"
	"stayhub/internal/infra/obs"
)

type BookingHTTP interface {
	CheckAvailability(c *gin.Context)
	Create(c *gin.Context)
	CreateLegacy(c *gin.Context)
	Cancel(c *gin.Context)
	UpdateStatus(c *gin.Context)
	ListMine(c *gin.Context)
	ListForListing(c *gin.Context)
}

type InventoryHTTP interface {
	Update(c *gin.Context)
	Adjust(c *gin.Context)
	BulkUpdate(c *gin.Context)
}

type CalendarHTTP interface {
	Block(c *gin.Context)
	Unblock(c *gin.Context)
	View(c *gin.Context)
	CheckRange(c *gin.Context)
}

type ListingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
}

type Handlers struct {
	Booking   BookingHTTP
	Inventory InventoryHTTP
	Calendar  CalendarHTTP
	Listing   ListingHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-User-ID", "X-User-Role"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	router.Use(IdentityMiddleware())

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Listing != nil {
		api.POST("/listings", h.Listing.Create)
		api.GET("/listings/:id", h.Listing.Get)
	}
	if h.Booking != nil {
		api.GET("/listings/:id/availability", h.Booking.CheckAvailability)
		api.GET("/listings/:id/bookings", h.Booking.ListForListing)
		api.POST("/bookings", h.Booking.Create)
		api.POST("/bookings/legacy", h.Booking.CreateLegacy)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
		api.POST("/bookings/:id/status", h.Booking.UpdateStatus)
		api.GET("/me/bookings", h.Booking.ListMine)
	}
	if h.Inventory != nil {
		api.PUT("/listings/:id/inventory", h.Inventory.Update)
		api.POST("/listings/:id/inventory/adjust", h.Inventory.Adjust)
		api.POST("/admin/inventory/bulk", h.Inventory.BulkUpdate)
	}
	if h.Calendar != nil {
		api.POST("/listings/:id/calendar/block", h.Calendar.Block)
		api.POST("/listings/:id/calendar/unblock", h.Calendar.Unblock)
		api.GET("/listings/:id/calendar", h.Calendar.View)
		api.GET("/listings/:id/calendar/check", h.Calendar.CheckRange)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
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

var (
	_ BookingHTTP   = BookingHandler{}
	_ InventoryHTTP = InventoryHandler{}
	_ CalendarHTTP  = CalendarHandler{}
	_ ListingHTTP   = ListingHandler{}
)
