package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"parkwise/internal/handler"
	"parkwise/internal/middleware"
	"parkwise/internal/ws"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	ParkingHandler *handler.ParkingHandler
	BookingHandler *handler.BookingHandler
	ProfileHandler *handler.ProfileHandler
	SlotHub        *ws.Hub
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
	JWTSecret      string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Slot status stream.
	if deps.SlotHub != nil {
		router.GET("/v1/ws/slots", func(c *gin.Context) {
			ws.ServeWS(deps.SlotHub, c.Writer, c.Request)
		})
	}

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.JWTSecret))
	{
		// Parking discovery routes.
		parking := v1.Group("/parking")
		{
			parking.GET("/nearby", deps.ParkingHandler.Nearby)
			parking.GET("/:areaId", deps.ParkingHandler.GetArea)
			parking.GET("/:areaId/slots", deps.ParkingHandler.ListSlots)
			parking.POST("/:areaId/quote", deps.ParkingHandler.Quote)
		}

		// Booking lifecycle routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.CreateBooking)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.POST("/:id/payment", deps.BookingHandler.InitiatePayment)
			bookings.POST("/:id/confirm", deps.BookingHandler.ConfirmBooking)
			bookings.POST("/:id/cancel", deps.BookingHandler.CancelBooking)
			bookings.POST("/:id/rating", deps.BookingHandler.RateBooking)
		}

		// User routes.
		users := v1.Group("/users")
		{
			users.GET("/:id/bookings", deps.BookingHandler.ListUserBookings)
			users.GET("/:id/profile", deps.ProfileHandler.GetProfile)
			users.PUT("/:id/profile", deps.ProfileHandler.ReplaceProfile)
			users.POST("/:id/profile", deps.ProfileHandler.CreateProfile)
		}
	}

	return router
}
