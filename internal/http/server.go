// README: API gateway; registers HTTP routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"mealmesh/internal/http/handlers"
	"mealmesh/internal/http/middleware"
	"mealmesh/internal/infra"
	"mealmesh/internal/modules/geofence"
	"mealmesh/internal/modules/location"
	"mealmesh/internal/modules/mealslot"
	"mealmesh/internal/modules/order"
	"mealmesh/internal/modules/policy"
	"mealmesh/internal/realtime"
)

type ServerDeps struct {
	Order       *order.Service
	MealSlot    *mealslot.Service
	Policy      *policy.Service
	Geo         *geofence.Store
	Location    *location.Service
	Gateway     *realtime.Gateway
	Broadcaster *realtime.Broadcaster
	Verifier    infra.TokenVerifier
	Logger      zerolog.Logger
}

type Server struct {
	deps ServerDeps
}

func NewServer(deps ServerDeps) *Server {
	return &Server{deps: deps}
}

func (s *Server) Routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(s.deps.Logger))
	r.Use(middleware.Logging(s.deps.Logger))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	// Realtime clients authenticate in-band after the upgrade.
	r.GET("/ws", s.deps.Gateway.Handle)

	orderHandler := handlers.NewOrderHandler(s.deps.Order)
	slotHandler := handlers.NewMealSlotHandler(s.deps.MealSlot)
	vendorHandler := handlers.NewVendorHandler(s.deps.Policy, s.deps.Geo)
	adminHandler := handlers.NewAdminHandler(s.deps.Geo)
	partnerHandler := handlers.NewPartnerHandler(s.deps.Location, s.deps.Order, s.deps.Broadcaster)
	nearbyHandler := handlers.NewNearbyHandler(s.deps.Geo, s.deps.Location)

	api := r.Group("/api", middleware.Auth(s.deps.Verifier))
	{
		api.POST("/orders", orderHandler.Create)
		api.GET("/orders", orderHandler.List)
		api.GET("/orders/:id", orderHandler.Get)
		api.POST("/orders/:id/status", orderHandler.Transition)

		api.GET("/vendors/:id/meal-slots", slotHandler.ListByVendor)
		api.POST("/vendors/:id/meal-slots", slotHandler.Create)
		api.GET("/meal-slots/:id/windows", slotHandler.DeliveryWindows)
		api.DELETE("/meal-slots/:id", slotHandler.Deactivate)

		api.PUT("/vendors/:id/fulfillment", vendorHandler.SetFulfillmentMethod)
		api.PUT("/vendors/:id/location", vendorHandler.SetLocation)

		api.PUT("/partners/:id/location", partnerHandler.UpdateLocation)
		api.GET("/partners/:id/location", partnerHandler.GetLocation)

		api.GET("/nearby/vendors", nearbyHandler.Vendors)
		api.GET("/nearby/partners", nearbyHandler.Partners)

		api.PUT("/admin/service-areas", adminHandler.UpsertServiceArea)
		api.GET("/admin/service-areas/:id", adminHandler.GetServiceArea)
	}

	return r
}
