package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/urmzd/bluebar/pkg/api/handlers"
	"github.com/urmzd/bluebar/pkg/device"
	"github.com/urmzd/bluebar/pkg/device/schema"
)

// Router holds the Gin engine and dependencies
type Router struct {
	engine     *gin.Engine
	controller device.Controller
	subscriber device.EventSubscriber
	validator  *schema.Validator
	passes     handlers.PassClock
}

// NewRouter creates a new API router. passes may be nil.
func NewRouter(controller device.Controller, subscriber device.EventSubscriber, validator *schema.Validator, passes handlers.PassClock) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	SetupMiddleware(engine)

	router := &Router{
		engine:     engine,
		controller: controller,
		subscriber: subscriber,
		validator:  validator,
		passes:     passes,
	}
	router.setupRoutes()
	return router
}

func (r *Router) setupRoutes() {
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	healthHandler := handlers.NewHealthHandler(r.controller, r.passes)
	r.engine.GET("/health", healthHandler.Health)

	v1 := r.engine.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Health)

		eventsHandler := handlers.NewEventsHandler(r.subscriber)
		v1.GET("/events", eventsHandler.Events)

		connHandler := handlers.NewConnectionHandler(r.controller)
		v1.POST("/scan", connHandler.Scan)

		devicesHandler := handlers.NewDevicesHandler(r.controller)
		overridesHandler := handlers.NewOverridesHandler(r.controller, r.validator)
		devices := v1.Group("/devices")
		{
			devices.GET("", devicesHandler.ListDevices)
			devices.POST("/refresh", devicesHandler.Refresh)
			devices.GET("/:id", devicesHandler.GetDevice)

			devices.POST("/:id/connect", connHandler.Connect)
			devices.POST("/:id/disconnect", connHandler.Disconnect)
			devices.POST("/:id/audio", connHandler.RouteAudio)

			devices.PUT("/:id/icon", overridesHandler.SetIcon)
			devices.PUT("/:id/visibility", overridesHandler.SetVisibility)
		}
	}
}

// Handler returns the router as an http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// Server returns an HTTP server for addr, ready for graceful shutdown
func (r *Router) Server(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           r.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
