package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	domainuser "staywise/internal/domain/user"
	"staywise/internal/infra/config"
	"staywise/internal/infra/obs"
)

type Handlers struct {
	Auth           AuthHTTP
	Property       PropertyHTTP
	Booking        BookingHTTP
	Users          UsersHTTP
	AuthMiddleware gin.HandlerFunc
}

// NewRouter builds the API router. Gates are applied per route group.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) (*gin.Engine, error) {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}
	router.NoRoute(func(c *gin.Context) {
		respondMessage(c, http.StatusNotFound, "Route not found")
	})

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api")
	authenticated := RequireAuth()
	admin := RequireRole(domainuser.RoleAdmin)

	if h.Auth != nil {
		authGroup := api.Group("/auth")
		authGroup.POST("/signup", h.Auth.Signup)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.GET("/me", authenticated, h.Auth.Me)
	}
	if h.Property != nil {
		props := api.Group("/properties")
		props.GET("", h.Property.Catalog)
		props.GET("/:id", h.Property.Get)

		adminProps := props.Group("", authenticated, admin)
		adminProps.GET("/admin", h.Property.ListAll)
		adminProps.PUT("/:id", h.Property.Update)
		adminProps.POST("/:id/images", h.Property.UploadImage)
	}
	if h.Booking != nil {
		bookings := api.Group("/bookings", authenticated)
		bookings.POST("", h.Booking.Create)
		bookings.GET("/my-bookings", h.Booking.ListMine)

		adminBookings := bookings.Group("", admin)
		adminBookings.GET("", h.Booking.ListAll)
		adminBookings.PUT("/:id", h.Booking.UpdateStatus)
	}
	if h.Users != nil {
		users := api.Group("/users", authenticated, admin)
		users.GET("", h.Users.List)
		users.PUT("/:id", h.Users.Update)
	}
	return router, nil
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) (*http.Server, error) {
	router, err := NewRouter(cfg, obsMW, health, h)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
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
