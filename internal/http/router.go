package http

import (
	"log/slog"

	"github.com/geocoder89/doctorportal/internal/availability"
	"github.com/geocoder89/doctorportal/internal/auth"
	"github.com/geocoder89/doctorportal/internal/config"
	"github.com/geocoder89/doctorportal/internal/http/handlers"
	"github.com/geocoder89/doctorportal/internal/http/middlewares"
	"github.com/geocoder89/doctorportal/internal/notifications"
	"github.com/geocoder89/doctorportal/internal/observability"
	"github.com/geocoder89/doctorportal/internal/repo"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "doctorportal-api"

// Deps is everything the router needs, built once in main.
type Deps struct {
	Config     config.Config
	Logger     *slog.Logger
	Store      *repo.Store
	Calculator *availability.Calculator
	Tokens     *auth.Manager
	Notifier   notifications.Notifier // optional
	Prom       *observability.Prom    // optional
	Gatherer   prometheus.Gatherer    // optional, serves /metrics
	Draining   func() bool            // optional, fails readiness during shutdown
}

func NewRouter(d Deps) *gin.Engine {
	if !d.Config.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if d.Config.OTelEnabled {
		r.Use(otelgin.Middleware(serviceName))
	}
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(d.Logger))
	r.Use(middlewares.SecurityHeaders(d.Config.IsProd()))
	r.Use(middlewares.CORSMiddleware(d.Config.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))

	authMW := middlewares.NewAuthMiddleware(d.Tokens)
	limiter := middlewares.NewRateLimiter(d.Config.RateLimitRPS, d.Config.RateLimitBurst)

	// health
	health := handlers.NewHealthHandler(d.Store.Ping, d.Draining)
	r.GET("/", health.Root)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	servicesHandler := handlers.NewServicesHandler(d.Calculator)
	bookingsHandler := handlers.NewBookingsHandler(d.Store.Bookings, d.Store.Users, d.Notifier, d.Prom)
	usersHandler := handlers.NewUsersHandler(d.Store.Users, d.Tokens, d.Config.IssuePolicy, d.Prom)

	// catalog + availability
	r.GET("/service", servicesHandler.ListServices)
	r.GET("/available", servicesHandler.Available)

	// users
	r.GET("/user", authMW.RequireAuth(), usersHandler.ListUsers)
	r.GET("/admin/:email", usersHandler.AdminStatus)
	r.PUT("/user/admin/:email",
		authMW.RequireAuth(),
		authMW.RequireAdmin(d.Store.Users),
		usersHandler.PromoteAdmin,
	)
	r.PUT("/user/:email",
		authMW.OptionalAuth(),
		limiter.RateLimiterMiddleware(middlewares.KeyByEmailOrIP),
		middlewares.RequireJSON(),
		usersHandler.SaveProfile,
	)

	// bookings
	r.GET("/booking", authMW.RequireAuth(), bookingsHandler.ListForPatient)
	r.POST("/booking",
		limiter.RateLimiterMiddleware(middlewares.KeyByIP),
		middlewares.RequireJSON(),
		bookingsHandler.CreateBooking,
	)

	return r
}
