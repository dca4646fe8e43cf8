// Package server assembles the HTTP API: middleware, routes and the
// repositories and services behind them.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"recogym/internal/auth"
	"recogym/internal/config"
	"recogym/internal/db"
	"recogym/internal/enrollment"
	"recogym/internal/gymclass"
	"recogym/internal/ledger"
	"recogym/internal/member"
	"recogym/internal/notify"
	"recogym/internal/product"
	"recogym/internal/sale"
	"recogym/internal/subscription"
	"recogym/internal/trainer"
	"recogym/internal/user"
)

type Server struct {
	router  *gin.Engine
	http    *http.Server
	limiter *RateLimiter
}

// handlers groups every HTTP handler the router mounts.
type handlers struct {
	users         *user.Handler
	members       *member.Handler
	trainers      *trainer.Handler
	classes       *gymclass.Handler
	enrollments   *enrollment.Handler
	subscriptions *subscription.Handler
	ledger        *ledger.Handler
	products      *product.Handler
	sales         *sale.Handler
}

func newHandlers(database *sqlx.DB, cfg *config.Config, notifier notify.Notifier) handlers {
	tx := db.NewTransactor(database)

	userRepo := user.NewRepository(database)
	memberRepo := member.NewRepository(database)
	trainerRepo := trainer.NewRepository(database)
	classRepo := gymclass.NewRepository(database)
	entryRepo := ledger.NewRepository(database)
	productRepo := product.NewRepository(database)

	return handlers{
		users:         user.NewHandler(user.NewService(userRepo, cfg.JWTSecret)),
		members:       member.NewHandler(member.NewService(tx, memberRepo, userRepo, entryRepo, notifier)),
		trainers:      trainer.NewHandler(trainer.NewService(trainerRepo)),
		classes:       gymclass.NewHandler(gymclass.NewService(tx, classRepo, trainerRepo)),
		enrollments:   enrollment.NewHandler(enrollment.NewService(tx, enrollment.NewRepository(database), memberRepo, classRepo, entryRepo, notifier)),
		subscriptions: subscription.NewHandler(subscription.NewService(tx, subscription.NewRepository(database), memberRepo, entryRepo, notifier)),
		ledger:        ledger.NewHandler(ledger.NewService(entryRepo)),
		products:      product.NewHandler(product.NewService(productRepo)),
		sales:         sale.NewHandler(sale.NewService(tx, sale.NewRepository(database), productRepo, entryRepo, cfg.GymName)),
	}
}

// New builds the server. rdb may be nil when Redis is not configured.
func New(database *sqlx.DB, rdb *redis.Client, cfg *config.Config, notifier notify.Notifier) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)

	router := gin.New()
	router.Use(
		RequestIDMiddleware(),
		gin.Recovery(),
		RequestLoggingMiddleware(),
		MetricsMiddleware(),
		SecurityHeadersMiddleware(),
		corsMiddleware(),
		RateLimitMiddleware(limiter),
	)

	router.GET("/health", Health(database, rdb))
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	registerRoutes(router, newHandlers(database, cfg, notifier), cfg.JWTSecret)

	return &Server{
		router:  router,
		limiter: limiter,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// registerRoutes mounts the API. Catalogue reads (trainers, classes, plans,
// products) are open to any logged in user. Member data, the cash register
// and sales are admin only, like every write.
func registerRoutes(router *gin.Engine, h handlers, jwtSecret string) {
	authRequired := auth.AuthMiddleware(jwtSecret)
	adminOnly := auth.RequireRole(auth.RoleAdmin)

	public := router.Group("/auth")
	{
		public.POST("/login", h.users.Login)
		public.POST("/refresh", h.users.RefreshToken)
	}

	me := router.Group("/me", authRequired)
	{
		me.GET("", h.users.GetMe)
		me.GET("/estado", auth.RequireMember(), h.members.MyStatus)
	}

	// Legacy front-desk endpoint outside the /api prefix.
	router.POST("/registrar_venta/", authRequired, adminOnly, h.sales.RegisterSale)

	catalogue := router.Group("/api", authRequired)
	{
		catalogue.GET("/entrenadores", h.trainers.List)
		catalogue.GET("/entrenadores/:id", h.trainers.Get)

		catalogue.GET("/clases", h.classes.List)
		catalogue.GET("/clases/:id", h.classes.Get)

		catalogue.GET("/suscripciones/planes", h.subscriptions.ListPlans)

		catalogue.GET("/productos", h.products.List)
		catalogue.GET("/productos/:id", h.products.Get)
	}

	admin := router.Group("/api", authRequired, adminOnly)
	{
		admin.POST("/entrenadores", h.trainers.Create)
		admin.PUT("/entrenadores/:id", h.trainers.Update)
		admin.DELETE("/entrenadores/:id", h.trainers.Delete)

		admin.POST("/clases", h.classes.Create)
		admin.PUT("/clases/:id", h.classes.Update)
		admin.DELETE("/clases/:id", h.classes.Delete)
		admin.GET("/clases/:id/inscripciones", h.enrollments.ListByClass)
		admin.POST("/clases/:id/inscripciones", h.enrollments.Enroll)
		admin.DELETE("/clases/:id/inscripciones/:socioID", h.enrollments.Unenroll)

		admin.GET("/socios", h.members.List)
		admin.GET("/socios/:id", h.members.Get)
		admin.GET("/socios/:id/estado", h.members.Status)
		admin.POST("/socios", h.members.Create)
		admin.PUT("/socios/:id", h.members.Update)
		admin.PUT("/socios/:id/tipo", h.members.ChangeType)
		admin.DELETE("/socios/:id", h.members.Delete)
		admin.POST("/socios/:id/suscribir", h.subscriptions.SubscribeMember)

		admin.GET("/suscripciones", h.subscriptions.List)
		admin.GET("/suscripciones/:id", h.subscriptions.Get)
		admin.POST("/suscripciones", h.subscriptions.Create)
		admin.PUT("/suscripciones/:id", h.subscriptions.Update)
		admin.PUT("/suscripciones/:id/plan", h.subscriptions.ChangePlan)
		admin.DELETE("/suscripciones/:id", h.subscriptions.Delete)

		admin.GET("/caja", h.ledger.GetDay)
		admin.GET("/caja/resumen", h.ledger.GetSummary)
		admin.GET("/caja/export", h.ledger.Export)
		admin.POST("/caja", h.ledger.CreateEntry)

		admin.POST("/productos", h.products.Create)
		admin.PUT("/productos/:id", h.products.Update)

		admin.GET("/ventas/:id", h.sales.Get)
		admin.GET("/ventas/:id/ticket", h.sales.Ticket)
		admin.POST("/registrar_venta/", h.sales.RegisterSale)
	}
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.http.Shutdown(ctx)
}
