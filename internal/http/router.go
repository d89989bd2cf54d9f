package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mockmate/api/internal/ai"
	"github.com/mockmate/api/internal/auth"
	"github.com/mockmate/api/internal/config"
	"github.com/mockmate/api/internal/domain/user"
	"github.com/mockmate/api/internal/http/handlers"
	"github.com/mockmate/api/internal/http/middlewares"
	"github.com/mockmate/api/internal/observability"
	"github.com/mockmate/api/internal/ratelimit"
	"github.com/mockmate/api/internal/repo/postgres"
)

const (
	maxBodySize   = 1 << 20 // JSON bodies
	maxUploadSize = 6 << 20 // multipart form overhead on top of the 5MB file cap
)

// NewRouter wires the full HTTP surface. Each call builds its own
// prometheus registry so tests can instantiate routers freely.
func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	usersRepo := postgres.NewUsersRepo(pool, prom)
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL())

	var aiClient ai.Client

	if cfg.GeminiAPIKey != "" {
		aiClient = ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	}

	aiService := ai.NewService(aiClient, log, prom)

	var limiter ratelimit.Limiter

	if cfg.RedisAddr != "" {
		limiter = ratelimit.NewRedisLimiter(ratelimit.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, 30, time.Minute)
	} else {
		limiter = ratelimit.NewMemoryLimiter(30, time.Minute)
	}

	authMW := middlewares.NewAuthMiddleware(jwtManager, usersRepo)

	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager, cfg.ResetTokenTTL, log)
	usersHandler := handlers.NewUsersHandler(usersRepo, log)
	adminHandler := handlers.NewAdminUsersHandler(usersRepo, log)
	interviewHandler := handlers.NewInterviewHandler(aiService, log)
	resumeHandler := handlers.NewResumeHandler(log)
	healthHandler := handlers.NewHealthHandler(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(ctx)
	})

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(prom.HTTPMiddleware())

	if cfg.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware("mockmate-api"))
	}

	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := r.Group("/api")

	authLimited := middlewares.RateLimit(limiter, middlewares.KeyByIP)

	authRoutes := api.Group("/auth")
	authRoutes.Use(middlewares.MaxBodyBytes(maxBodySize))
	{
		authRoutes.POST("/signup", authLimited, authHandler.SignUp)
		authRoutes.POST("/signin", authLimited, authHandler.SignIn)
		authRoutes.GET("/me", authMW.RequireAuth(), authHandler.Me)
		authRoutes.POST("/forgotpassword", authLimited, authHandler.ForgotPassword)
		authRoutes.PUT("/resetpassword/:resettoken", authLimited, authHandler.ResetPassword)
	}

	userRoutes := api.Group("/users")
	userRoutes.Use(middlewares.MaxBodyBytes(maxBodySize), authMW.RequireAuth())
	{
		userRoutes.GET("/profile", usersHandler.GetProfile)
		userRoutes.PUT("/profile", usersHandler.UpdateProfile)
	}

	adminRoutes := api.Group("/admin/users")
	adminRoutes.Use(middlewares.MaxBodyBytes(maxBodySize), authMW.RequireAuth(), authMW.RequireRole(user.RoleAdmin))
	{
		adminRoutes.GET("", adminHandler.ListUsers)
		adminRoutes.POST("", adminHandler.CreateUser)
		adminRoutes.GET("/:id", adminHandler.GetUser)
		adminRoutes.PUT("/:id", adminHandler.UpdateUser)
		adminRoutes.DELETE("/:id", adminHandler.DeleteUser)
	}

	aiLimited := middlewares.RateLimit(limiter, middlewares.KeyByUserOrIP)
	jsonBody := middlewares.MaxBodyBytes(maxBodySize)

	api.POST("/get-questions", jsonBody, aiLimited, interviewHandler.GetQuestions)
	api.POST("/analyze", jsonBody, aiLimited, interviewHandler.Analyze)

	// uploads get their own, larger cap
	resumeRoutes := api.Group("/resume")
	resumeRoutes.Use(middlewares.MaxBodyBytes(maxUploadSize), authMW.RequireAuth())
	{
		resumeRoutes.POST("/analyze", resumeHandler.Analyze)
	}

	return r
}
