package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/smart-daycare/identity-access-service/internal/adapters/cache"
	"github.com/smart-daycare/identity-access-service/internal/adapters/handler"
	"github.com/smart-daycare/identity-access-service/internal/adapters/middleware"
	"github.com/smart-daycare/identity-access-service/internal/adapters/repository"
	"github.com/smart-daycare/identity-access-service/internal/config"
	"github.com/smart-daycare/identity-access-service/internal/core/domain"
	"github.com/smart-daycare/identity-access-service/internal/core/services"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	log.Println("Authenticated with Redis successfully")

	accountRepo := repository.NewAccountRepository(db)
	escalationRepo := repository.NewEscalationRepository(db)
	principalCache := cache.NewRedisPrincipalCache(redisClient, cfg.PrincipalCacheTTL)

	authService := services.NewAuthService(accountRepo, escalationRepo, cfg.JWTPrivateKey, cfg.TokenTTL)
	escalationService := services.NewEscalationService(accountRepo, escalationRepo, principalCache)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTPublicKey, accountRepo, principalCache)

	authHandler := handler.NewAuthHandler(authService)
	escalationHandler := handler.NewEscalationHandler(escalationService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	mux := http.NewServeMux()

	// Health endpoints (OpenShift compatible) and metrics
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /health/ready", healthHandler.Ready)
	mux.HandleFunc("GET /health/live", healthHandler.Live)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Session endpoints
	mux.Handle("POST /api/auth/register",
		middleware.Metrics("/api/auth/register", http.HandlerFunc(authHandler.Register)),
	)
	mux.Handle("POST /api/auth/login",
		middleware.Metrics("/api/auth/login", http.HandlerFunc(authHandler.Login)),
	)
	mux.Handle("GET /api/auth/me",
		middleware.Metrics("/api/auth/me",
			authMiddleware.RequireRole(
				[]domain.Role{domain.RoleParent, domain.RoleStaff, domain.RoleAdmin, domain.RoleSuperAdmin},
				http.HandlerFunc(authHandler.Me),
			),
		),
	)

	// Admin escalation workflow
	mux.Handle("POST /api/admin/request",
		middleware.Metrics("/api/admin/request",
			authMiddleware.RequireRole(
				[]domain.Role{domain.RoleParent},
				http.HandlerFunc(escalationHandler.Petition),
			),
		),
	)
	mux.Handle("GET /api/admin/requests",
		middleware.Metrics("/api/admin/requests",
			authMiddleware.RequireRole(
				[]domain.Role{domain.RoleSuperAdmin, domain.RoleAdmin},
				http.HandlerFunc(escalationHandler.ListPending),
			),
		),
	)
	mux.Handle("PUT /api/admin/approve/{id}",
		middleware.Metrics("/api/admin/approve",
			authMiddleware.RequireRole(
				[]domain.Role{domain.RoleSuperAdmin},
				http.HandlerFunc(escalationHandler.Approve),
			),
		),
	)
	mux.Handle("PUT /api/admin/reject/{id}",
		middleware.Metrics("/api/admin/reject",
			authMiddleware.RequireRole(
				[]domain.Role{domain.RoleSuperAdmin},
				http.HandlerFunc(escalationHandler.Reject),
			),
		),
	)

	root := middleware.CORS(cfg.AllowedOrigins)(mux)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, root); err != nil {
		log.Fatalf("Could not start server: %s\n", err)
	}
}
