package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/tablereserve/internal/domain"
	"github.com/yourorg/tablereserve/internal/handler"
	"github.com/yourorg/tablereserve/internal/infrastructure/events"
	"github.com/yourorg/tablereserve/internal/infrastructure/logger"
	"github.com/yourorg/tablereserve/internal/infrastructure/redis"
	"github.com/yourorg/tablereserve/internal/infrastructure/stream"
	"github.com/yourorg/tablereserve/internal/observability/metrics"
	"github.com/yourorg/tablereserve/internal/observability/tracing"
	"github.com/yourorg/tablereserve/internal/repository"
	"github.com/yourorg/tablereserve/internal/security"
	"github.com/yourorg/tablereserve/internal/security/audit"
	"github.com/yourorg/tablereserve/internal/security/auth"
	"github.com/yourorg/tablereserve/internal/security/middleware"
	"github.com/yourorg/tablereserve/internal/security/ratelimit"
	"github.com/yourorg/tablereserve/internal/service"
	"github.com/yourorg/tablereserve/internal/worker"
	"github.com/yourorg/tablereserve/pkg/cache"
	"github.com/yourorg/tablereserve/pkg/config"
	"github.com/yourorg/tablereserve/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel, cfg.Environment)
	log.Info("starting TableReserve server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, log, "tablereserve", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Initialize Redis client
	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// 5. Initialize Postgres connection pool
	pool, err := database.NewConnectionPool(ctx, &database.Config{URL: cfg.DatabaseURL}, log)
	if err != nil {
		log.Error("failed to connect to Postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()
	db := pool.GetDB()

	// 6. Initialize repositories
	restaurantRepo := repository.NewPostgresRestaurantRepository(db, log)
	userRepo := repository.NewPostgresUserRepository(db, log)
	holdRepo := repository.NewRedisHoldRepository(redisClient, log)

	if err := restaurantRepo.EnsureSchema(ctx); err != nil {
		log.Error("failed to ensure schema", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := userRepo.EnsureSchema(ctx); err != nil {
		log.Error("failed to ensure users schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. Initialize event fanout: redis pub/sub for integrations plus a
	// websocket hub for live floor displays.
	hub := stream.NewHub(log)
	defer hub.Close()
	publisher := events.NewFanout(events.NewRedisPublisher(redisClient, log), hub)

	// 8. Initialize services
	clk := domain.SystemClock{}
	engine := domain.NewAvailabilityEngine(clk, log)
	rateCache := cache.New()

	reservationService := service.NewReservationService(restaurantRepo, holdRepo, engine, publisher, clk, rateCache, log, cfg)
	restaurantService := service.NewRestaurantService(restaurantRepo, publisher, clk, log)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, log)

	// 9. Initialize handlers
	restaurantsHandler := handler.NewRestaurantsHandler(restaurantService, log)
	restaurantHandler := handler.NewRestaurantHandler(restaurantService, log)
	restaurantStatusHandler := handler.NewRestaurantStatusHandler(restaurantService, log)
	tablesHandler := handler.NewTablesHandler(restaurantService, log)
	tableAvailabilityHandler := handler.NewTableAvailabilityHandler(restaurantService, log)
	availabilityHandler := handler.NewAvailabilityHandler(reservationService, log)
	ratesHandler := handler.NewRatesHandler(reservationService, log)
	accommodateHandler := handler.NewAccommodateHandler(reservationService, log)
	bookHandler := handler.NewBookHandler(reservationService, log)
	actionHandler := handler.NewReservationActionHandler(reservationService, log)
	holdsHandler := handler.NewHoldsHandler(reservationService, log)
	releaseHoldHandler := handler.NewReleaseHoldHandler(reservationService, log)
	authHandler := handler.NewAuthHandler(authService, log)
	floorHandler := handler.NewFloorHandler(hub, log, cfg.CORSAllowedOrigins)
	healthHandler := handler.NewHealthHandler(db, redisClient, log)

	// 9a. Initialize security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "tablereserve")
	authzService := security.NewAuthorizationService(log)
	rateLimiter := ratelimit.NewLimiter(100, time.Minute) // 100 requests per minute per caller
	auditLogger := audit.NewLogger(log)

	// 10. Setup HTTP routes
	mux := http.NewServeMux()
	mux.Handle("POST /api/restaurants", restaurantsHandler)
	mux.Handle("GET /api/restaurants", restaurantsHandler)
	mux.Handle("GET /api/restaurants/{id}", restaurantHandler)
	mux.Handle("DELETE /api/restaurants/{id}", restaurantHandler)
	mux.Handle("PUT /api/restaurants/{id}/active", restaurantStatusHandler)
	mux.Handle("POST /api/restaurants/{id}/tables", tablesHandler)
	mux.Handle("PUT /api/restaurants/{id}/tables/{tableId}/availability", tableAvailabilityHandler)
	mux.Handle("GET /api/restaurants/{id}/availability", availabilityHandler)
	mux.Handle("GET /api/restaurants/{id}/rates", ratesHandler)
	mux.Handle("GET /api/restaurants/{id}/accommodate", accommodateHandler)
	mux.Handle("POST /api/restaurants/{id}/reservations", bookHandler)
	mux.Handle("POST /api/restaurants/{id}/reservations/{slotId}/{action}", actionHandler)
	mux.Handle("POST /api/restaurants/{id}/holds", holdsHandler)
	mux.Handle("GET /api/restaurants/{id}/holds", holdsHandler)
	mux.Handle("DELETE /api/holds/{key}", releaseHoldHandler)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/password", authHandler.ChangePassword)
	mux.Handle("GET /ws/floor", floorHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> metrics -> audit -> rate limit -> jwt ->
	// restaurant access -> content type -> sanitize -> CORS/routes
	rootHandler := withRequestID(
		metrics.HTTPMetricsMiddleware(
			middleware.AuditMiddleware(auditLogger)(
				middleware.RateLimitMiddleware(rateLimiter, log)(
					middleware.JWTMiddleware(tokenManager, log)(
						middleware.RestaurantAccessMiddleware(authzService, auditLogger, log)(
							middleware.ValidateJSONContentType(log)(
								middleware.SanitizeInputs(log)(handlerWithCORS),
							),
						),
					),
				),
			),
		),
		log,
	)

	// 11. Start the sweep worker that completes elapsed reservations
	sweepWorker := worker.NewSweepWorker(
		restaurantRepo,
		publisher,
		engine,
		clk,
		log,
		time.Duration(cfg.SweepIntervalMinutes)*time.Minute,
		cfg.CapacityAlertThreshold,
	)
	go sweepWorker.Start(ctx)

	// 12. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(rootHandler, "tablereserve.http"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Int("rate_limit", 100),
		slog.String("rate_limit_window", "1m"),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop sweep worker
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)

		rec := metrics.NewStatusRecorder(w)
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.Status),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
