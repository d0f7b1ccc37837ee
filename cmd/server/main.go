package main

import (
	"context"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/foxxcyber/shoe-compare/internal/cache"
	"github.com/foxxcyber/shoe-compare/internal/catalog"
	"github.com/foxxcyber/shoe-compare/internal/config"
	"github.com/foxxcyber/shoe-compare/internal/database"
	"github.com/foxxcyber/shoe-compare/internal/handlers"
	"github.com/foxxcyber/shoe-compare/internal/middleware"
	"github.com/foxxcyber/shoe-compare/internal/scheduler"
	"github.com/foxxcyber/shoe-compare/internal/services"
)

const redisKeyPrefix = "shoecompare:"

// backend is everything the API needs from the product store
type backend interface {
	services.ProductStore
	services.SearchLogger
	services.CatalogReader
	scheduler.Pruner
	handlers.Pinger
}

func main() {
	// Load .env file if it exists
	godotenv.Load()

	cfg := config.Load()
	log := newLogger(cfg)

	store, closeStore := openStore(cfg, log)

	// Redis is optional; without it there is no rate limiting and trending
	// comes from the query log
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, rate limiting and trending counters disabled")
		} else {
			rdb = client
			log.Info("Redis connected successfully")
		}
	}

	var counter services.SearchCounter
	var trending services.TrendingSource
	if rdb != nil {
		tc := cache.NewTrendingCounter(rdb, redisKeyPrefix, 8*24*time.Hour)
		counter, trending = tc, tc
	}

	analytics := services.NewAnalyticsRecorder(store, counter, services.NewIPHasher(cfg.AnalyticsIPSecret))
	searchService := services.NewSearchService(store, analytics, nil, log)
	comparison := services.NewComparisonEngine(store, log)

	svc := handlers.Services{
		Search:     searchService,
		Products:   services.NewProductService(store, log, cfg.PriceHistoryDays),
		Comparison: comparison,
		Trends:     services.NewTrendAnalyzer(store, log, cfg.PriceHistoryDays),
		Aggregator: services.NewAggregator(comparison, log),
		Discovery:  services.NewDiscoveryService(store, trending, log),
		Database:   store,
	}
	if rdb != nil {
		svc.Redis = handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	var snapshotPruner scheduler.SnapshotPruner
	if snapshots := openSnapshots(cfg, log); snapshots != nil {
		svc.Snapshots = snapshots
		snapshotPruner = snapshots
	}

	sched := scheduler.New(cfg.RetentionSchedule, store, snapshotPruner, scheduler.Retention{
		SearchQueries: cfg.SearchLogRetention,
		PriceHistory:  cfg.PriceHistoryRetention,
		Snapshots:     cfg.SnapshotExpiry,
	}, log)
	if err := sched.Start(context.Background()); err != nil {
		log.WithError(err).Fatal("Failed to start scheduler")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.SecurityHeaders())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	api := app.Group("/api")
	if rdb != nil {
		limiter := middleware.NewLimiter(rdb, redisKeyPrefix+"ratelimit:")
		api.Use(middleware.RateLimit(limiter, cfg.RateLimitRequests, cfg.RateLimitWindow, log))
	}

	h := handlers.New(cfg, svc, log)
	h.RegisterRoutes(app, api)

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("Server stopped")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"scheduler": sched.Stop,
			"http": func(ctx context.Context) error {
				log.Info("Graceful shutdown initiated...")
				if err := app.ShutdownWithContext(ctx); err != nil {
					return err
				}
				// In-flight analytics writes finish before the store closes
				drained := make(chan struct{})
				go func() {
					searchService.Drain()
					close(drained)
				}()
				select {
				case <-drained:
				case <-ctx.Done():
					log.Warn("Timed out waiting for analytics writes")
				}
				if rdb != nil {
					return rdb.Close()
				}
				return nil
			},
		},
	)

	exitCode := <-wait
	log.WithField("code", exitCode).Info("Application exited")
	closeStore()
	os.Exit(exitCode)
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// openStore connects to Postgres, falling back to the sample catalog when
// the memory backend is selected or the database is unreachable
func openStore(cfg *config.Config, log logrus.FieldLogger) (backend, func()) {
	memory := func() (backend, func()) {
		return catalog.NewMemory(catalog.Sample(time.Now()), nil), func() {}
	}

	if cfg.UseMemoryStore() {
		log.Info("Using in-memory sample catalog")
		return memory()
	}

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Error("Failed to connect to database, serving the in-memory sample catalog")
		return memory()
	}

	if err := database.RunMigrations(db); err != nil {
		db.Close()
		log.WithError(err).Error("Failed to run migrations, serving the in-memory sample catalog")
		return memory()
	}

	return db, db.Close
}

// openSnapshots returns the comparison snapshot store, or nil when S3 is not
// configured or unreachable
func openSnapshots(cfg *config.Config, log logrus.FieldLogger) *services.SnapshotStore {
	if !cfg.SnapshotsEnabled() {
		log.Info("S3 credentials not configured, comparison sharing disabled")
		return nil
	}

	snapshots, err := services.NewSnapshotStore(
		cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL, cfg.SnapshotExpiry,
	)
	if err != nil {
		log.WithError(err).Warn("Failed to create snapshot store, comparison sharing disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := snapshots.EnsureBucket(ctx); err != nil {
		log.WithError(err).Warn("Failed to ensure snapshot bucket, comparison sharing disabled")
		return nil
	}

	log.WithField("bucket", cfg.S3Bucket).Info("Comparison sharing enabled")
	return snapshots
}
