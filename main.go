package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	apimod "github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/modules/api"
	authmod "github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/modules/auth"
	cachemod "github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/modules/cache"
	cartmod "github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/modules/cart"
	catalogmod "github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/modules/catalog"
	streammod "github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/modules/stream"
	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/storeapi"
	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/watch"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration from environment
	dbPath := getEnv("DB_PATH", "./shop.db")
	httpPort := getEnvInt("HTTP_PORT", 3000)
	storeURL := getEnv("STORE_API_URL", storeapi.DefaultBaseURL)
	redisAddr := getEnv("REDIS_ADDR", "")
	cacheTTL := getEnvDuration("CACHE_TTL", 5*time.Minute)
	cachePrefix := getEnv("CACHE_PREFIX", "shop:")

	log.Println("=== ShopMagazine ===")
	log.Printf("Database: %s", dbPath)
	log.Printf("HTTP Port: %d", httpPort)
	log.Printf("Store API: %s", storeURL)
	if redisAddr != "" {
		log.Printf("Redis: %s (TTL %s, prefix %q)", redisAddr, cacheTTL, cachePrefix)
	} else {
		log.Println("Redis: disabled")
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	tracker := watch.NewTracker()

	// The auth module is the token source for the store client, and the
	// store client is the remote login endpoint for the auth module, so
	// the two are wired in sequence here.
	authModule := authmod.NewModule(db)
	client := storeapi.NewClient(storeURL, authModule)
	authModule.SetRemote(client)

	catalogModule := catalogmod.NewModule(db, tracker, client)
	cartModule := cartmod.NewModule(db, tracker)
	streamModule := streammod.NewModule()
	apiModule := apimod.NewModule(fmt.Sprintf(":%d", httpPort))
	apiModule.SetHub(streamModule.Hub())

	var cacheModule *cachemod.Module
	if redisAddr != "" {
		cacheModule = cachemod.NewModuleWithConfig(redisAddr, cachePrefix, cacheTTL)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
	)
	if err != nil {
		log.Fatalf("Failed to create mono application: %v", err)
	}

	// Register modules
	if cacheModule != nil {
		app.Register(cacheModule)
	}
	app.Register(authModule)
	app.Register(catalogModule)
	app.Register(cartModule)
	app.Register(streamModule)
	app.Register(apiModule)

	// Start modules (this handles Init and Start)
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	// Wire the cache into the catalog after start, once the Redis
	// connection exists.
	if cacheModule != nil {
		catalogModule.SetCache(cacheModule.GetCache())
	}

	log.Println("=== Application Started ===")
	log.Printf("API available at http://localhost:%d", httpPort)
	log.Println("Endpoints:")
	log.Println("  POST   /api/v1/auth/login                  - Login against the remote store")
	log.Println("  POST   /api/v1/auth/logout                 - Clear the persisted session")
	log.Println("  GET    /api/v1/auth/session                - Current session")
	log.Println("  GET    /api/v1/catalog                     - Filtered, sorted catalog state")
	log.Println("  PUT    /api/v1/catalog/filters             - Update search/categories/rating/sort")
	log.Println("  POST   /api/v1/catalog/refresh             - Re-fetch products from the store")
	log.Println("  GET    /api/v1/catalog/categories          - Remote category list")
	log.Println("  GET    /api/v1/catalog/products/:id        - Single product")
	log.Println("  GET    /api/v1/cart                        - Cart lines with products and total")
	log.Println("  POST   /api/v1/cart/items                  - Add product or increment its line")
	log.Println("  POST   /api/v1/cart/items/:id/decrement    - Decrement a line, remove at 1")
	log.Println("  DELETE /api/v1/cart/items/:id              - Remove a line")
	log.Println("  DELETE /api/v1/cart                        - Empty the cart")
	log.Println("  GET    /ws                                 - Live catalog/cart state stream")
	log.Println("  GET    /health                             - Health check")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown")

	// Setup graceful shutdown using gelmium/graceful-shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
			"database": func(_ context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// openDatabase opens the shared SQLite database. A single connection
// serializes writers so compound cart and catalog transactions never
// hit SQLITE_BUSY.
func openDatabase(path string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s?_busy_timeout=5000", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
