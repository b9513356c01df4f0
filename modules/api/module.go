// Package api exposes the shop over HTTP: REST routes for auth,
// catalog, and cart, plus a WebSocket endpoint streaming live state.
package api

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/modules/auth"
	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/modules/stream"
	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Module is the HTTP API module.
type Module struct {
	app              *fiber.App
	addr             string
	hub              *stream.Hub
	authContainer    mono.ServiceContainer
	catalogContainer mono.ServiceContainer
	cartContainer    mono.ServiceContainer
	authAdapter      auth.AuthPort
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new API module listening on addr.
func NewModule(addr string) *Module {
	return &Module{addr: addr}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "api"
}

// SetHub wires the WebSocket hub. Must be called before Start.
func (m *Module) SetHub(hub *stream.Hub) {
	m.hub = hub
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"auth", "catalog", "cart"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authContainer = container
		m.authAdapter = auth.NewAuthAdapter(container)
	case "catalog":
		m.catalogContainer = container
	case "cart":
		m.cartContainer = container
	}
}

// Start initializes the Fiber HTTP server.
func (m *Module) Start(_ context.Context) error {
	if m.authContainer == nil || m.catalogContainer == nil || m.cartContainer == nil {
		return fmt.Errorf("module dependencies not set")
	}
	if m.hub == nil {
		return fmt.Errorf("stream hub not set")
	}

	m.app = fiber.New(fiber.Config{
		AppName:               "ShopMagazine",
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	// Add middleware
	m.app.Use(recover.New())
	m.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	m.app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.setupRoutes()

	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s", m.addr)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *Module) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr": m.addr,
		},
	}
}

// setupRoutes configures all API routes.
func (m *Module) setupRoutes() {
	handlers := NewHandlers(m.authContainer, m.catalogContainer, m.cartContainer, m.authAdapter)

	// Health check endpoint
	m.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})

	// WebSocket upgrade middleware
	m.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	m.app.Get("/ws", websocket.New(m.handleWebSocket))

	// API v1 routes
	v1 := m.app.Group("/api/v1")

	// Public auth routes
	authRoutes := v1.Group("/auth")
	authRoutes.Post("/login", handlers.Login)

	// Protected routes (require authentication)
	protected := v1.Group("")
	protected.Use(AuthMiddleware(m.authAdapter))

	protected.Post("/auth/logout", handlers.Logout)
	protected.Get("/auth/session", handlers.Session)

	protected.Get("/catalog", handlers.Catalog)
	protected.Put("/catalog/filters", handlers.SetFilters)
	protected.Post("/catalog/refresh", handlers.Refresh)
	protected.Get("/catalog/categories", handlers.Categories)
	protected.Get("/catalog/products/:id", handlers.Product)

	protected.Get("/cart", handlers.Cart)
	protected.Post("/cart/items", handlers.AddItem)
	protected.Post("/cart/items/:id/decrement", handlers.DecrementItem)
	protected.Delete("/cart/items/:id", handlers.RemoveItem)
	protected.Delete("/cart", handlers.ClearCart)
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
