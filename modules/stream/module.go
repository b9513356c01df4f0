// Package stream pushes live catalog and cart state to WebSocket
// clients: the Go rendition of the original app's collected state flows.
package stream

import (
	"context"
	"fmt"
	"log"

	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Update types pushed to clients.
const (
	UpdateCatalog = "catalog"
	UpdateCart    = "cart"
)

// Module consumes catalog/cart events and broadcasts them to WebSocket
// clients.
type Module struct {
	hub       *Hub
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new stream module.
func NewModule() *Module {
	return &Module{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "stream"
}

// Hub returns the WebSocket hub for the API module to mount.
func (m *Module) Hub() *Hub {
	return m.hub
}

// Start launches the hub loop.
func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[stream] Module started - WebSocket hub running")
	return nil
}

// Stop shuts down the hub.
func (m *Module) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	log.Printf("[stream] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.CatalogChangedV1, m.handleCatalogChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register CatalogChanged consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.CartChangedV1, m.handleCartChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register CartChanged consumer: %w", err)
	}

	log.Println("[stream] Registered event consumers: CatalogChanged, CartChanged")
	return nil
}

func (m *Module) handleCatalogChanged(_ context.Context, event events.CatalogChangedEvent, _ *mono.Msg) error {
	m.hub.Broadcast(UpdateCatalog, event)
	return nil
}

func (m *Module) handleCartChanged(_ context.Context, event events.CartChangedEvent, _ *mono.Msg) error {
	m.hub.Broadcast(UpdateCart, event)
	return nil
}
