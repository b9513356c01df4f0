package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/domain/shop"
	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/events"
	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/watch"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// Module provides the cart store as a mono module.
type Module struct {
	db        *gorm.DB
	repo      *Repository
	service   *Service
	eventBus  mono.EventBus
	cancelRun context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)
var _ mono.EventBusAwareModule = (*Module)(nil)
var _ mono.EventEmitterModule = (*Module)(nil)

// NewModule creates a cart module on the shared database.
func NewModule(db *gorm.DB, tracker *watch.Tracker) *Module {
	repo := NewRepository(db, tracker)
	return &Module{
		db:      db,
		repo:    repo,
		service: NewService(repo),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "cart"
}

// Service returns the cart service.
func (m *Module) Service() *Service {
	return m.service
}

// Repository returns the cart store.
func (m *Module) Repository() *Repository {
	return m.repo
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.CartChangedV1.ToBase(),
	}
}

// Start migrates the cart_items table and launches the combination loop.
func (m *Module) Start(_ context.Context) error {
	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate cart_items table: %w", err)
	}

	m.service.SetOnChange(func(state State) {
		if m.eventBus == nil {
			return
		}
		event := events.CartChangedEvent{
			Items:      state.Items,
			TotalPrice: state.TotalPrice,
			Timestamp:  time.Now(),
		}
		if err := events.CartChangedV1.Publish(m.eventBus, event, nil); err != nil {
			log.Printf("[cart] failed to publish CartChanged event: %v", err)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelRun = cancel
	go m.service.Run(ctx)

	log.Println("[cart] Module started")
	return nil
}

// Stop halts the combination loop. The shared database is closed by the
// application, not here.
func (m *Module) Stop(_ context.Context) error {
	if m.cancelRun != nil {
		m.cancelRun()
	}
	log.Println("[cart] Module stopped")
	return nil
}

// Health performs a database health check.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
	}
}

// RegisterServices registers request-reply services in the service
// container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "get", json.Unmarshal, json.Marshal, m.handleGet,
	); err != nil {
		return fmt.Errorf("failed to register get service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "add", json.Unmarshal, json.Marshal, m.handleAdd,
	); err != nil {
		return fmt.Errorf("failed to register add service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "decrement", json.Unmarshal, json.Marshal, m.handleDecrement,
	); err != nil {
		return fmt.Errorf("failed to register decrement service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "remove", json.Unmarshal, json.Marshal, m.handleRemove,
	); err != nil {
		return fmt.Errorf("failed to register remove service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "clear", json.Unmarshal, json.Marshal, m.handleClear,
	); err != nil {
		return fmt.Errorf("failed to register clear service: %w", err)
	}

	log.Printf("[cart] Registered services: get, add, decrement, remove, clear")
	return nil
}

func (m *Module) handleGet(_ context.Context, _ GetCartRequest, _ *mono.Msg) (GetCartResponse, error) {
	items, err := m.repo.CartWithProducts()
	if err != nil {
		return GetCartResponse{}, err
	}
	total, err := m.repo.TotalPrice()
	if err != nil {
		return GetCartResponse{}, err
	}
	return GetCartResponse{Items: items, TotalPrice: total}, nil
}

func (m *Module) handleAdd(_ context.Context, req AddRequest, _ *mono.Msg) (AddResponse, error) {
	if req.ProductID <= 0 {
		return AddResponse{}, fmt.Errorf("product_id is required")
	}
	if err := m.service.AddOrIncrement(req.ProductID); err != nil {
		return AddResponse{}, err
	}
	return AddResponse{Added: true}, nil
}

func (m *Module) handleDecrement(_ context.Context, req DecrementRequest, _ *mono.Msg) (DecrementResponse, error) {
	if req.ID <= 0 {
		return DecrementResponse{}, fmt.Errorf("id is required")
	}
	if err := m.service.DecrementOrRemove(shop.CartItem{ID: req.ID}); err != nil {
		return DecrementResponse{}, err
	}
	return DecrementResponse{Done: true}, nil
}

func (m *Module) handleRemove(_ context.Context, req RemoveRequest, _ *mono.Msg) (RemoveResponse, error) {
	if req.ID <= 0 {
		return RemoveResponse{}, fmt.Errorf("id is required")
	}
	if err := m.service.DeleteLine(shop.CartItem{ID: req.ID}); err != nil {
		return RemoveResponse{}, err
	}
	return RemoveResponse{Removed: true}, nil
}

func (m *Module) handleClear(_ context.Context, _ ClearRequest, _ *mono.Msg) (ClearResponse, error) {
	if err := m.service.Clear(); err != nil {
		return ClearResponse{}, err
	}
	return ClearResponse{Cleared: true}, nil
}
