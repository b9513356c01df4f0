package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/events"
	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/modules/cache"
	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/watch"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/gorm"
)

// Module provides the catalog store and query engine as a mono module.
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

// NewModule creates a catalog module on the shared database.
func NewModule(db *gorm.DB, tracker *watch.Tracker, remote RemoteSource) *Module {
	repo := NewRepository(db, tracker)
	return &Module{
		db:      db,
		repo:    repo,
		service: NewService(repo, remote),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "catalog"
}

// SetCache wires the optional remote-response cache and seeds an empty
// store from it so a restart shows the last known catalog.
func (m *Module) SetCache(c cache.CacheService) {
	m.service.SetCache(c)
	m.service.WarmUp(context.Background())
}

// Service returns the catalog query engine.
func (m *Module) Service() *Service {
	return m.service
}

// Repository returns the catalog store.
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
		events.CatalogChangedV1.ToBase(),
	}
}

// Start migrates the products table and launches the query-engine loop.
func (m *Module) Start(_ context.Context) error {
	if err := m.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate products table: %w", err)
	}

	m.service.SetOnChange(func(state State) {
		if m.eventBus == nil {
			return
		}
		if err := events.CatalogChangedV1.Publish(m.eventBus, toCatalogEvent(state), nil); err != nil {
			log.Printf("[catalog] failed to publish CatalogChanged event: %v", err)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelRun = cancel
	go m.service.Run(ctx)

	log.Println("[catalog] Module started")
	return nil
}

// Stop halts the query-engine loop. The shared database is closed by the
// application, not here.
func (m *Module) Stop(_ context.Context) error {
	if m.cancelRun != nil {
		m.cancelRun()
	}
	log.Println("[catalog] Module stopped")
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
		container, "state", json.Unmarshal, json.Marshal, m.handleState,
	); err != nil {
		return fmt.Errorf("failed to register state service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "refresh", json.Unmarshal, json.Marshal, m.handleRefresh,
	); err != nil {
		return fmt.Errorf("failed to register refresh service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "set-filters", json.Unmarshal, json.Marshal, m.handleSetFilters,
	); err != nil {
		return fmt.Errorf("failed to register set-filters service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-product", json.Unmarshal, json.Marshal, m.handleGetProduct,
	); err != nil {
		return fmt.Errorf("failed to register get-product service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "categories", json.Unmarshal, json.Marshal, m.handleCategories,
	); err != nil {
		return fmt.Errorf("failed to register categories service: %w", err)
	}

	log.Printf("[catalog] Registered services: state, refresh, set-filters, get-product, categories")
	return nil
}

func (m *Module) handleState(_ context.Context, _ StateRequest, _ *mono.Msg) (StateResponse, error) {
	return toStateResponse(m.service.State()), nil
}

func (m *Module) handleRefresh(ctx context.Context, _ RefreshRequest, _ *mono.Msg) (RefreshResponse, error) {
	if err := m.service.Refresh(ctx); err != nil {
		return RefreshResponse{Refreshed: false, Error: err.Error()}, nil
	}
	return RefreshResponse{Refreshed: true}, nil
}

func (m *Module) handleSetFilters(_ context.Context, req SetFiltersRequest, _ *mono.Msg) (StateResponse, error) {
	if req.Sort != nil {
		option, err := ParseSortOption(*req.Sort)
		if err != nil {
			return StateResponse{}, err
		}
		m.service.SetSort(option)
	}
	if req.Search != nil {
		m.service.SetSearch(*req.Search)
	}
	if req.Categories != nil {
		m.service.SetCategories(*req.Categories)
	}
	if req.ClearRating {
		m.service.SetRating(nil)
	} else if req.MinRating != nil {
		m.service.SetRating(req.MinRating)
	}
	return toStateResponse(m.service.State()), nil
}

func (m *Module) handleGetProduct(ctx context.Context, req GetProductRequest, _ *mono.Msg) (GetProductResponse, error) {
	if req.ID <= 0 {
		return GetProductResponse{}, fmt.Errorf("id is required")
	}
	product, err := m.service.Product(ctx, req.ID)
	if err != nil {
		return GetProductResponse{}, err
	}
	return GetProductResponse{Product: *product}, nil
}

func (m *Module) handleCategories(ctx context.Context, _ CategoriesRequest, _ *mono.Msg) (CategoriesResponse, error) {
	categories, err := m.service.Categories(ctx)
	if err != nil {
		return CategoriesResponse{}, err
	}
	return CategoriesResponse{Categories: categories}, nil
}

func toStateResponse(state State) StateResponse {
	return StateResponse{
		Products:           state.Products,
		Categories:         state.Categories,
		Search:             state.Search,
		SelectedCategories: state.SelectedCategories,
		MinRating:          state.MinRating,
		Sort:               string(state.Sort),
		Loading:            state.Loading,
		Error:              state.Error,
	}
}

func toCatalogEvent(state State) events.CatalogChangedEvent {
	return events.CatalogChangedEvent{
		Products:           state.Products,
		Categories:         state.Categories,
		Search:             state.Search,
		SelectedCategories: state.SelectedCategories,
		MinRating:          state.MinRating,
		Sort:               string(state.Sort),
		Loading:            state.Loading,
		Error:              state.Error,
		Timestamp:          time.Now(),
	}
}
