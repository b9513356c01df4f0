package catalog

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/domain/shop"
	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/modules/cache"
	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/watch"
	"golang.org/x/sync/singleflight"
)

const (
	productsCacheKey   = "products"
	categoriesCacheKey = "categories"
)

// RemoteSource is the remote catalog endpoint consumed by the service.
type RemoteSource interface {
	FetchAllProducts(ctx context.Context) ([]shop.Product, error)
	FetchProduct(ctx context.Context, id int64) (*shop.Product, error)
	FetchCategories(ctx context.Context) ([]string, error)
}

// State is the single consistent bundle the query engine produces:
// the filtered and sorted catalog, the derived category list, the echoed
// filter parameters, and the loading/error flags.
type State struct {
	Products           []shop.Product
	Categories         []string
	Search             string
	SelectedCategories []string
	MinRating          *float64
	Sort               SortOption
	Loading            bool
	Error              string
}

// Service is the catalog query engine. It recomputes the state whenever
// the underlying catalog or any filter parameter changes, and runs the
// refresh workflow against the remote source.
type Service struct {
	repo   *Repository
	remote RemoteSource
	group  singleflight.Group

	mu        sync.Mutex
	cache     cache.CacheService
	search    string
	selected  map[string]struct{}
	minRating *float64
	sortBy    SortOption
	loading   bool
	lastError string
	products  []shop.Product
	latest    State
	ready     bool
	subs      map[int]chan State
	nextSub   int
	onChange  func(State)
}

// NewService creates a new catalog service.
func NewService(repo *Repository, remote RemoteSource) *Service {
	return &Service{
		repo:     repo,
		remote:   remote,
		selected: make(map[string]struct{}),
		sortBy:   SortNone,
		subs:     make(map[int]chan State),
	}
}

// SetCache enables the remote-response cache. A nil cache disables it.
// Safe to call while the engine is running.
func (s *Service) SetCache(c cache.CacheService) {
	s.mu.Lock()
	s.cache = c
	s.mu.Unlock()
}

func (s *Service) cacheService() cache.CacheService {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache
}

// SetOnChange registers a hook invoked with every recomputed state.
func (s *Service) SetOnChange(fn func(State)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Run drives the engine until ctx is cancelled: each committed catalog
// change triggers a recomputation. Filter setters trigger their own.
func (s *Service) Run(ctx context.Context) {
	for snapshot := range s.repo.ObserveAll(ctx) {
		s.mu.Lock()
		s.products = snapshot
		s.mu.Unlock()
		s.recompute()
	}
}

// State returns the latest computed state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Subscribe returns a live state stream: the current state first, then
// every recomputed state. Delivery is latest-wins; the channel closes
// when ctx is cancelled.
func (s *Service) Subscribe(ctx context.Context) <-chan State {
	ch := make(chan State, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	if s.ready {
		watch.Push(ch, s.latest)
	}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// SetSearch updates the search text.
func (s *Service) SetSearch(query string) {
	s.mu.Lock()
	s.search = query
	s.mu.Unlock()
	s.recompute()
}

// ToggleCategory adds the category to the selected set, or removes it
// when already selected.
func (s *Service) ToggleCategory(category string) {
	s.mu.Lock()
	if _, ok := s.selected[category]; ok {
		delete(s.selected, category)
	} else {
		s.selected[category] = struct{}{}
	}
	s.mu.Unlock()
	s.recompute()
}

// SetCategories replaces the selected category set.
func (s *Service) SetCategories(categories []string) {
	s.mu.Lock()
	s.selected = make(map[string]struct{}, len(categories))
	for _, c := range categories {
		s.selected[c] = struct{}{}
	}
	s.mu.Unlock()
	s.recompute()
}

// ClearCategories empties the selected category set.
func (s *Service) ClearCategories() {
	s.mu.Lock()
	s.selected = make(map[string]struct{})
	s.mu.Unlock()
	s.recompute()
}

// SelectRating sets the rating floor, or clears it when the same value
// is selected again.
func (s *Service) SelectRating(rating float64) {
	s.mu.Lock()
	if s.minRating != nil && *s.minRating == rating {
		s.minRating = nil
	} else {
		s.minRating = &rating
	}
	s.mu.Unlock()
	s.recompute()
}

// SetRating sets the rating floor directly; nil clears it.
func (s *Service) SetRating(rating *float64) {
	s.mu.Lock()
	s.minRating = rating
	s.mu.Unlock()
	s.recompute()
}

// SetSort selects the sort order.
func (s *Service) SetSort(option SortOption) {
	s.mu.Lock()
	s.sortBy = option
	s.mu.Unlock()
	s.recompute()
}

// Refresh fetches the catalog from the remote source and replaces the
// store on success. On failure the store is left untouched and the error
// is recorded in the state. Concurrent callers share a single fetch.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.lastError = ""
	s.mu.Unlock()
	s.recompute()

	_, err, _ := s.group.Do("refresh", func() (any, error) {
		return nil, s.doRefresh(ctx)
	})

	message := ""
	if err != nil {
		message = err.Error()
	}
	s.mu.Lock()
	s.loading = false
	s.lastError = message
	s.mu.Unlock()
	s.recompute()

	return err
}

// doRefresh always goes to the remote source; an explicit refresh must
// never be answered from the cache. The fetched list is written back so
// WarmUp can seed the store on the next cold start.
func (s *Service) doRefresh(ctx context.Context) error {
	products, err := s.remote.FetchAllProducts(ctx)
	if err != nil {
		return err
	}
	if err := s.repo.ReplaceAll(products); err != nil {
		return err
	}

	if c := s.cacheService(); c != nil {
		if err := c.Set(ctx, productsCacheKey, products); err != nil {
			log.Printf("[catalog] failed to cache products: %v", err)
		}
	}
	return nil
}

// WarmUp seeds an empty store from the cached product list so a restart
// shows the last known catalog before the first refresh. A store that
// already holds products is left alone.
func (s *Service) WarmUp(ctx context.Context) {
	c := s.cacheService()
	if c == nil {
		return
	}

	existing, err := s.repo.FindAll()
	if err != nil || len(existing) > 0 {
		return
	}

	var cached []shop.Product
	found, err := c.Get(ctx, productsCacheKey, &cached)
	if err != nil || !found || len(cached) == 0 {
		return
	}
	if err := s.repo.ReplaceAll(cached); err != nil {
		log.Printf("[catalog] failed to warm catalog from cache: %v", err)
	}
}

// Categories fetches the remote category list, served from the cache
// when available. The list the engine displays is still derived locally
// from the unfiltered catalog.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	c := s.cacheService()
	if c != nil {
		var cached []string
		if found, err := c.Get(ctx, categoriesCacheKey, &cached); err == nil && found {
			return cached, nil
		}
	}

	v, err, _ := s.group.Do("categories", func() (any, error) {
		return s.remote.FetchCategories(ctx)
	})
	if err != nil {
		return nil, err
	}
	categories := v.([]string)

	if c != nil {
		if err := c.Set(ctx, categoriesCacheKey, categories); err != nil {
			log.Printf("[catalog] failed to cache categories: %v", err)
		}
	}
	return categories, nil
}

// Product looks up a product in the store, falling back to the remote
// detail endpoint when it is not cached locally.
func (s *Service) Product(ctx context.Context, id int64) (*shop.Product, error) {
	product, err := s.repo.FindByID(id)
	if err == nil {
		return product, nil
	}
	if err != ErrNotFound {
		return nil, err
	}
	return s.remote.FetchProduct(ctx, id)
}

// recompute derives a new state bundle from the current catalog snapshot
// and filter parameters, then fans it out to subscribers and the change
// hook.
func (s *Service) recompute() {
	s.mu.Lock()
	filtered := applyFilters(s.products, s.search, s.selected, s.minRating)
	state := State{
		Products:           applySort(filtered, s.sortBy),
		Categories:         deriveCategories(s.products),
		Search:             s.search,
		SelectedCategories: selectedSlice(s.selected),
		MinRating:          s.minRating,
		Sort:               s.sortBy,
		Loading:            s.loading,
		Error:              s.lastError,
	}
	s.latest = state
	s.ready = true
	// Fan out under the lock: Push never blocks and unsubscribe closes
	// channels under the same lock, so no send can hit a closed channel.
	for _, ch := range s.subs {
		watch.Push(ch, state)
	}
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(state)
	}
}

func selectedSlice(selected map[string]struct{}) []string {
	out := make([]string, 0, len(selected))
	for c := range selected {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
