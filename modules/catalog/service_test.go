package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/domain/shop"
)

type fakeRemote struct {
	products   []shop.Product
	categories []string
	err        error
	calls      int
}

func (f *fakeRemote) FetchAllProducts(_ context.Context) ([]shop.Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeRemote) FetchProduct(_ context.Context, id int64) (*shop.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.products {
		if p.ID == id {
			product := p
			return &product, nil
		}
	}
	return nil, errors.New("remote: not found")
}

func (f *fakeRemote) FetchCategories(_ context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.categories, nil
}

// fakeCache is an in-memory stand-in for the Redis cache.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) Get(_ context.Context, key string, dest any) (bool, error) {
	f.mu.Lock()
	data, ok := f.entries[key]
	f.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.entries[key] = data
	f.mu.Unlock()
	return nil
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	delete(f.entries, key)
	f.mu.Unlock()
	return nil
}

func (f *fakeCache) put(t *testing.T, key string, value any) {
	t.Helper()
	if err := f.Set(context.Background(), key, value); err != nil {
		t.Fatalf("failed to seed cache key %q: %v", key, err)
	}
}

// startService wires a service onto a fresh repository and runs its
// engine until the test ends.
func startService(t *testing.T, remote RemoteSource) (*Service, *Repository) {
	t.Helper()

	repo, _ := setupTestRepo(t)
	service := NewService(repo, remote)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go service.Run(ctx)

	return service, repo
}

// waitFor polls until the condition holds or the test deadline expires.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestService_RefreshReplacesStore(t *testing.T) {
	remote := &fakeRemote{products: sampleProducts()}
	service, repo := startService(t, remote)

	if err := service.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	products, err := repo.FindAll()
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(products) != 5 {
		t.Errorf("expected 5 products in store, got %d", len(products))
	}

	waitFor(t, "state to carry the refreshed catalog", func() bool {
		state := service.State()
		return len(state.Products) == 5 && !state.Loading && state.Error == ""
	})
}

func TestService_RefreshFailureLeavesStoreUntouched(t *testing.T) {
	remote := &fakeRemote{products: sampleProducts()}
	service, repo := startService(t, remote)

	if err := service.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	waitFor(t, "initial catalog", func() bool {
		return len(service.State().Products) == 5
	})

	remote.err = errors.New("connection reset")
	if err := service.Refresh(context.Background()); err == nil {
		t.Fatal("expected Refresh to fail")
	}

	products, err := repo.FindAll()
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(products) != 5 {
		t.Errorf("expected previous catalog to survive, got %d products", len(products))
	}

	state := service.State()
	if state.Error != "connection reset" {
		t.Errorf("expected error recorded in state, got %q", state.Error)
	}
	if state.Loading {
		t.Error("expected loading cleared after failed refresh")
	}
	if len(state.Products) != 5 {
		t.Errorf("expected state to keep previous catalog, got %d products", len(state.Products))
	}
}

func TestService_RefreshFetchesRemoteDespiteCache(t *testing.T) {
	remote := &fakeRemote{products: sampleProducts()}
	service, repo := startService(t, remote)

	// A stale cached catalog must not satisfy an explicit refresh.
	stale := []shop.Product{{ID: 99, Title: "Stale", Category: "electronics"}}
	cached := newFakeCache()
	cached.put(t, productsCacheKey, stale)
	service.SetCache(cached)

	if err := service.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if remote.calls != 1 {
		t.Errorf("expected 1 remote fetch, got %d", remote.calls)
	}

	products, err := repo.FindAll()
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(products) != 5 {
		t.Fatalf("expected the remote catalog in the store, got %d products", len(products))
	}
	for _, p := range products {
		if p.ID == 99 {
			t.Error("expected the stale cached product to be gone")
		}
	}

	var stored []shop.Product
	found, err := cached.Get(context.Background(), productsCacheKey, &stored)
	if err != nil || !found {
		t.Fatalf("expected products cached after refresh, found=%v err=%v", found, err)
	}
	if len(stored) != 5 {
		t.Errorf("expected the refreshed catalog in the cache, got %d products", len(stored))
	}
}

func TestService_WarmUp(t *testing.T) {
	t.Run("seeds an empty store from the cache", func(t *testing.T) {
		remote := &fakeRemote{products: sampleProducts()}
		service, repo := startService(t, remote)

		cached := newFakeCache()
		cached.put(t, productsCacheKey, sampleProducts()[:2])
		service.SetCache(cached)

		service.WarmUp(context.Background())

		products, err := repo.FindAll()
		if err != nil {
			t.Fatalf("FindAll() error = %v", err)
		}
		if len(products) != 2 {
			t.Errorf("expected 2 warmed products, got %d", len(products))
		}
		if remote.calls != 0 {
			t.Errorf("expected no remote fetch during warm-up, got %d", remote.calls)
		}
	})

	t.Run("leaves a populated store alone", func(t *testing.T) {
		remote := &fakeRemote{products: sampleProducts()}
		service, repo := startService(t, remote)

		if err := repo.ReplaceAll(sampleProducts()); err != nil {
			t.Fatalf("ReplaceAll() error = %v", err)
		}

		cached := newFakeCache()
		cached.put(t, productsCacheKey, sampleProducts()[:1])
		service.SetCache(cached)

		service.WarmUp(context.Background())

		products, err := repo.FindAll()
		if err != nil {
			t.Fatalf("FindAll() error = %v", err)
		}
		if len(products) != 5 {
			t.Errorf("expected the existing catalog untouched, got %d products", len(products))
		}
	})
}

func TestService_SetCacheDuringRefresh(t *testing.T) {
	remote := &fakeRemote{products: sampleProducts()}
	service, _ := startService(t, remote)

	// Run under -race: wiring the cache must be safe while refreshes and
	// category lookups are in flight.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			_ = service.Refresh(context.Background())
			_, _ = service.Categories(context.Background())
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			service.SetCache(newFakeCache())
			service.SetCache(nil)
		}
	}()
	wg.Wait()
}

func TestService_FiltersAndSort(t *testing.T) {
	remote := &fakeRemote{products: sampleProducts()}
	service, _ := startService(t, remote)

	if err := service.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	waitFor(t, "catalog", func() bool {
		return len(service.State().Products) == 5
	})

	t.Run("search narrows and echoes", func(t *testing.T) {
		service.SetSearch("T-Shirt")
		state := service.State()
		if !equalIDs(ids(state.Products), 2, 5) {
			t.Errorf("expected products [2 5], got %v", ids(state.Products))
		}
		if state.Search != "T-Shirt" {
			t.Errorf("expected search echoed, got %q", state.Search)
		}
		service.SetSearch("")
	})

	t.Run("categories derive from the unfiltered catalog", func(t *testing.T) {
		service.SetSearch("no-such-product")
		state := service.State()
		if len(state.Products) != 0 {
			t.Errorf("expected no products, got %v", ids(state.Products))
		}
		if len(state.Categories) != 4 {
			t.Errorf("expected all 4 categories despite empty result, got %v", state.Categories)
		}
		service.SetSearch("")
	})

	t.Run("category toggle", func(t *testing.T) {
		service.ToggleCategory("jewelery")
		if !equalIDs(ids(service.State().Products), 3) {
			t.Errorf("expected product [3], got %v", ids(service.State().Products))
		}

		service.ToggleCategory("jewelery")
		if len(service.State().Products) != 5 {
			t.Errorf("expected toggle off to restore all products, got %v", ids(service.State().Products))
		}
	})

	t.Run("rating floor toggles off on reselect", func(t *testing.T) {
		service.SelectRating(4.1)
		state := service.State()
		if state.MinRating == nil || *state.MinRating != 4.1 {
			t.Fatalf("expected rating floor 4.1, got %v", state.MinRating)
		}
		if !equalIDs(ids(state.Products), 2, 3, 5) {
			t.Errorf("expected products [2 3 5], got %v", ids(state.Products))
		}

		service.SelectRating(4.1)
		state = service.State()
		if state.MinRating != nil {
			t.Errorf("expected rating floor cleared, got %v", *state.MinRating)
		}
		if len(state.Products) != 5 {
			t.Errorf("expected all products back, got %v", ids(state.Products))
		}
	})

	t.Run("sort applies after filtering", func(t *testing.T) {
		service.SetSearch("t-shirt")
		service.SetSort(SortPriceDesc)
		state := service.State()
		if !equalIDs(ids(state.Products), 2, 5) {
			t.Errorf("expected [2 5] by descending price, got %v", ids(state.Products))
		}
		service.SetSort(SortNone)
		service.SetSearch("")
	})
}

func TestService_Subscribe(t *testing.T) {
	remote := &fakeRemote{products: sampleProducts()}
	service, _ := startService(t, remote)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	states := service.Subscribe(ctx)

	if err := service.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case state := <-states:
			if len(state.Products) == 5 {
				return
			}
		case <-deadline:
			t.Fatal("expected a subscribed state carrying the catalog")
		}
	}
}

func TestService_ProductFallsBackToRemote(t *testing.T) {
	remote := &fakeRemote{products: sampleProducts()}
	service, repo := startService(t, remote)

	// Store only holds product 1; product 3 must come from the remote.
	if err := repo.ReplaceAll(sampleProducts()[:1]); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	local, err := service.Product(context.Background(), 1)
	if err != nil {
		t.Fatalf("Product(1) error = %v", err)
	}
	if local.ID != 1 {
		t.Errorf("expected product 1, got %d", local.ID)
	}

	fetched, err := service.Product(context.Background(), 3)
	if err != nil {
		t.Fatalf("Product(3) error = %v", err)
	}
	if fetched.ID != 3 {
		t.Errorf("expected product 3 from remote, got %d", fetched.ID)
	}
}

func TestService_Categories(t *testing.T) {
	remote := &fakeRemote{categories: []string{"electronics", "jewelery"}}
	service, _ := startService(t, remote)

	categories, err := service.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	if len(categories) != 2 || categories[0] != "electronics" {
		t.Errorf("unexpected categories: %v", categories)
	}
}
