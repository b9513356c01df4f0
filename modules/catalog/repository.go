package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/domain/shop"
	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/watch"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a product is not found.
var ErrNotFound = errors.New("product not found")

// Repository is the catalog store: the sole owner of the products table.
type Repository struct {
	db      *gorm.DB
	tracker *watch.Tracker
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB, tracker *watch.Tracker) *Repository {
	return &Repository{db: db, tracker: tracker}
}

// Migrate creates or updates the products table.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&shop.Product{})
}

// ReplaceAll atomically swaps the whole catalog for the given set.
// Readers observe either the old set or the new set, never a partial
// state. The incoming order is preserved for subsequent reads.
func (r *Repository) ReplaceAll(products []shop.Product) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM products").Error; err != nil {
			return fmt.Errorf("failed to clear products: %w", err)
		}
		if len(products) == 0 {
			return nil
		}
		rows := make([]shop.Product, len(products))
		copy(rows, products)
		for i := range rows {
			rows[i].Position = i
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert products: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.tracker.Notify(shop.ProductsTable)
	return nil
}

// FindAll returns a point-in-time snapshot of the catalog in insertion
// order.
func (r *Repository) FindAll() ([]shop.Product, error) {
	products := make([]shop.Product, 0)
	if err := r.db.Order("position").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return products, nil
}

// FindByID retrieves a product by its id.
func (r *Repository) FindByID(id int64) (*shop.Product, error) {
	var product shop.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

// ObserveAll returns a live view of the catalog: the current snapshot
// first, then a fresh snapshot after every committed change to the
// products table. Delivery is latest-wins; the channel closes when ctx
// is cancelled.
func (r *Repository) ObserveAll(ctx context.Context) <-chan []shop.Product {
	out := make(chan []shop.Product, 1)
	signal := r.tracker.Subscribe(ctx, shop.ProductsTable)

	go func() {
		defer close(out)
		for {
			products, err := r.FindAll()
			if err != nil {
				log.Printf("[catalog] observe query failed: %v", err)
			} else {
				watch.Push(out, products)
			}

			select {
			case <-ctx.Done():
				return
			case _, ok := <-signal:
				if !ok {
					return
				}
			}
		}
	}()

	return out
}
