package cart

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/domain/shop"
	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/watch"
	"gorm.io/gorm"
)

// Repository is the cart store: the sole owner of the cart_items table.
// Every compound operation runs inside a transaction so concurrent
// callers never observe or produce an intermediate state.
type Repository struct {
	db      *gorm.DB
	tracker *watch.Tracker
}

// NewRepository creates a new cart repository.
func NewRepository(db *gorm.DB, tracker *watch.Tracker) *Repository {
	return &Repository{db: db, tracker: tracker}
}

// Migrate creates or updates the cart_items table.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&shop.CartItem{})
}

// AddOrIncrement increments the quantity of the line holding productID,
// inserting a fresh line with quantity 1 when none exists. The
// read-then-write pair is a single transaction: two concurrent adds for
// the same product can never both create a line.
func (r *Repository) AddOrIncrement(productID int64) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var item shop.CartItem
		err := tx.First(&item, "product_id = ?", productID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			item = shop.CartItem{ProductID: productID, Quantity: 1}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("failed to insert cart line: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up cart line: %w", err)
		}

		if err := tx.Model(&shop.CartItem{}).Where("id = ?", item.ID).
			Update("quantity", item.Quantity+1).Error; err != nil {
			return fmt.Errorf("failed to increment cart line: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.tracker.Notify(shop.CartItemsTable)
	return nil
}

// DecrementOrRemove decrements the line's quantity, deleting the line
// when the quantity would reach zero. A line that no longer exists is a
// no-op: a concurrent decrement/delete race must not fail.
func (r *Repository) DecrementOrRemove(line shop.CartItem) error {
	changed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var current shop.CartItem
		err := tx.First(&current, "id = ?", line.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up cart line: %w", err)
		}

		if current.Quantity > 1 {
			if err := tx.Model(&shop.CartItem{}).Where("id = ?", current.ID).
				Update("quantity", current.Quantity-1).Error; err != nil {
				return fmt.Errorf("failed to decrement cart line: %w", err)
			}
		} else {
			if err := tx.Delete(&shop.CartItem{}, "id = ?", current.ID).Error; err != nil {
				return fmt.Errorf("failed to delete cart line: %w", err)
			}
		}
		changed = true
		return nil
	})
	if err != nil {
		return err
	}

	if changed {
		r.tracker.Notify(shop.CartItemsTable)
	}
	return nil
}

// DeleteLine removes a line unconditionally. Deleting a missing line is
// a no-op.
func (r *Repository) DeleteLine(line shop.CartItem) error {
	result := r.db.Delete(&shop.CartItem{}, "id = ?", line.ID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete cart line: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		r.tracker.Notify(shop.CartItemsTable)
	}
	return nil
}

// Clear deletes every cart line.
func (r *Repository) Clear() error {
	if err := r.db.Exec("DELETE FROM cart_items").Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	r.tracker.Notify(shop.CartItemsTable)
	return nil
}

// CartWithProducts returns every cart line joined with its product, in
// insertion order. Both reads share one transaction so the join is a
// consistent snapshot. Lines whose product left the catalog keep a nil
// Product.
func (r *Repository) CartWithProducts() ([]shop.CartWithProduct, error) {
	var result []shop.CartWithProduct
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var items []shop.CartItem
		if err := tx.Order("id").Find(&items).Error; err != nil {
			return fmt.Errorf("failed to find cart lines: %w", err)
		}

		result = make([]shop.CartWithProduct, 0, len(items))
		if len(items) == 0 {
			return nil
		}

		ids := make([]int64, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ProductID)
		}
		var products []shop.Product
		if err := tx.Find(&products, "id IN ?", ids).Error; err != nil {
			return fmt.Errorf("failed to find cart products: %w", err)
		}
		byID := make(map[int64]shop.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		for _, item := range items {
			entry := shop.CartWithProduct{Item: item}
			if p, ok := byID[item.ProductID]; ok {
				product := p
				entry.Product = &product
			}
			result = append(result, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TotalPrice returns the sum of price times quantity over the cart join.
// An empty cart totals 0.0.
func (r *Repository) TotalPrice() (float64, error) {
	var total float64
	err := r.db.Raw(
		"SELECT COALESCE(SUM(p.price * c.quantity), 0) FROM cart_items c INNER JOIN products p ON p.id = c.product_id",
	).Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute cart total: %w", err)
	}
	return total, nil
}

// ObserveCartWithProducts returns a live view of the joined cart: the
// current snapshot first, then a fresh snapshot after every committed
// change to the cart or the catalog. Latest-wins delivery; the channel
// closes when ctx is cancelled.
func (r *Repository) ObserveCartWithProducts(ctx context.Context) <-chan []shop.CartWithProduct {
	out := make(chan []shop.CartWithProduct, 1)
	signal := r.tracker.Subscribe(ctx, shop.CartItemsTable, shop.ProductsTable)

	go func() {
		defer close(out)
		for {
			items, err := r.CartWithProducts()
			if err != nil {
				log.Printf("[cart] observe query failed: %v", err)
			} else {
				watch.Push(out, items)
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

// ObserveTotalPrice returns a live total over the cart join, recomputed
// after every committed change to the cart or the catalog.
func (r *Repository) ObserveTotalPrice(ctx context.Context) <-chan float64 {
	out := make(chan float64, 1)
	signal := r.tracker.Subscribe(ctx, shop.CartItemsTable, shop.ProductsTable)

	go func() {
		defer close(out)
		for {
			total, err := r.TotalPrice()
			if err != nil {
				log.Printf("[cart] total query failed: %v", err)
			} else {
				watch.Push(out, total)
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
