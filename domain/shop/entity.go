// Package shop defines the persisted entities shared across modules.
package shop

// Table names used for invalidation tracking.
const (
	ProductsTable  = "products"
	CartItemsTable = "cart_items"
)

// Rating is the aggregate customer rating of a product.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product is one catalog row. The catalog is replaced wholesale on each
// successful refresh; Position records the order products arrived in so
// reads can preserve it.
type Product struct {
	ID          int64   `gorm:"primarykey;autoIncrement:false" json:"id"`
	Title       string  `gorm:"size:255;not null" json:"title"`
	Price       float64 `gorm:"not null" json:"price"`
	Description string  `gorm:"size:2000" json:"description"`
	Category    string  `gorm:"size:100;index" json:"category"`
	ImageURL    string  `gorm:"size:500" json:"image"`
	Rating      Rating  `gorm:"embedded;embeddedPrefix:rating_" json:"rating"`
	Position    int     `gorm:"not null;default:0" json:"-"`
}

// TableName returns the table name for Product model.
func (Product) TableName() string {
	return ProductsTable
}

// CartItem is one cart line: a product reference and a quantity.
// The product reference is intentionally non-enforcing; removing a
// product from the catalog must not cascade into the cart.
type CartItem struct {
	ID        int64 `gorm:"primarykey" json:"id"`
	ProductID int64 `gorm:"not null;index" json:"product_id"`
	Quantity  int   `gorm:"not null" json:"quantity"`
}

// TableName returns the table name for CartItem model.
func (CartItem) TableName() string {
	return CartItemsTable
}

// CartWithProduct is the read-only view of a cart line joined with its
// product. Product is nil when the product is no longer in the catalog.
type CartWithProduct struct {
	Item    CartItem `json:"item"`
	Product *Product `json:"product,omitempty"`
}
