package cart

import "github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/domain/shop"

// GetCartRequest is the request for the current cart state.
type GetCartRequest struct{}

// GetCartResponse is the joined cart plus the running total.
type GetCartResponse struct {
	Items      []shop.CartWithProduct `json:"items"`
	TotalPrice float64                `json:"total_price"`
}

// AddRequest adds a product to the cart (or increments its line).
type AddRequest struct {
	ProductID int64 `json:"product_id"`
}

// AddResponse acknowledges an add.
type AddResponse struct {
	Added bool `json:"added"`
}

// DecrementRequest decrements a cart line (or removes it at quantity 1).
type DecrementRequest struct {
	ID int64 `json:"id"`
}

// DecrementResponse acknowledges a decrement.
type DecrementResponse struct {
	Done bool `json:"done"`
}

// RemoveRequest removes a cart line unconditionally.
type RemoveRequest struct {
	ID int64 `json:"id"`
}

// RemoveResponse acknowledges a removal.
type RemoveResponse struct {
	Removed bool `json:"removed"`
}

// ClearRequest empties the cart.
type ClearRequest struct{}

// ClearResponse acknowledges a clear.
type ClearResponse struct {
	Cleared bool `json:"cleared"`
}
