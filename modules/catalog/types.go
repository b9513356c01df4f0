package catalog

import "github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/domain/shop"

// StateRequest is the request for the current catalog state.
type StateRequest struct{}

// StateResponse is the catalog state bundle returned to callers.
type StateResponse struct {
	Products           []shop.Product `json:"products"`
	Categories         []string       `json:"categories"`
	Search             string         `json:"search"`
	SelectedCategories []string       `json:"selected_categories"`
	MinRating          *float64       `json:"min_rating,omitempty"`
	Sort               string         `json:"sort"`
	Loading            bool           `json:"loading"`
	Error              string         `json:"error,omitempty"`
}

// RefreshRequest is the request to refresh the catalog from the remote
// source.
type RefreshRequest struct{}

// RefreshResponse reports the outcome of a refresh. A failed refresh is
// a normal outcome, not a service error: the previous catalog stays in
// place and Error carries the message.
type RefreshResponse struct {
	Refreshed bool   `json:"refreshed"`
	Error     string `json:"error,omitempty"`
}

// SetFiltersRequest updates filter parameters. Nil fields are left
// unchanged; ClearRating drops the rating floor.
type SetFiltersRequest struct {
	Search      *string   `json:"search,omitempty"`
	Categories  *[]string `json:"categories,omitempty"`
	MinRating   *float64  `json:"min_rating,omitempty"`
	ClearRating bool      `json:"clear_rating,omitempty"`
	Sort        *string   `json:"sort,omitempty"`
}

// GetProductRequest is the request for a single product.
type GetProductRequest struct {
	ID int64 `json:"id"`
}

// GetProductResponse carries one product.
type GetProductResponse struct {
	Product shop.Product `json:"product"`
}

// CategoriesRequest is the request for the remote category list.
type CategoriesRequest struct{}

// CategoriesResponse carries the remote category list.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}
