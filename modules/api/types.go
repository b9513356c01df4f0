package api

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// LoginRequest is the HTTP login request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned after a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

// FiltersRequest updates the catalog query parameters. Absent fields
// leave the corresponding parameter unchanged.
type FiltersRequest struct {
	Search      *string   `json:"search,omitempty"`
	Categories  *[]string `json:"categories,omitempty"`
	MinRating   *float64  `json:"min_rating,omitempty"`
	ClearRating bool      `json:"clear_rating,omitempty"`
	Sort        *string   `json:"sort,omitempty"`
}

// AddItemRequest adds a product to the cart.
type AddItemRequest struct {
	ProductID int64 `json:"product_id"`
}
