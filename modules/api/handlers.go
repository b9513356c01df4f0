package api

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/modules/auth"
	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/modules/cart"
	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/modules/catalog"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	authContainer    mono.ServiceContainer
	catalogContainer mono.ServiceContainer
	cartContainer    mono.ServiceContainer
	authAdapter      auth.AuthPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authContainer, catalogContainer, cartContainer mono.ServiceContainer, authAdapter auth.AuthPort) *Handlers {
	return &Handlers{
		authContainer:    authContainer,
		catalogContainer: catalogContainer,
		cartContainer:    cartContainer,
		authAdapter:      authAdapter,
	}
}

// Login handles user login (POST /api/v1/auth/login).
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Username and password are required",
		})
	}

	authReq := auth.LoginRequest{
		Username: req.Username,
		Password: req.Password,
	}
	var resp auth.LoginResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.authContainer,
		"login",
		json.Marshal,
		json.Unmarshal,
		&authReq,
		&resp,
	); err != nil {
		return h.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse{
		AccessToken: resp.AccessToken,
		ExpiresIn:   resp.ExpiresIn,
		TokenType:   resp.TokenType,
		Username:    resp.Username,
	})
}

// Logout handles user logout (POST /api/v1/auth/logout).
func (h *Handlers) Logout(c *fiber.Ctx) error {
	var req auth.LogoutRequest
	var resp auth.LogoutResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.authContainer,
		"logout",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return h.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// Session handles the current-session lookup (GET /api/v1/auth/session).
func (h *Handlers) Session(c *fiber.Ctx) error {
	var req auth.SessionRequest
	var resp auth.SessionResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.authContainer,
		"session",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return h.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// Catalog returns the current catalog state (GET /api/v1/catalog).
func (h *Handlers) Catalog(c *fiber.Ctx) error {
	var req catalog.StateRequest
	var resp catalog.StateResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.catalogContainer,
		"state",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return h.internalError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// SetFilters updates the catalog query parameters and returns the new
// state (PUT /api/v1/catalog/filters).
func (h *Handlers) SetFilters(c *fiber.Ctx) error {
	var req FiltersRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	catalogReq := catalog.SetFiltersRequest{
		Search:      req.Search,
		Categories:  req.Categories,
		MinRating:   req.MinRating,
		ClearRating: req.ClearRating,
		Sort:        req.Sort,
	}
	var resp catalog.StateResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.catalogContainer,
		"set-filters",
		json.Marshal,
		json.Unmarshal,
		&catalogReq,
		&resp,
	); err != nil {
		if strings.Contains(err.Error(), "unknown sort option") {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "bad_request",
				Message: "Unknown sort option",
			})
		}
		return h.internalError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// Refresh triggers a catalog refresh from the remote source
// (POST /api/v1/catalog/refresh). A failed refresh returns 200 with the
// error recorded in the body; the previous catalog stays in place.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req catalog.RefreshRequest
	var resp catalog.RefreshResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.catalogContainer,
		"refresh",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return h.internalError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// Product returns a single product (GET /api/v1/catalog/products/:id).
func (h *Handlers) Product(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Product ID must be a positive integer",
		})
	}

	req := catalog.GetProductRequest{ID: int64(id)}
	var resp catalog.GetProductResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.catalogContainer,
		"get-product",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Error:   "not_found",
				Message: "Product not found",
			})
		}
		return h.internalError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// Categories returns the remote category list
// (GET /api/v1/catalog/categories).
func (h *Handlers) Categories(c *fiber.Ctx) error {
	var req catalog.CategoriesRequest
	var resp catalog.CategoriesResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.catalogContainer,
		"categories",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return h.internalError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// Cart returns the joined cart and total (GET /api/v1/cart).
func (h *Handlers) Cart(c *fiber.Ctx) error {
	var req cart.GetCartRequest
	var resp cart.GetCartResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.cartContainer,
		"get",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return h.internalError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// AddItem adds a product to the cart or increments its line
// (POST /api/v1/cart/items).
func (h *Handlers) AddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request body",
		})
	}

	if req.ProductID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "product_id is required",
		})
	}

	cartReq := cart.AddRequest{ProductID: req.ProductID}
	var resp cart.AddResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.cartContainer,
		"add",
		json.Marshal,
		json.Unmarshal,
		&cartReq,
		&resp,
	); err != nil {
		return h.internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// DecrementItem decrements a cart line, removing it at quantity 1
// (POST /api/v1/cart/items/:id/decrement).
func (h *Handlers) DecrementItem(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Item ID must be a positive integer",
		})
	}

	req := cart.DecrementRequest{ID: int64(id)}
	var resp cart.DecrementResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.cartContainer,
		"decrement",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return h.internalError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// RemoveItem removes a cart line unconditionally
// (DELETE /api/v1/cart/items/:id).
func (h *Handlers) RemoveItem(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: "Item ID must be a positive integer",
		})
	}

	req := cart.RemoveRequest{ID: int64(id)}
	var resp cart.RemoveResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.cartContainer,
		"remove",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return h.internalError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// ClearCart empties the cart (DELETE /api/v1/cart).
func (h *Handlers) ClearCart(c *fiber.Ctx) error {
	var req cart.ClearRequest
	var resp cart.ClearResponse

	if err := helper.CallRequestReplyService(
		c.UserContext(),
		h.cartContainer,
		"clear",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return h.internalError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// handleAuthError maps auth service errors to HTTP responses without
// exposing internals.
func (h *Handlers) handleAuthError(c *fiber.Ctx, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "invalid username or password"):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid username or password",
		})
	case strings.Contains(errStr, "network failure"):
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error:   "unavailable",
			Message: "Remote store is unreachable and no cached credentials match",
		})
	case strings.Contains(errStr, "not logged in"):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "No active session",
		})
	default:
		log.Printf("[api] Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

func (h *Handlers) internalError(c *fiber.Ctx, err error) error {
	log.Printf("[api] Internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
