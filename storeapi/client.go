// Package storeapi is the client for the remote fake-store API: the
// product catalog listing, the category list, and the login endpoint.
package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/domain/shop"
)

// DefaultBaseURL is the public fake-store API endpoint.
const DefaultBaseURL = "https://fakestoreapi.com"

var (
	// ErrNetwork is returned on transport-level failures.
	ErrNetwork = errors.New("network failure")
	// ErrDecode is returned when a response body cannot be decoded.
	ErrDecode = errors.New("malformed response")
	// ErrAuth is returned when the API rejects the credentials.
	ErrAuth = errors.New("authentication rejected")
)

// TokenSource supplies the bearer token for outbound requests. An empty
// token means no session is active and the header is omitted.
type TokenSource interface {
	Token() string
}

// Client talks to the remote store API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client against the given base URL. When tokens is
// non-nil every request carries its current token as a bearer header.
func NewClient(baseURL string, tokens TokenSource) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	transport := http.DefaultTransport
	if tokens != nil {
		transport = &bearerTransport{tokens: tokens, base: transport}
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// bearerTransport attaches the current session token to every request.
type bearerTransport struct {
	tokens TokenSource
	base   http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := t.tokens.Token(); token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return t.base.RoundTrip(req)
}

// FetchAllProducts retrieves the full product list.
func (c *Client) FetchAllProducts(ctx context.Context) ([]shop.Product, error) {
	var products []shop.Product
	if err := c.getJSON(ctx, "/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// FetchProduct retrieves a single product by id.
func (c *Client) FetchProduct(ctx context.Context, id int64) (*shop.Product, error) {
	var product shop.Product
	if err := c.getJSON(ctx, fmt.Sprintf("/products/%d", id), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// FetchCategories retrieves the category list.
func (c *Client) FetchCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.getJSON(ctx, "/products/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for an API token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", ErrAuth
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", ErrNetwork, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	var token tokenResponse
	if err := json.Unmarshal(data, &token); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if token.Token == "" {
		return "", fmt.Errorf("%w: empty token", ErrDecode)
	}
	return token.Token, nil
}

// getJSON performs a GET request and decodes the JSON response into dest.
func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrAuth
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrNetwork, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}
