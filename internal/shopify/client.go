package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotConfigured is returned when the credentials for the requested API
// variant are absent; handlers map it to 503.
var ErrNotConfigured = errors.New("commerce platform credentials not configured")

// UpstreamError carries the status and body text of a non-200 reply so
// handlers can propagate both.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
}

// Client talks to the hosted commerce platform. The storefront token
// drives the GraphQL API, the admin token the REST API; either may be
// absent, disabling that half.
type Client struct {
	domain          string
	storefrontToken string
	adminToken      string
	apiVersion      string
	http            *http.Client

	// overridable in tests
	storefrontURL string
	adminURL      string
}

func NewClient(domain, storefrontToken, adminToken, apiVersion string) *Client {
	c := &Client{
		domain:          domain,
		storefrontToken: storefrontToken,
		adminToken:      adminToken,
		apiVersion:      apiVersion,
		http:            &http.Client{Timeout: 15 * time.Second},
	}
	if domain != "" {
		c.storefrontURL = fmt.Sprintf("https://%s/api/%s/graphql.json", domain, apiVersion)
		c.adminURL = fmt.Sprintf("https://%s/admin/api/%s", domain, apiVersion)
	}
	return c
}

// NewClientWithURLs is used by tests to point the client at local servers.
func NewClientWithURLs(storefrontURL, adminURL, storefrontToken, adminToken string) *Client {
	return &Client{
		storefrontToken: storefrontToken,
		adminToken:      adminToken,
		http:            &http.Client{Timeout: 15 * time.Second},
		storefrontURL:   storefrontURL,
		adminURL:        adminURL,
	}
}

func (c *Client) StorefrontConfigured() bool {
	return c.storefrontURL != "" && c.storefrontToken != ""
}

func (c *Client) AdminConfigured() bool {
	return c.adminURL != "" && c.adminToken != ""
}

// graphql posts a storefront query and decodes the "data" envelope into out.
func (c *Client) graphql(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	if !c.StorefrontConfigured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(map[string]interface{}{"query": query, "variables": variables})
	if err != nil {
		return fmt.Errorf("encoding graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.storefrontURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Storefront-Access-Token", c.storefrontToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling storefront api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(text)}
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding graphql response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("graphql error: %s", envelope.Errors[0].Message)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decoding graphql data: %w", err)
	}
	return nil
}

// adminGet performs a GET against the admin REST API and decodes into out.
func (c *Client) adminGet(ctx context.Context, path string, out interface{}) error {
	if !c.AdminConfigured() {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.adminURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating admin request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.adminToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling admin api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(text)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding admin response: %w", err)
	}
	return nil
}

const productsQuery = `
query Products($first: Int!) {
  products(first: $first) {
    edges {
      node {
        id
        title
        handle
        description
        productType
        tags
        priceRange {
          minVariantPrice { amount currencyCode }
          maxVariantPrice { amount currencyCode }
        }
        images(first: 10) { edges { node { url altText } } }
        variants(first: 20) { edges { node { id title availableForSale price { amount } } } }
      }
    }
  }
}`

const collectionQuery = `
query CollectionByHandle($handle: String!, $first: Int!) {
  collection(handle: $handle) {
    id
    title
    handle
    description
    products(first: $first) {
      edges {
        node {
          id
          title
          handle
          description
          productType
          tags
          priceRange {
            minVariantPrice { amount currencyCode }
            maxVariantPrice { amount currencyCode }
          }
          images(first: 10) { edges { node { url altText } } }
          variants(first: 20) { edges { node { id title availableForSale price { amount } } } }
        }
      }
    }
  }
}`

// StorefrontProducts lists products via the storefront GraphQL API.
func (c *Client) StorefrontProducts(ctx context.Context, first int) ([]Product, error) {
	var data struct {
		Products gqlProductConnection `json:"products"`
	}
	if err := c.graphql(ctx, productsQuery, map[string]interface{}{"first": first}, &data); err != nil {
		return nil, err
	}
	return normalizeGraphQLProducts(data.Products), nil
}

// StorefrontCollection fetches a collection and its products by handle.
func (c *Client) StorefrontCollection(ctx context.Context, handle string, first int) (Collection, []Product, error) {
	var data struct {
		Collection *struct {
			ID          string               `json:"id"`
			Title       string               `json:"title"`
			Handle      string               `json:"handle"`
			Description string               `json:"description"`
			Products    gqlProductConnection `json:"products"`
		} `json:"collection"`
	}
	if err := c.graphql(ctx, collectionQuery, map[string]interface{}{"handle": handle, "first": first}, &data); err != nil {
		return Collection{}, nil, err
	}
	if data.Collection == nil {
		return Collection{}, nil, fmt.Errorf("collection %q not found", handle)
	}
	col := Collection{
		ID:          data.Collection.ID,
		Title:       data.Collection.Title,
		Handle:      data.Collection.Handle,
		Description: data.Collection.Description,
	}
	return col, normalizeGraphQLProducts(data.Collection.Products), nil
}

// AdminProducts lists products via the admin REST API.
func (c *Client) AdminProducts(ctx context.Context) ([]Product, error) {
	var data struct {
		Products []restProduct `json:"products"`
	}
	if err := c.adminGet(ctx, "/products.json?limit=250", &data); err != nil {
		return nil, err
	}
	return normalizeRESTProducts(data.Products), nil
}

// CreateOrder places an order upstream through the admin REST API.
func (c *Client) CreateOrder(ctx context.Context, in OrderInput) (*OrderResult, error) {
	if !c.AdminConfigured() {
		return nil, ErrNotConfigured
	}

	lineItems := make([]map[string]interface{}, 0, len(in.Items))
	for _, it := range in.Items {
		li := map[string]interface{}{
			"title":    it.Title,
			"price":    it.Price,
			"quantity": it.Quantity,
		}
		if it.VariantID != "" {
			li["variant_id"] = it.VariantID
		}
		lineItems = append(lineItems, li)
	}

	payload := map[string]interface{}{
		"order": map[string]interface{}{
			"email":      in.Email,
			"line_items": lineItems,
			"shipping_address": map[string]interface{}{
				"first_name": in.FirstName,
				"last_name":  in.LastName,
				"phone":      in.Phone,
				"address1":   in.Address,
				"city":       in.City,
				"country":    in.Country,
				"zip":        in.Zip,
			},
			"financial_status": "pending",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.adminURL+"/orders.json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.adminToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling admin api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(text)}
	}

	var out struct {
		Order struct {
			ID          int64       `json:"id"`
			Name        string      `json:"name"`
			OrderNumber json.Number `json:"order_number"`
			ProcessedAt string      `json:"processed_at"`
			TotalPrice  string      `json:"total_price"`
			Currency    string      `json:"currency"`
		} `json:"order"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding order response: %w", err)
	}

	number := out.Order.Name
	if number == "" {
		number = out.Order.OrderNumber.String()
	}
	return &OrderResult{
		ID:          out.Order.ID,
		OrderNumber: number,
		ProcessedAt: out.Order.ProcessedAt,
		TotalPrice:  out.Order.TotalPrice,
		Currency:    out.Order.Currency,
	}, nil
}
