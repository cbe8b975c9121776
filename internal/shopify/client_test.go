package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStorefrontProductsNotConfigured(t *testing.T) {
	c := NewClient("", "", "", "2024-01")
	if _, err := c.StorefrontProducts(context.Background(), 10); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("got %v, want ErrNotConfigured", err)
	}
}

func TestCreateOrderNotConfigured(t *testing.T) {
	c := NewClient("shop.example.com", "sf-token", "", "2024-01")
	if _, err := c.CreateOrder(context.Background(), OrderInput{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("got %v, want ErrNotConfigured", err)
	}
}

func TestStorefrontProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Shopify-Storefront-Access-Token"); got != "sf-token" {
			t.Errorf("missing storefront token, got %q", got)
		}
		var body struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if body.Variables["first"] != float64(2) {
			t.Errorf("got first=%v, want 2", body.Variables["first"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"products": {"edges": [
			{"node": {"id": "1", "title": "KraftView™ Pouch", "handle": "kv"}},
			{"node": {"id": "2", "title": "FullAlu™ Pouch", "handle": "fa"}}
		]}}}`))
	}))
	defer srv.Close()

	c := NewClientWithURLs(srv.URL, "", "sf-token", "")
	products, err := c.StorefrontProducts(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 || products[0].Title != "KraftView™ Pouch" {
		t.Fatalf("unexpected products: %+v", products)
	}
}

func TestStorefrontGraphQLErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors": [{"message": "field does not exist"}]}`))
	}))
	defer srv.Close()

	c := NewClientWithURLs(srv.URL, "", "sf-token", "")
	if _, err := c.StorefrontProducts(context.Background(), 1); err == nil {
		t.Fatal("expected a graphql error")
	}
}

func TestAdminProductsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("throttled"))
	}))
	defer srv.Close()

	c := NewClientWithURLs("", srv.URL, "", "admin-token")
	_, err := c.AdminProducts(context.Background())

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("got %v, want UpstreamError", err)
	}
	if upstream.StatusCode != http.StatusTooManyRequests || upstream.Body != "throttled" {
		t.Fatalf("unexpected upstream error: %+v", upstream)
	}
}

func TestAdminProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Shopify-Access-Token"); got != "admin-token" {
			t.Errorf("missing admin token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"products": [{"id": 7, "title": "WhiteView™ Pouch", "handle": "wv", "tags": "white"}]}`))
	}))
	defer srv.Close()

	c := NewClientWithURLs("", srv.URL, "", "admin-token")
	products, err := c.AdminProducts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 1 || products[0].ID != "7" {
		t.Fatalf("unexpected products: %+v", products)
	}
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders.json" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var payload struct {
			Order struct {
				Email     string                   `json:"email"`
				LineItems []map[string]interface{} `json:"line_items"`
			} `json:"order"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decoding order: %v", err)
		}
		if payload.Order.Email != "buyer@example.com" || len(payload.Order.LineItems) != 1 {
			t.Errorf("unexpected payload: %+v", payload.Order)
		}

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"order": {"id": 99, "name": "#1042", "processed_at": "2024-05-01T10:00:00Z", "total_price": "12.00", "currency": "TND"}}`))
	}))
	defer srv.Close()

	c := NewClientWithURLs("", srv.URL, "", "admin-token")
	result, err := c.CreateOrder(context.Background(), OrderInput{
		Email: "buyer@example.com",
		Items: []OrderInputItem{{Title: "KraftView™ Pouch", Price: "12.00", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OrderNumber != "#1042" || result.ID != 99 || result.TotalPrice != "12.00" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCreateOrderUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"errors": "line_items required"}`))
	}))
	defer srv.Close()

	c := NewClientWithURLs("", srv.URL, "", "admin-token")
	_, err := c.CreateOrder(context.Background(), OrderInput{Email: "x@example.com"})

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("got %v, want UpstreamError", err)
	}
	if upstream.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("got status %d, want 422", upstream.StatusCode)
	}
}
