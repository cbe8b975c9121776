package handlers

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"packstore/internal/auth"
	"packstore/internal/blog"
	"packstore/internal/config"
	"packstore/internal/orders"
	"packstore/internal/printservice"
	"packstore/internal/quotes"
	"packstore/internal/shopify"
	"packstore/internal/users"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

func doJSON(t *testing.T, e *env, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
}

func TestHealthCheck(t *testing.T) {
	e := newEnv(t)
	w := doJSON(t, e, http.MethodGet, "/ping", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)

	t.Run("missing password", func(t *testing.T) {
		w := doJSON(t, e, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name": "A", "email": "a@example.com",
		})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want 400", w.Code)
		}
		if len(e.users.inserted) != 0 {
			t.Fatal("rejected request must not reach the store")
		}
	})

	t.Run("bad email", func(t *testing.T) {
		w := doJSON(t, e, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name": "A", "email": "not-an-email", "password": "longenough",
		})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want 400", w.Code)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		e := newEnv(t)
		e.users.insertErr = users.ErrEmailTaken
		w := doJSON(t, e, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name": "A", "email": "a@example.com", "password": "longenough",
		})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want 400", w.Code)
		}
	})

	t.Run("success returns token", func(t *testing.T) {
		w := doJSON(t, e, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name": "A", "email": "a@example.com", "password": "longenough",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("got status %d: %s", w.Code, w.Body.String())
		}
		var resp struct {
			Token string `json:"token"`
		}
		decode(t, w, &resp)
		if resp.Token == "" {
			t.Fatal("expected a session token")
		}
		if _, err := e.keys.ParseToken(resp.Token); err != nil {
			t.Fatalf("issued token does not verify: %v", err)
		}
	})
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	e := newEnv(t)

	t.Run("no token", func(t *testing.T) {
		w := doJSON(t, e, http.MethodDelete, "/api/admin/users/u-9", "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d, want 401", w.Code)
		}
		if len(e.users.deleted) != 0 {
			t.Fatal("unauthorized request must not mutate")
		}
	})

	t.Run("user role", func(t *testing.T) {
		w := doJSON(t, e, http.MethodDelete, "/api/admin/users/u-9", e.token(t, auth.RoleUser), nil)
		if w.Code != http.StatusForbidden {
			t.Fatalf("got status %d, want 403", w.Code)
		}
		if len(e.users.deleted) != 0 {
			t.Fatal("forbidden request must not mutate")
		}
	})

	t.Run("admin role cannot delete users", func(t *testing.T) {
		w := doJSON(t, e, http.MethodDelete, "/api/admin/users/u-9", e.token(t, auth.RoleAdmin), nil)
		if w.Code != http.StatusForbidden {
			t.Fatalf("got status %d, want 403", w.Code)
		}
	})

	t.Run("super admin deletes", func(t *testing.T) {
		w := doJSON(t, e, http.MethodDelete, "/api/admin/users/u-9", e.token(t, auth.RoleSuperAdmin), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("got status %d: %s", w.Code, w.Body.String())
		}
		if len(e.users.deleted) != 1 || e.users.deleted[0] != "u-9" {
			t.Fatalf("unexpected deletions: %v", e.users.deleted)
		}
	})
}

func TestAdminListUsersPagination(t *testing.T) {
	e := newEnv(t)
	e.users.list = []users.User{{ID: "1"}, {ID: "2"}, {ID: "3"}}
	e.users.total = 25

	w := doJSON(t, e, http.MethodGet, "/api/admin/users?page=2&limit=10", e.token(t, auth.RoleAdmin), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Items      []users.User `json:"items"`
		Pagination struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
			Total int `json:"total"`
			Pages int `json:"pages"`
		} `json:"pagination"`
	}
	decode(t, w, &resp)

	if len(resp.Items) != 3 {
		t.Errorf("got %d items, want 3", len(resp.Items))
	}
	p := resp.Pagination
	if p.Page != 2 || p.Limit != 10 || p.Total != 25 || p.Pages != 3 {
		t.Errorf("unexpected pagination: %+v", p)
	}
}

func TestProductsUnavailableWithoutCredentials(t *testing.T) {
	e := newEnv(t)
	e.shop.configured = false

	for _, path := range []string{"/api/products", "/api/collections/kraftview", "/api/organized-collection"} {
		w := doJSON(t, e, http.MethodGet, path, "", nil)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: got status %d, want 503", path, w.Code)
		}
	}
}

func TestOrganizedCollectionHandleFilter(t *testing.T) {
	e := newEnv(t)
	e.shop.products = []shopify.Product{
		{ID: "1", Title: "KraftView™ Large"},
		{ID: "2", Title: "KraftView™ Small"},
		{ID: "3", Title: "WhiteView™ Small"},
	}

	type group struct {
		Handle   string            `json:"handle"`
		Products []shopify.Product `json:"products"`
		Count    int               `json:"count"`
	}
	var resp struct {
		Collections []group `json:"collections"`
	}

	t.Run("handle narrows to one collection", func(t *testing.T) {
		w := doJSON(t, e, http.MethodGet, "/api/organized-collection?handle=kraftview", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("got status %d: %s", w.Code, w.Body.String())
		}
		decode(t, w, &resp)
		if len(resp.Collections) != 1 {
			t.Fatalf("got %d collections, want 1", len(resp.Collections))
		}
		g := resp.Collections[0]
		if g.Handle != "kraftview" || g.Count != 2 {
			t.Fatalf("unexpected group: %+v", g)
		}
		for _, p := range g.Products {
			if !strings.Contains(p.Title, "KraftView™") {
				t.Errorf("product %q does not belong in kraftview", p.Title)
			}
		}
		if strings.Contains(w.Body.String(), "WhiteView™ Small") {
			t.Error("response must exclude products from other collections")
		}
	})

	t.Run("unknown handle", func(t *testing.T) {
		w := doJSON(t, e, http.MethodGet, "/api/organized-collection?handle=nope", "", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("got status %d, want 404", w.Code)
		}
	})

	t.Run("no handle returns every group", func(t *testing.T) {
		w := doJSON(t, e, http.MethodGet, "/api/organized-collection", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("got status %d: %s", w.Code, w.Body.String())
		}
		decode(t, w, &resp)
		if len(resp.Collections) != len(shopify.Rules()) {
			t.Fatalf("got %d collections, want %d", len(resp.Collections), len(shopify.Rules()))
		}
	})
}

func TestCheckout(t *testing.T) {
	e := newEnv(t)
	e.shop.orderResult = &shopify.OrderResult{
		ID: 99, OrderNumber: "#1042", ProcessedAt: "2024-05-01T10:00:00Z",
		TotalPrice: "35.00", Currency: "TND",
	}

	payload := map[string]interface{}{
		"first_name": "Amira",
		"last_name":  "B",
		"email":      "amira@example.com",
		"address":    "5 Rue X",
		"city":       "Tunis",
		"country":    "TN",
		"shipping":   500,
		"items": []map[string]interface{}{
			{"variant_id": "v1", "title": "KraftView™ Pouch", "price": "15.00", "quantity": 2},
		},
	}

	w := doJSON(t, e, http.MethodPost, "/api/checkout", "", payload)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", w.Code, w.Body.String())
	}

	if e.shop.orderInput == nil || len(e.shop.orderInput.Items) != 1 {
		t.Fatalf("upstream order not created: %+v", e.shop.orderInput)
	}
	if e.shop.orderInput.Items[0].Quantity != 2 {
		t.Errorf("unexpected upstream item: %+v", e.shop.orderInput.Items[0])
	}

	if len(e.orders.inserted) != 1 {
		t.Fatalf("expected one local order, got %d", len(e.orders.inserted))
	}
	local := e.orders.inserted[0]
	if local.Subtotal != 3000 {
		t.Errorf("got subtotal %d, want 3000", local.Subtotal)
	}
	if local.Total != 3500 {
		t.Errorf("got total %d, want 3500", local.Total)
	}
	if local.OrderNumber != "#1042" {
		t.Errorf("got order number %q", local.OrderNumber)
	}

	if len(e.mail.orderConfirmations) != 1 || e.mail.orderConfirmations[0] != "amira@example.com" {
		t.Errorf("confirmation email not sent: %v", e.mail.orderConfirmations)
	}

	var resp struct {
		Success bool `json:"success"`
		Order   struct {
			OrderNumber string `json:"order_number"`
		} `json:"order"`
	}
	decode(t, w, &resp)
	if !resp.Success || resp.Order.OrderNumber != "#1042" {
		t.Errorf("unexpected response: %s", w.Body.String())
	}
}

func TestCheckoutValidation(t *testing.T) {
	e := newEnv(t)
	e.shop.orderResult = &shopify.OrderResult{OrderNumber: "#1"}

	w := doJSON(t, e, http.MethodPost, "/api/checkout", "", map[string]interface{}{
		"first_name": "A", "last_name": "B", "email": "a@example.com",
		"address": "x", "city": "y", "country": "TN",
		"items": []map[string]interface{}{},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}
	if e.shop.orderInput != nil || len(e.orders.inserted) != 0 {
		t.Fatal("invalid checkout must not create orders")
	}
}

func TestRecordPostViewIdempotentPerViewer(t *testing.T) {
	e := newEnv(t)

	first := doJSON(t, e, http.MethodPost, "/api/blog/posts/p-1/view", "", nil)
	if first.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", first.Code, first.Body.String())
	}
	var resp struct {
		Counted bool `json:"counted"`
	}
	decode(t, first, &resp)
	if !resp.Counted {
		t.Fatal("first view should count")
	}

	var viewer *http.Cookie
	for _, ck := range first.Result().Cookies() {
		if ck.Name == "viewer_id" {
			viewer = ck
		}
	}
	if viewer == nil {
		t.Fatal("expected a viewer_id cookie")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/blog/posts/p-1/view", nil)
	req.AddCookie(viewer)
	second := httptest.NewRecorder()
	e.router.ServeHTTP(second, req)

	decode(t, second, &resp)
	if resp.Counted {
		t.Fatal("repeat view from the same viewer must not count")
	}

	// A different viewer still counts.
	third := doJSON(t, e, http.MethodPost, "/api/blog/posts/p-1/view", "", nil)
	decode(t, third, &resp)
	if !resp.Counted {
		t.Fatal("a new viewer should count")
	}
}

func TestRecordPostViewUnknownPost(t *testing.T) {
	e := newEnv(t)
	e.blog.viewErr = blog.ErrNotFound

	w := doJSON(t, e, http.MethodPost, "/api/blog/posts/nope/view", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", w.Code)
	}
}

func TestPrintStatusTransitions(t *testing.T) {
	e := newEnv(t)
	e.prints.current = printservice.PrintRequest{
		ID: "pr-1", Name: "A", Email: "a@example.com", Status: printservice.StatusPending,
	}
	token := e.token(t, auth.RoleAdmin)

	t.Run("invalid jump rejected", func(t *testing.T) {
		w := doJSON(t, e, http.MethodPatch, "/api/admin/print-service/pr-1/status", token,
			map[string]string{"status": "DELIVERED"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want 400", w.Code)
		}
		if len(e.mail.printUpdates) != 0 {
			t.Fatal("rejected transition must not email")
		}
	})

	t.Run("valid step advances and emails", func(t *testing.T) {
		w := doJSON(t, e, http.MethodPatch, "/api/admin/print-service/pr-1/status", token,
			map[string]string{"status": "IN_REVIEW"})
		if w.Code != http.StatusOK {
			t.Fatalf("got status %d: %s", w.Code, w.Body.String())
		}
		if e.prints.current.Status != printservice.StatusInReview {
			t.Fatalf("status not advanced: %s", e.prints.current.Status)
		}
		if len(e.mail.printUpdates) != 1 || e.mail.printUpdates[0] != "a@example.com" {
			t.Fatalf("expected a status email: %v", e.mail.printUpdates)
		}
	})
}

func TestContactAutoReplySkippedForSpam(t *testing.T) {
	body := map[string]string{
		"name": "A", "email": "a@example.com", "message": "hello there",
	}

	t.Run("clean message replies", func(t *testing.T) {
		e := newEnv(t)
		w := doJSON(t, e, http.MethodPost, "/api/contact", "", body)
		if w.Code != http.StatusOK {
			t.Fatalf("got status %d: %s", w.Code, w.Body.String())
		}
		if len(e.mail.autoReplies) != 1 {
			t.Fatalf("expected auto-reply: %v", e.mail.autoReplies)
		}
	})

	t.Run("spam accepted silently", func(t *testing.T) {
		e := newEnv(t)
		e.contact.spam = true
		w := doJSON(t, e, http.MethodPost, "/api/contact", "", body)
		if w.Code != http.StatusOK {
			t.Fatalf("spam must still return 200, got %d", w.Code)
		}
		if len(e.contact.inserted) != 1 {
			t.Fatal("spam is stored, just flagged")
		}
		if len(e.mail.autoReplies) != 0 {
			t.Fatal("spam must not trigger an auto-reply")
		}
	})
}

func TestInvoicePDFEndpoint(t *testing.T) {
	e := newEnv(t)
	inv, err := e.invoices.Insert(nil, testInvoice())
	if err != nil {
		t.Fatalf("seeding invoice: %v", err)
	}
	e.invoices.stored = inv

	w := doJSON(t, e, http.MethodGet, "/api/admin/invoices/inv-1/pdf", e.token(t, auth.RoleAdmin), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("got content type %q", got)
	}
	if !strings.HasPrefix(w.Body.String(), "%PDF") {
		t.Error("body does not look like a PDF")
	}
}

func TestAdminGetQuote(t *testing.T) {
	e := newEnv(t)
	e.quotes.stored = quotes.Quote{ID: "q-7", ProductName: "KraftView™ Pouch", Status: quotes.StatusPending}
	token := e.token(t, auth.RoleAdmin)

	t.Run("found", func(t *testing.T) {
		w := doJSON(t, e, http.MethodGet, "/api/admin/quotes/q-7", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("got status %d: %s", w.Code, w.Body.String())
		}
		var got quotes.Quote
		decode(t, w, &got)
		if got.ID != "q-7" {
			t.Fatalf("got quote %q", got.ID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		e.quotes.getErr = quotes.ErrNotFound
		w := doJSON(t, e, http.MethodGet, "/api/admin/quotes/q-8", token, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("got status %d, want 404", w.Code)
		}
	})

	t.Run("bulk listing still routes", func(t *testing.T) {
		w := doJSON(t, e, http.MethodGet, "/api/admin/quotes/bulk", token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("got status %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestSubmitQuoteSendsReceiptEmail(t *testing.T) {
	e := newEnv(t)

	w := doJSON(t, e, http.MethodPost, "/api/quotes", "", map[string]interface{}{
		"product_name": "KraftView™ Pouch",
		"quantity":     500,
		"name":         "A",
		"email":        "a@example.com",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", w.Code, w.Body.String())
	}
	if len(e.quotes.inserted) != 1 {
		t.Fatalf("expected one quote, got %d", len(e.quotes.inserted))
	}
	if len(e.mail.quoteReceipts) != 1 {
		t.Fatalf("expected a quote email: %v", e.mail.quoteReceipts)
	}
}

func signedWebhookRequest(t *testing.T, payload []byte, secret string) *http.Request {
	t.Helper()

	ts := time.Now()
	sig := webhook.ComputeSignature(ts, payload, secret)
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(sig)))
	return req
}

func TestStripeWebhookSignature(t *testing.T) {
	const secret = "whsec_test"
	payload := []byte(fmt.Sprintf(
		`{"api_version":%q,"type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","metadata":{"order_id":"o-1","email":"a@example.com"}}}}`,
		stripe.APIVersion))

	t.Run("valid signature marks order paid", func(t *testing.T) {
		e := newEnvWithConfig(t, &config.Config{Port: "8080", UploadDir: t.TempDir(), StripeWebhookSecret: secret})

		w := httptest.NewRecorder()
		e.router.ServeHTTP(w, signedWebhookRequest(t, payload, secret))
		if w.Code != http.StatusOK {
			t.Fatalf("got status %d: %s", w.Code, w.Body.String())
		}
		if e.orders.statuses["o-1"] != orders.StatusPaid {
			t.Fatalf("order not marked paid: %v", e.orders.statuses)
		}
		if len(e.mail.orderConfirmations) != 1 || e.mail.orderConfirmations[0] != "a@example.com" {
			t.Fatalf("confirmation email not sent: %v", e.mail.orderConfirmations)
		}
	})

	t.Run("wrong signature rejected", func(t *testing.T) {
		e := newEnvWithConfig(t, &config.Config{Port: "8080", UploadDir: t.TempDir(), StripeWebhookSecret: secret})

		w := httptest.NewRecorder()
		e.router.ServeHTTP(w, signedWebhookRequest(t, payload, "whsec_other"))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want 400", w.Code)
		}
		if len(e.orders.statuses) != 0 {
			t.Fatal("rejected event must not mutate orders")
		}
	})

	t.Run("missing header rejected", func(t *testing.T) {
		e := newEnvWithConfig(t, &config.Config{Port: "8080", UploadDir: t.TempDir(), StripeWebhookSecret: secret})

		w := doJSON(t, e, http.MethodPost, "/api/webhooks/stripe", "", json.RawMessage(payload))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want 400", w.Code)
		}
		if len(e.orders.statuses) != 0 {
			t.Fatal("unsigned event must not mutate orders")
		}
	})

	t.Run("no secret accepts unsigned payloads", func(t *testing.T) {
		e := newEnv(t)

		w := doJSON(t, e, http.MethodPost, "/api/webhooks/stripe", "", json.RawMessage(payload))
		if w.Code != http.StatusOK {
			t.Fatalf("got status %d: %s", w.Code, w.Body.String())
		}
		if e.orders.statuses["o-1"] != orders.StatusPaid {
			t.Fatalf("order not marked paid: %v", e.orders.statuses)
		}
	})
}
