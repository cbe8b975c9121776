package handlers

import (
	"context"
	"os"
	"testing"
	"time"

	"packstore/internal/auth"
	"packstore/internal/blog"
	"packstore/internal/config"
	"packstore/internal/contact"
	"packstore/internal/invoices"
	"packstore/internal/orders"
	"packstore/internal/printservice"
	"packstore/internal/quotes"
	"packstore/internal/shopify"
	"packstore/internal/users"

	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// Hand-written fakes for the store interfaces. Each records mutations so
// tests can assert that rejected requests never touched the store.

type fakeUsers struct {
	insertErr error
	authErr   error
	getUser   users.User
	getErr    error
	list      []users.User
	total     int
	updateErr error

	inserted []users.NewUser
	updated  []string
	deleted  []string
}

func (f *fakeUsers) InsertUser(_ context.Context, nu users.NewUser) (users.User, error) {
	if f.insertErr != nil {
		return users.User{}, f.insertErr
	}
	f.inserted = append(f.inserted, nu)
	return users.User{ID: "u-1", Name: nu.Name, Email: nu.Email, Role: auth.RoleUser}, nil
}

func (f *fakeUsers) Authenticate(_ context.Context, email, _ string) (users.User, error) {
	if f.authErr != nil {
		return users.User{}, f.authErr
	}
	return users.User{ID: "u-1", Email: email, Role: auth.RoleUser}, nil
}

func (f *fakeUsers) UpsertOAuthUser(_ context.Context, email, name, avatar string) (users.User, error) {
	return users.User{ID: "u-oauth", Email: email, Name: name, Avatar: avatar, Role: auth.RoleUser}, nil
}

func (f *fakeUsers) GetByID(_ context.Context, _ string) (users.User, error) {
	return f.getUser, f.getErr
}

func (f *fakeUsers) List(_ context.Context, _ users.Filter) ([]users.User, int, error) {
	return f.list, f.total, nil
}

func (f *fakeUsers) Update(_ context.Context, id string, _ users.UpdateUser) (users.User, error) {
	if f.updateErr != nil {
		return users.User{}, f.updateErr
	}
	f.updated = append(f.updated, id)
	return users.User{ID: id}, nil
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeOrders struct {
	inserted  []orders.Order
	insertErr error
	statuses  map[string]string
	byUser    []orders.Order
	list      []orders.Order
	total     int
}

func (f *fakeOrders) Insert(_ context.Context, o orders.Order) (orders.Order, error) {
	if f.insertErr != nil {
		return orders.Order{}, f.insertErr
	}
	f.inserted = append(f.inserted, o)
	return o, nil
}

func (f *fakeOrders) GetByID(_ context.Context, _ string) (orders.Order, error) {
	return orders.Order{}, orders.ErrNotFound
}

func (f *fakeOrders) List(_ context.Context, _ orders.Filter) ([]orders.Order, int, error) {
	return f.list, f.total, nil
}

func (f *fakeOrders) ListByUser(_ context.Context, _ string) ([]orders.Order, error) {
	return f.byUser, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id, status, _ string) error {
	if f.statuses == nil {
		f.statuses = map[string]string{}
	}
	f.statuses[id] = status
	return nil
}

type fakeInvoices struct {
	insertErr error
	inserted  []invoices.Invoice
	stored    invoices.Invoice
	getErr    error
}

func (f *fakeInvoices) Insert(_ context.Context, inv invoices.Invoice) (invoices.Invoice, error) {
	if f.insertErr != nil {
		return invoices.Invoice{}, f.insertErr
	}
	f.inserted = append(f.inserted, inv)
	inv.ID = "inv-1"
	return inv, nil
}

func (f *fakeInvoices) Update(_ context.Context, id string, inv invoices.Invoice) (invoices.Invoice, error) {
	inv.ID = id
	return inv, nil
}

func (f *fakeInvoices) GetByID(_ context.Context, _ string) (invoices.Invoice, error) {
	return f.stored, f.getErr
}

func (f *fakeInvoices) List(_ context.Context, _ invoices.Filter) ([]invoices.Invoice, int, error) {
	return nil, 0, nil
}

func (f *fakeInvoices) Delete(_ context.Context, _ string) error { return nil }

type fakeBlog struct {
	views   map[string]map[string]bool // postID -> viewerID set
	viewErr error

	posts []blog.Post
	total int
}

func (f *fakeBlog) InsertPost(_ context.Context, np blog.NewPost, authorID string) (blog.Post, error) {
	return blog.Post{ID: "p-1", Title: np.Title, AuthorID: authorID}, nil
}

func (f *fakeBlog) UpdatePost(_ context.Context, id string, np blog.NewPost) (blog.Post, error) {
	return blog.Post{ID: id, Title: np.Title}, nil
}

func (f *fakeBlog) GetPostByID(_ context.Context, _ string) (blog.Post, error) {
	return blog.Post{}, blog.ErrNotFound
}

func (f *fakeBlog) GetPostBySlug(_ context.Context, slug string) (blog.Post, error) {
	for _, p := range f.posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return blog.Post{}, blog.ErrNotFound
}

func (f *fakeBlog) ListPosts(_ context.Context, _ blog.Filter) ([]blog.Post, int, error) {
	return f.posts, f.total, nil
}

func (f *fakeBlog) DeletePost(_ context.Context, _ string) error { return nil }

func (f *fakeBlog) RecordView(_ context.Context, postID, viewerID string) (bool, error) {
	if f.viewErr != nil {
		return false, f.viewErr
	}
	if f.views == nil {
		f.views = map[string]map[string]bool{}
	}
	if f.views[postID] == nil {
		f.views[postID] = map[string]bool{}
	}
	if f.views[postID][viewerID] {
		return false, nil
	}
	f.views[postID][viewerID] = true
	return true, nil
}

func (f *fakeBlog) InsertCategory(_ context.Context, name string) (blog.Category, error) {
	return blog.Category{ID: "c-1", Name: name}, nil
}

func (f *fakeBlog) ListCategories(_ context.Context) ([]blog.Category, error) { return nil, nil }

func (f *fakeBlog) DeleteCategory(_ context.Context, _ string) error { return nil }

type fakeQuotes struct {
	inserted []quotes.NewQuote
	stored   quotes.Quote
	getErr   error
}

func (f *fakeQuotes) Insert(_ context.Context, nq quotes.NewQuote, userID, receiptPath string) (quotes.Quote, error) {
	f.inserted = append(f.inserted, nq)
	return quotes.Quote{ID: "q-1", ProductName: nq.ProductName, Name: nq.Name, Email: nq.Email,
		UserID: userID, ReceiptPath: receiptPath, Status: quotes.StatusPending}, nil
}

func (f *fakeQuotes) InsertBulk(_ context.Context, nq quotes.NewBulkQuote) (quotes.BulkQuote, error) {
	return quotes.BulkQuote{ID: "bq-1", Name: nq.Name, Email: nq.Email, Products: nq.Products, Status: quotes.StatusPending}, nil
}

func (f *fakeQuotes) GetByID(_ context.Context, _ string) (quotes.Quote, error) {
	return f.stored, f.getErr
}

func (f *fakeQuotes) List(_ context.Context, _ quotes.Filter) ([]quotes.Quote, int, error) {
	return nil, 0, nil
}

func (f *fakeQuotes) ListBulk(_ context.Context, _ quotes.Filter) ([]quotes.BulkQuote, int, error) {
	return nil, 0, nil
}

func (f *fakeQuotes) UpdateStatus(_ context.Context, _, _ string) error { return nil }

type fakePrints struct {
	current printservice.PrintRequest
}

func (f *fakePrints) Insert(_ context.Context, nr printservice.NewPrintRequest) (printservice.PrintRequest, error) {
	return printservice.PrintRequest{ID: "pr-1", Name: nr.Name, Email: nr.Email, Status: printservice.StatusPending}, nil
}

func (f *fakePrints) GetByID(_ context.Context, _ string) (printservice.PrintRequest, error) {
	return f.current, nil
}

func (f *fakePrints) List(_ context.Context, _ printservice.Filter) ([]printservice.PrintRequest, int, error) {
	return nil, 0, nil
}

func (f *fakePrints) UpdateStatus(_ context.Context, id string, to printservice.Status) (printservice.PrintRequest, error) {
	if !printservice.CanTransition(f.current.Status, to) {
		return printservice.PrintRequest{}, printservice.ErrInvalidTransition
	}
	f.current.Status = to
	return f.current, nil
}

type fakeContact struct {
	inserted []contact.NewMessage
	spam     bool
}

func (f *fakeContact) Insert(_ context.Context, nm contact.NewMessage) (contact.Message, error) {
	f.inserted = append(f.inserted, nm)
	return contact.Message{ID: "m-1", Name: nm.Name, Email: nm.Email, Spam: f.spam, Status: contact.StatusUnread}, nil
}

func (f *fakeContact) List(_ context.Context, _ contact.Filter) ([]contact.Message, int, error) {
	return nil, 0, nil
}

func (f *fakeContact) UpdateStatus(_ context.Context, _, _ string) error { return nil }

func (f *fakeContact) Delete(_ context.Context, _ string) error { return nil }

type fakeShop struct {
	configured  bool
	products    []shopify.Product
	orderInput  *shopify.OrderInput
	orderResult *shopify.OrderResult
	orderErr    error
}

func (f *fakeShop) StorefrontConfigured() bool { return f.configured }
func (f *fakeShop) AdminConfigured() bool      { return f.configured }

func (f *fakeShop) StorefrontProducts(_ context.Context, _ int) ([]shopify.Product, error) {
	if !f.configured {
		return nil, shopify.ErrNotConfigured
	}
	return f.products, nil
}

func (f *fakeShop) StorefrontCollection(_ context.Context, handle string, _ int) (shopify.Collection, []shopify.Product, error) {
	if !f.configured {
		return shopify.Collection{}, nil, shopify.ErrNotConfigured
	}
	return shopify.Collection{Handle: handle, Title: handle}, f.products, nil
}

func (f *fakeShop) AdminProducts(_ context.Context) ([]shopify.Product, error) {
	if !f.configured {
		return nil, shopify.ErrNotConfigured
	}
	return f.products, nil
}

func (f *fakeShop) CreateOrder(_ context.Context, in shopify.OrderInput) (*shopify.OrderResult, error) {
	if !f.configured {
		return nil, shopify.ErrNotConfigured
	}
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	f.orderInput = &in
	return f.orderResult, nil
}

type fakeMail struct {
	orderConfirmations []string
	quoteReceipts      []string
	printUpdates       []string
	autoReplies        []string
}

func (f *fakeMail) SendOrderConfirmation(to, _ string) error {
	f.orderConfirmations = append(f.orderConfirmations, to)
	return nil
}

func (f *fakeMail) SendQuoteReceived(to, _, _ string) error {
	f.quoteReceipts = append(f.quoteReceipts, to)
	return nil
}

func (f *fakeMail) SendPrintStatusUpdate(to, _, _ string) error {
	f.printUpdates = append(f.printUpdates, to)
	return nil
}

func (f *fakeMail) SendContactAutoReply(to, _ string) error {
	f.autoReplies = append(f.autoReplies, to)
	return nil
}

type fakeImages struct {
	configured bool
	url        string
	err        error
}

func (f *fakeImages) Configured() bool { return f.configured }

func (f *fakeImages) Upload(_ context.Context, _ []byte) (string, error) {
	return f.url, f.err
}

// env bundles the router with its fakes so tests can assert on both.
type env struct {
	router *gin.Engine
	keys   *auth.Keys

	users    *fakeUsers
	orders   *fakeOrders
	invoices *fakeInvoices
	blog     *fakeBlog
	quotes   *fakeQuotes
	prints   *fakePrints
	contact  *fakeContact
	shop     *fakeShop
	mail     *fakeMail
	images   *fakeImages
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithConfig(t, &config.Config{Port: "8080", UploadDir: t.TempDir()})
}

func newEnvWithConfig(t *testing.T, cfg *config.Config) *env {
	t.Helper()

	keys, err := auth.NewKeys("test-secret")
	if err != nil {
		t.Fatalf("NewKeys: %v", err)
	}

	e := &env{
		keys:     keys,
		users:    &fakeUsers{},
		orders:   &fakeOrders{},
		invoices: &fakeInvoices{},
		blog:     &fakeBlog{},
		quotes:   &fakeQuotes{},
		prints:   &fakePrints{},
		contact:  &fakeContact{},
		shop:     &fakeShop{configured: true},
		mail:     &fakeMail{},
		images:   &fakeImages{},
	}

	e.router = API(Deps{
		Users:    e.users,
		Orders:   e.orders,
		Invoices: e.invoices,
		Blog:     e.blog,
		Quotes:   e.quotes,
		Prints:   e.prints,
		Contact:  e.contact,
		Shop:     e.shop,
		Mail:     e.mail,
		Images:   e.images,
		Keys:     keys,
		Cfg:      cfg,
	})
	return e
}

func testInvoice() invoices.Invoice {
	return invoices.Invoice{
		InvoiceNumber: "INV-2024-001",
		CompanyName:   "Pack Co",
		Date:          time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Status:        invoices.StatusSent,
		Items: []invoices.InvoiceItem{
			{Description: "KraftView pouches", Quantity: 100, UnitPrice: 150},
		},
	}
}

func (e *env) token(t *testing.T, role string) string {
	t.Helper()
	token, err := e.keys.GenerateToken("u-1", role)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}
