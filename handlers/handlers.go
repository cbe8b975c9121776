package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
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
	"packstore/middleware"
	"packstore/pkg/ctxmanage"
	"packstore/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Store interfaces the handlers depend on. The concrete *Conf types in the
// internal packages satisfy them; tests substitute hand-written fakes.

type UserStore interface {
	InsertUser(ctx context.Context, nu users.NewUser) (users.User, error)
	Authenticate(ctx context.Context, email, password string) (users.User, error)
	UpsertOAuthUser(ctx context.Context, email, name, avatar string) (users.User, error)
	GetByID(ctx context.Context, id string) (users.User, error)
	List(ctx context.Context, f users.Filter) ([]users.User, int, error)
	Update(ctx context.Context, id string, up users.UpdateUser) (users.User, error)
	Delete(ctx context.Context, id string) error
}

type OrderStore interface {
	Insert(ctx context.Context, o orders.Order) (orders.Order, error)
	GetByID(ctx context.Context, id string) (orders.Order, error)
	List(ctx context.Context, f orders.Filter) ([]orders.Order, int, error)
	ListByUser(ctx context.Context, userID string) ([]orders.Order, error)
	UpdateStatus(ctx context.Context, id, status, stripeTransactionID string) error
}

type InvoiceStore interface {
	Insert(ctx context.Context, inv invoices.Invoice) (invoices.Invoice, error)
	Update(ctx context.Context, id string, inv invoices.Invoice) (invoices.Invoice, error)
	GetByID(ctx context.Context, id string) (invoices.Invoice, error)
	List(ctx context.Context, f invoices.Filter) ([]invoices.Invoice, int, error)
	Delete(ctx context.Context, id string) error
}

type BlogStore interface {
	InsertPost(ctx context.Context, np blog.NewPost, authorID string) (blog.Post, error)
	UpdatePost(ctx context.Context, id string, np blog.NewPost) (blog.Post, error)
	GetPostByID(ctx context.Context, id string) (blog.Post, error)
	GetPostBySlug(ctx context.Context, slug string) (blog.Post, error)
	ListPosts(ctx context.Context, f blog.Filter) ([]blog.Post, int, error)
	DeletePost(ctx context.Context, id string) error
	RecordView(ctx context.Context, postID, viewerID string) (bool, error)
	InsertCategory(ctx context.Context, name string) (blog.Category, error)
	ListCategories(ctx context.Context) ([]blog.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

type QuoteStore interface {
	Insert(ctx context.Context, nq quotes.NewQuote, userID, receiptPath string) (quotes.Quote, error)
	InsertBulk(ctx context.Context, nq quotes.NewBulkQuote) (quotes.BulkQuote, error)
	GetByID(ctx context.Context, id string) (quotes.Quote, error)
	List(ctx context.Context, f quotes.Filter) ([]quotes.Quote, int, error)
	ListBulk(ctx context.Context, f quotes.Filter) ([]quotes.BulkQuote, int, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

type PrintStore interface {
	Insert(ctx context.Context, nr printservice.NewPrintRequest) (printservice.PrintRequest, error)
	GetByID(ctx context.Context, id string) (printservice.PrintRequest, error)
	List(ctx context.Context, f printservice.Filter) ([]printservice.PrintRequest, int, error)
	UpdateStatus(ctx context.Context, id string, to printservice.Status) (printservice.PrintRequest, error)
}

type ContactStore interface {
	Insert(ctx context.Context, nm contact.NewMessage) (contact.Message, error)
	List(ctx context.Context, f contact.Filter) ([]contact.Message, int, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

// Commerce is the hosted-platform surface checkout and the catalog
// endpoints consume.
type Commerce interface {
	StorefrontConfigured() bool
	AdminConfigured() bool
	StorefrontProducts(ctx context.Context, first int) ([]shopify.Product, error)
	StorefrontCollection(ctx context.Context, handle string, first int) (shopify.Collection, []shopify.Product, error)
	AdminProducts(ctx context.Context) ([]shopify.Product, error)
	CreateOrder(ctx context.Context, in shopify.OrderInput) (*shopify.OrderResult, error)
}

// Sender is the transactional email surface. All sends are best-effort.
type Sender interface {
	SendOrderConfirmation(to, orderNumber string) error
	SendQuoteReceived(to, name, productName string) error
	SendPrintStatusUpdate(to, name, status string) error
	SendContactAutoReply(to, name string) error
}

// ImageHost uploads images to the external hosting API.
type ImageHost interface {
	Configured() bool
	Upload(ctx context.Context, data []byte) (string, error)
}

// Deps carries everything the handlers need.
type Deps struct {
	Users    UserStore
	Orders   OrderStore
	Invoices InvoiceStore
	Blog     BlogStore
	Quotes   QuoteStore
	Prints   PrintStore
	Contact  ContactStore
	Shop     Commerce
	Mail     Sender
	Images   ImageHost
	Keys     *auth.Keys
	Cfg      *config.Config
}

type Handler struct {
	u        UserStore
	o        OrderStore
	inv      InvoiceStore
	b        BlogStore
	q        QuoteStore
	p        PrintStore
	cm       ContactStore
	shop     Commerce
	mail     Sender
	images   ImageHost
	keys     *auth.Keys
	cfg      *config.Config
	validate *validator.Validate
	oauth    *oauth2.Config
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		u:        d.Users,
		o:        d.Orders,
		inv:      d.Invoices,
		b:        d.Blog,
		q:        d.Quotes,
		p:        d.Prints,
		cm:       d.Contact,
		shop:     d.Shop,
		mail:     d.Mail,
		images:   d.Images,
		keys:     d.Keys,
		cfg:      d.Cfg,
		validate: validator.New(),
	}
	if d.Cfg != nil && d.Cfg.GoogleClientID != "" && d.Cfg.GoogleClientSecret != "" {
		h.oauth = &oauth2.Config{
			ClientID:     d.Cfg.GoogleClientID,
			ClientSecret: d.Cfg.GoogleClientSecret,
			RedirectURL:  d.Cfg.BaseURL + "/api/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return h
}

// API builds the engine with every route group and its middleware.
func API(d Deps) *gin.Engine {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	m, err := middleware.NewMid(d.Keys)
	if err != nil {
		panic(err)
	}

	h := NewHandler(d)
	r.Use(middleware.Logger(), gin.Recovery())

	r.GET("/ping", HealthCheck)

	// Public submissions share one limiter so a single client cannot flood
	// the inboxes.
	submitLimit := middleware.NewRateLimiter(time.Minute, 5)

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/google", h.GoogleLogin)
			authGroup.GET("/google/callback", h.GoogleCallback)
			authGroup.GET("/me", m.Authentication(), h.Me)
		}

		api.GET("/products", h.ListProducts)
		api.GET("/collections/:handle", h.GetCollection)
		api.GET("/organized-collection", h.OrganizedCollection)

		api.POST("/checkout", h.Checkout)
		api.POST("/webhooks/stripe", h.StripeWebhook)

		api.GET("/blog/posts", h.ListPublishedPosts)
		api.GET("/blog/posts/:slug", h.GetPostBySlug)
		api.POST("/blog/posts/:id/view", h.RecordPostView)
		api.GET("/blog/categories", h.ListCategories)

		api.POST("/quotes", submitLimit.Middleware(), h.SubmitQuote)
		api.POST("/quotes/bulk", submitLimit.Middleware(), h.SubmitBulkQuote)
		api.POST("/print-service", submitLimit.Middleware(), h.SubmitPrintRequest)
		api.POST("/contact", submitLimit.Middleware(), h.SubmitContactMessage)

		api.GET("/orders", m.Authentication(), h.MyOrders)
		api.POST("/upload", m.Authentication(), h.Upload)
	}

	staff := []string{auth.RoleAdmin, auth.RoleSuperAdmin}
	admin := api.Group("/admin")
	admin.Use(m.Authentication())
	{
		admin.GET("/users", m.Authorize(h.AdminListUsers, staff...))
		admin.GET("/users/:id", m.Authorize(h.AdminGetUser, staff...))
		admin.PUT("/users/:id", m.Authorize(h.AdminUpdateUser, auth.RoleSuperAdmin))
		admin.DELETE("/users/:id", m.Authorize(h.AdminDeleteUser, auth.RoleSuperAdmin))

		admin.GET("/orders", m.Authorize(h.AdminListOrders, staff...))
		admin.GET("/orders/:id", m.Authorize(h.AdminGetOrder, staff...))
		admin.PATCH("/orders/:id/status", m.Authorize(h.AdminUpdateOrderStatus, staff...))

		admin.POST("/invoices", m.Authorize(h.AdminCreateInvoice, staff...))
		admin.GET("/invoices", m.Authorize(h.AdminListInvoices, staff...))
		admin.GET("/invoices/:id", m.Authorize(h.AdminGetInvoice, staff...))
		admin.GET("/invoices/:id/pdf", m.Authorize(h.AdminInvoicePDF, staff...))
		admin.PUT("/invoices/:id", m.Authorize(h.AdminUpdateInvoice, staff...))
		admin.DELETE("/invoices/:id", m.Authorize(h.AdminDeleteInvoice, staff...))

		admin.GET("/blog/posts", m.Authorize(h.AdminListPosts, staff...))
		admin.POST("/blog/posts", m.Authorize(h.AdminCreatePost, staff...))
		admin.PUT("/blog/posts/:id", m.Authorize(h.AdminUpdatePost, staff...))
		admin.DELETE("/blog/posts/:id", m.Authorize(h.AdminDeletePost, staff...))
		admin.POST("/blog/categories", m.Authorize(h.AdminCreateCategory, staff...))
		admin.DELETE("/blog/categories/:id", m.Authorize(h.AdminDeleteCategory, staff...))

		admin.GET("/quotes", m.Authorize(h.AdminListQuotes, staff...))
		admin.GET("/quotes/bulk", m.Authorize(h.AdminListBulkQuotes, staff...))
		admin.GET("/quotes/:id", m.Authorize(h.AdminGetQuote, staff...))
		admin.PATCH("/quotes/:id/status", m.Authorize(h.AdminUpdateQuoteStatus, staff...))

		admin.GET("/print-service", m.Authorize(h.AdminListPrintRequests, staff...))
		admin.GET("/print-service/:id", m.Authorize(h.AdminGetPrintRequest, staff...))
		admin.PATCH("/print-service/:id/status", m.Authorize(h.AdminUpdatePrintStatus, staff...))

		admin.GET("/messages", m.Authorize(h.AdminListMessages, staff...))
		admin.PATCH("/messages/:id/status", m.Authorize(h.AdminUpdateMessageStatus, staff...))
		admin.DELETE("/messages/:id", m.Authorize(h.AdminDeleteMessage, staff...))
	}

	return r
}

func HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

// pageParams parses page/limit query params with sane defaults.
func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// pagedResponse is the list envelope every admin listing returns.
func pagedResponse(c *gin.Context, items interface{}, page, limit, total int) {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
			"pages": pages,
		},
	})
}

// validRequest runs struct validation and writes the 400 response itself
// when a field fails, with a per-tag message.
func (h *Handler) validRequest(c *gin.Context, traceId string, v interface{}) bool {
	err := h.validate.Struct(v)
	if err == nil {
		return true
	}

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && len(vErrs) > 0 {
		vErr := vErrs[0]
		var msg string
		switch vErr.Tag() {
		case "required":
			msg = vErr.Field() + " value missing"
		case "email":
			msg = vErr.Field() + " must be a valid email"
		case "min":
			msg = vErr.Field() + " value is less than " + vErr.Param()
		case "gt":
			msg = vErr.Field() + " must be greater than " + vErr.Param()
		case "oneof":
			msg = vErr.Field() + " must be one of " + vErr.Param()
		default:
			msg = http.StatusText(http.StatusBadRequest)
		}
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
		return false
	}

	slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
	return false
}

// currentClaims fetches the claims placed by the authentication middleware.
func currentClaims(c *gin.Context) (auth.Claims, bool) {
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	return claims, ok
}

// optionalUserID resolves the user id from a Bearer token when one is
// present on an otherwise public route. Invalid tokens are treated as
// anonymous rather than rejected.
func (h *Handler) optionalUserID(c *gin.Context) string {
	header := c.Request.Header.Get("Authorization")
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	claims, err := h.keys.ParseToken(parts[1])
	if err != nil {
		return ""
	}
	return claims.Subject
}

func traceOf(c *gin.Context) string {
	return ctxmanage.GetTraceIdOfRequest(c)
}
