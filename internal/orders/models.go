package orders

import "time"

// Order status values the system itself writes. The column stays free-form
// text so upstream statuses can pass through untouched.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// Order represents an order entity in the database. UserID is empty for
// guest checkouts.
type Order struct {
	ID                  string      `json:"id"`
	UserID              string      `json:"user_id,omitempty"`
	OrderNumber         string      `json:"order_number"`
	CustomerName        string      `json:"customer_name"`
	CustomerEmail       string      `json:"customer_email"`
	Phone               string      `json:"phone,omitempty"`
	Address             string      `json:"address,omitempty"`
	City                string      `json:"city,omitempty"`
	Country             string      `json:"country,omitempty"`
	PostalCode          string      `json:"postal_code,omitempty"`
	Status              string      `json:"status"`
	Subtotal            int64       `json:"subtotal"` // smallest currency unit
	Shipping            int64       `json:"shipping"`
	Total               int64       `json:"total"`
	Currency            string      `json:"currency"`
	StripeTransactionID string      `json:"stripe_transaction_id,omitempty"`
	Items               []OrderItem `json:"items"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image,omitempty"`
}

type Filter struct {
	Page   int
	Limit  int
	Search string
	Status string
}
