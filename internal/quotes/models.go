package quotes

import "time"

const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Quote is a user-submitted pricing request for a single product.
type Quote struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Discount    string    `json:"discount,omitempty"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Company     string    `json:"company,omitempty"`
	Message     string    `json:"message,omitempty"`
	ReceiptPath string    `json:"receipt_path,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// BulkQuote covers multi-product volume requests.
type BulkQuote struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Products  string    `json:"products"`
	Quantity  int       `json:"quantity"`
	Message   string    `json:"message,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type NewQuote struct {
	ProductName string `json:"product_name" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,min=1"`
	Discount    string `json:"discount"`
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone"`
	Company     string `json:"company"`
	Message     string `json:"message"`
}

type NewBulkQuote struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	Products string `json:"products" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
	Message  string `json:"message"`
}

type Filter struct {
	Page   int
	Limit  int
	Status string
}
