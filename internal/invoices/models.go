package invoices

import "time"

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSent      Status = "SENT"
	StatusPaid      Status = "PAID"
	StatusOverdue   Status = "OVERDUE"
	StatusCancelled Status = "CANCELLED"
)

func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

type Invoice struct {
	ID            string         `json:"id"`
	InvoiceNumber string         `json:"invoice_number"`
	CompanyName   string         `json:"company_name"`
	ContactName   string         `json:"contact_name,omitempty"`
	Email         string         `json:"email,omitempty"`
	Phone         string         `json:"phone,omitempty"`
	Address       string         `json:"address,omitempty"`
	Date          time.Time      `json:"date"`
	DueDate       time.Time      `json:"due_date"`
	Status        Status         `json:"status"`
	Notes         string         `json:"notes,omitempty"`
	Items         []InvoiceItem  `json:"items"`
	Printing      *PrintingInfo  `json:"printing,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type InvoiceItem struct {
	ID          string `json:"id"`
	InvoiceID   string `json:"invoice_id"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"` // smallest currency unit
}

// PrintingInfo is the optional custom-printing record attached to an invoice.
type PrintingInfo struct {
	Material   string `json:"material"`
	Dimensions string `json:"dimensions"`
	Colors     string `json:"colors"`
	Quantity   int    `json:"quantity"`
}

// Total sums the line items.
func (inv Invoice) Total() int64 {
	var total int64
	for _, it := range inv.Items {
		total += it.UnitPrice * int64(it.Quantity)
	}
	return total
}

type Filter struct {
	Page   int
	Limit  int
	Search string
	Status Status
}
