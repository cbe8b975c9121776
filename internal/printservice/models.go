package printservice

import "time"

type Status string

const (
	StatusPending      Status = "PENDING"
	StatusInReview     Status = "IN_REVIEW"
	StatusApproved     Status = "APPROVED"
	StatusInProduction Status = "IN_PRODUCTION"
	StatusReady        Status = "READY"
	StatusDelivered    Status = "DELIVERED"
	StatusCancelled    Status = "CANCELLED"
)

// transitions is the forward lifecycle. CANCELLED is reachable from every
// non-terminal state; DELIVERED and CANCELLED are terminal.
var transitions = map[Status][]Status{
	StatusPending:      {StatusInReview, StatusCancelled},
	StatusInReview:     {StatusApproved, StatusCancelled},
	StatusApproved:     {StatusInProduction, StatusCancelled},
	StatusInProduction: {StatusReady, StatusCancelled},
	StatusReady:        {StatusDelivered, StatusCancelled},
	StatusDelivered:    {},
	StatusCancelled:    {},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PrintRequest is a customer custom-print order.
type PrintRequest struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone,omitempty"`
	Company      string     `json:"company,omitempty"`
	Material     string     `json:"material"`
	WidthCm      float64    `json:"width_cm"`
	HeightCm     float64    `json:"height_cm"`
	Quantity     int        `json:"quantity"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type NewPrintRequest struct {
	Name         string  `json:"name" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	Phone        string  `json:"phone"`
	Company      string  `json:"company"`
	Material     string  `json:"material" validate:"required"`
	WidthCm      float64 `json:"width_cm" validate:"required,gt=0"`
	HeightCm     float64 `json:"height_cm" validate:"required,gt=0"`
	Quantity     int     `json:"quantity" validate:"required,min=1"`
	DeliveryDate string  `json:"delivery_date"`
	Notes        string  `json:"notes"`
}

type Filter struct {
	Page   int
	Limit  int
	Status Status
}
