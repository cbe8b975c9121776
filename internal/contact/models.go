package contact

import "time"

const (
	StatusUnread  = "unread"
	StatusRead    = "read"
	StatusReplied = "replied"
)

type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	Spam      bool      `json:"spam"`
	CreatedAt time.Time `json:"created_at"`
}

type NewMessage struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject"`
	Message string `json:"message" validate:"required"`
}

type Filter struct {
	Page   int
	Limit  int
	Status string
}
