package blog

import "time"

type Post struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Content    string    `json:"content"`
	Excerpt    string    `json:"excerpt,omitempty"`
	Published  bool      `json:"published"`
	Views      int       `json:"views"`
	AuthorID   string    `json:"author_id,omitempty"`
	CategoryID string    `json:"category_id,omitempty"`
	Tags       []Tag     `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type NewPost struct {
	Title      string   `json:"title" validate:"required"`
	Slug       string   `json:"slug"`
	Content    string   `json:"content" validate:"required"`
	Excerpt    string   `json:"excerpt"`
	Published  bool     `json:"published"`
	CategoryID string   `json:"category_id"`
	Tags       []string `json:"tags"`
}

type Filter struct {
	Page          int
	Limit         int
	Search        string
	CategoryID    string
	PublishedOnly bool
}
