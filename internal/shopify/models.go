package shopify

// Product is the one common shape every commerce endpoint speaks,
// regardless of whether it was fetched over the storefront GraphQL API or
// the admin REST API.
type Product struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Handle      string     `json:"handle"`
	Description string     `json:"description"`
	ProductType string     `json:"product_type,omitempty"`
	PriceRange  PriceRange `json:"price_range"`
	Images      []Image    `json:"images"`
	Variants    []Variant  `json:"variants"`
	Tags        []string   `json:"tags"`
}

type PriceRange struct {
	Min      string `json:"min"`
	Max      string `json:"max"`
	Currency string `json:"currency"`
}

type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

type Variant struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	Available bool   `json:"available"`
}

type Collection struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Handle      string `json:"handle"`
	Description string `json:"description"`
}

// OrderInput is what checkout sends upstream.
type OrderInput struct {
	Email     string           `json:"email"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Phone     string           `json:"phone"`
	Address   string           `json:"address"`
	City      string           `json:"city"`
	Country   string           `json:"country"`
	Zip       string           `json:"zip"`
	Items     []OrderInputItem `json:"items"`
}

type OrderInputItem struct {
	VariantID string `json:"variant_id"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

// OrderResult is the upstream confirmation for a created order.
type OrderResult struct {
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_number"`
	ProcessedAt string `json:"processed_at"`
	TotalPrice  string `json:"total_price"`
	Currency    string `json:"currency"`
}
