package shopify

import (
	"strconv"
	"strings"
)

// The storefront GraphQL API wraps everything in edges/node; the admin
// REST API returns flat arrays with different field names. Both funnel
// into the common Product shape here so no endpoint normalizes on its own.

type gqlProductConnection struct {
	Edges []struct {
		Node gqlProduct `json:"node"`
	} `json:"edges"`
}

type gqlProduct struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Handle      string   `json:"handle"`
	Description string   `json:"description"`
	ProductType string   `json:"productType"`
	Tags        []string `json:"tags"`
	PriceRange  struct {
		MinVariantPrice gqlMoney `json:"minVariantPrice"`
		MaxVariantPrice gqlMoney `json:"maxVariantPrice"`
	} `json:"priceRange"`
	Images struct {
		Edges []struct {
			Node struct {
				URL     string `json:"url"`
				AltText string `json:"altText"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"images"`
	Variants struct {
		Edges []struct {
			Node struct {
				ID               string   `json:"id"`
				Title            string   `json:"title"`
				AvailableForSale bool     `json:"availableForSale"`
				Price            gqlMoney `json:"price"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

type gqlMoney struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

func normalizeGraphQLProducts(conn gqlProductConnection) []Product {
	products := make([]Product, 0, len(conn.Edges))
	for _, edge := range conn.Edges {
		n := edge.Node
		p := Product{
			ID:          n.ID,
			Title:       n.Title,
			Handle:      n.Handle,
			Description: n.Description,
			ProductType: n.ProductType,
			Tags:        n.Tags,
			PriceRange: PriceRange{
				Min:      n.PriceRange.MinVariantPrice.Amount,
				Max:      n.PriceRange.MaxVariantPrice.Amount,
				Currency: n.PriceRange.MinVariantPrice.CurrencyCode,
			},
		}
		for _, img := range n.Images.Edges {
			p.Images = append(p.Images, Image{URL: img.Node.URL, Alt: img.Node.AltText})
		}
		for _, v := range n.Variants.Edges {
			p.Variants = append(p.Variants, Variant{
				ID:        v.Node.ID,
				Title:     v.Node.Title,
				Price:     v.Node.Price.Amount,
				Available: v.Node.AvailableForSale,
			})
		}
		products = append(products, p)
	}
	return products
}

type restProduct struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Handle      string `json:"handle"`
	BodyHTML    string `json:"body_html"`
	ProductType string `json:"product_type"`
	Tags        string `json:"tags"` // comma-separated in REST
	Images      []struct {
		Src string `json:"src"`
		Alt string `json:"alt"`
	} `json:"images"`
	Variants []struct {
		ID                int64  `json:"id"`
		Title             string `json:"title"`
		Price             string `json:"price"`
		InventoryQuantity int    `json:"inventory_quantity"`
	} `json:"variants"`
}

func normalizeRESTProducts(in []restProduct) []Product {
	products := make([]Product, 0, len(in))
	for _, r := range in {
		p := Product{
			ID:          strconv.FormatInt(r.ID, 10),
			Title:       r.Title,
			Handle:      r.Handle,
			Description: r.BodyHTML,
			ProductType: r.ProductType,
			Tags:        splitTags(r.Tags),
		}
		for _, img := range r.Images {
			p.Images = append(p.Images, Image{URL: img.Src, Alt: img.Alt})
		}
		min, max := "", ""
		for _, v := range r.Variants {
			p.Variants = append(p.Variants, Variant{
				ID:        strconv.FormatInt(v.ID, 10),
				Title:     v.Title,
				Price:     v.Price,
				Available: v.InventoryQuantity > 0,
			})
			if min == "" || lessPrice(v.Price, min) {
				min = v.Price
			}
			if max == "" || lessPrice(max, v.Price) {
				max = v.Price
			}
		}
		p.PriceRange = PriceRange{Min: min, Max: max}
		products = append(products, p)
	}
	return products
}

func splitTags(tags string) []string {
	if tags == "" {
		return nil
	}
	var out []string
	for _, tag := range strings.Split(tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func lessPrice(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return a < b
	}
	return fa < fb
}
