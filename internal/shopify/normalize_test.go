package shopify

import (
	"encoding/json"
	"testing"
)

func TestNormalizeGraphQLProducts(t *testing.T) {
	raw := `{
		"edges": [
			{"node": {
				"id": "gid://shopify/Product/1",
				"title": "KraftView™ Large Pouch",
				"handle": "kraftview-large",
				"description": "A pouch.",
				"productType": "Pouch",
				"tags": ["kraft", "window"],
				"priceRange": {
					"minVariantPrice": {"amount": "1.50", "currencyCode": "TND"},
					"maxVariantPrice": {"amount": "3.00", "currencyCode": "TND"}
				},
				"images": {"edges": [{"node": {"url": "https://cdn/x.jpg", "altText": "front"}}]},
				"variants": {"edges": [
					{"node": {"id": "v1", "title": "Small", "availableForSale": true, "price": {"amount": "1.50"}}},
					{"node": {"id": "v2", "title": "Large", "availableForSale": false, "price": {"amount": "3.00"}}}
				]}
			}}
		]
	}`

	var conn gqlProductConnection
	if err := json.Unmarshal([]byte(raw), &conn); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	products := normalizeGraphQLProducts(conn)
	if len(products) != 1 {
		t.Fatalf("got %d products, want 1", len(products))
	}

	p := products[0]
	if p.ID != "gid://shopify/Product/1" || p.Handle != "kraftview-large" {
		t.Errorf("unexpected identity: %+v", p)
	}
	if p.PriceRange.Min != "1.50" || p.PriceRange.Max != "3.00" || p.PriceRange.Currency != "TND" {
		t.Errorf("unexpected price range: %+v", p.PriceRange)
	}
	if len(p.Images) != 1 || p.Images[0].URL != "https://cdn/x.jpg" {
		t.Errorf("unexpected images: %+v", p.Images)
	}
	if len(p.Variants) != 2 || !p.Variants[0].Available || p.Variants[1].Available {
		t.Errorf("unexpected variants: %+v", p.Variants)
	}
	if len(p.Tags) != 2 {
		t.Errorf("unexpected tags: %v", p.Tags)
	}
}

func TestNormalizeRESTProducts(t *testing.T) {
	raw := `[{
		"id": 42,
		"title": "Sauce Pack",
		"handle": "sauce-pack",
		"body_html": "<p>liquid</p>",
		"product_type": "Spout Pouch",
		"tags": "liquid, food , ",
		"images": [{"src": "https://cdn/y.jpg", "alt": ""}],
		"variants": [
			{"id": 1, "title": "250ml", "price": "2.00", "inventory_quantity": 5},
			{"id": 2, "title": "500ml", "price": "10.00", "inventory_quantity": 0},
			{"id": 3, "title": "100ml", "price": "0.90", "inventory_quantity": 3}
		]
	}]`

	var in []restProduct
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	products := normalizeRESTProducts(in)
	if len(products) != 1 {
		t.Fatalf("got %d products, want 1", len(products))
	}

	p := products[0]
	if p.ID != "42" {
		t.Errorf("got id %s, want 42", p.ID)
	}
	if got := p.Tags; len(got) != 2 || got[0] != "liquid" || got[1] != "food" {
		t.Errorf("unexpected tags: %v", got)
	}
	// Numeric comparison: "10.00" > "2.00" even though it sorts lower as a string.
	if p.PriceRange.Min != "0.90" || p.PriceRange.Max != "10.00" {
		t.Errorf("unexpected price range: %+v", p.PriceRange)
	}
	if !p.Variants[0].Available || p.Variants[1].Available {
		t.Errorf("availability should follow inventory: %+v", p.Variants)
	}
}
