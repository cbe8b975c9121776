package shopify

import "strings"

// CollectionRule classifies products into a storefront collection. Every
// endpoint that groups products consults this one table, so a product
// lands in the same collection no matter which route asked.
type CollectionRule struct {
	Handle string
	Title  string
	// Brands are matched as exact substrings of the product title,
	// trademark glyph included.
	Brands []string
	// Keywords are matched case-insensitively against tags and the
	// product type.
	Keywords []string
}

var collectionRules = []CollectionRule{
	{Handle: "kraftview", Title: "KraftView™ Pouches", Brands: []string{"KraftView™"}},
	{Handle: "whiteview", Title: "WhiteView™ Pouches", Brands: []string{"WhiteView™"}},
	{Handle: "blackview", Title: "BlackView™ Pouches", Brands: []string{"BlackView™"}},
	{Handle: "fullviewkraft", Title: "FullViewKraft™ Pouches", Brands: []string{"FullViewKraft™"}},
	{Handle: "kraftalu", Title: "KraftAlu™ Pouches", Brands: []string{"KraftAlu™"}},
	{Handle: "fullalu", Title: "FullAlu™ Pouches", Brands: []string{"FullAlu™"}},
	{Handle: "spout-pouches", Title: "Spout Pouches", Keywords: []string{"spout", "liquid"}},
}

// Rules returns the classification table.
func Rules() []CollectionRule {
	return collectionRules
}

// RuleFor finds the rule for a collection handle.
func RuleFor(handle string) (CollectionRule, bool) {
	for _, r := range collectionRules {
		if r.Handle == handle {
			return r, true
		}
	}
	return CollectionRule{}, false
}

// Classify filters products down to those belonging to the collection.
func Classify(products []Product, handle string) []Product {
	rule, ok := RuleFor(handle)
	if !ok {
		return nil
	}
	var out []Product
	for _, p := range products {
		if Matches(p, rule) {
			out = append(out, p)
		}
	}
	return out
}

// Matches reports whether the product belongs to the collection: the title
// contains one of the brand substrings, or a tag/product type contains one
// of the keywords.
func Matches(p Product, rule CollectionRule) bool {
	for _, brand := range rule.Brands {
		if strings.Contains(p.Title, brand) {
			return true
		}
	}
	for _, kw := range rule.Keywords {
		kw = strings.ToLower(kw)
		if strings.Contains(strings.ToLower(p.ProductType), kw) {
			return true
		}
		for _, tag := range p.Tags {
			if strings.Contains(strings.ToLower(tag), kw) {
				return true
			}
		}
	}
	return false
}
