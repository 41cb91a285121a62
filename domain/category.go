package domain

import "sort"

// Category is one of the two top-level listing domains. Each category has its own credit pool.
type Category string

const (
	CategorySpareParts Category = "spare_parts"
	CategoryAutomotive Category = "automotive"
)

// Categories lists every category in display order
var Categories = []Category{CategorySpareParts, CategoryAutomotive}

var subCategories = map[Category][]string{
	CategorySpareParts: {
		"engine",
		"transmission",
		"brakes",
		"suspension",
		"electrical",
		"body_parts",
		"interior",
		"wheels_tires",
		"lights",
		"accessories",
		"other",
	},
	CategoryAutomotive: {
		"sedan",
		"suv",
		"pickup",
		"coupe",
		"hatchback",
		"van",
		"motorcycle",
		"truck",
		"classic",
		"other",
	},
}

// Label returns the human readable category name
func (c Category) Label() string {
	switch c {
	case CategorySpareParts:
		return "Spare Parts"
	case CategoryAutomotive:
		return "Automotive"
	}
	return string(c)
}

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	_, ok := subCategories[c]
	return ok
}

// SubCategories returns a copy of the allowed sub-categories for c
func (c Category) SubCategories() []string {
	subs := subCategories[c]
	out := make([]string, len(subs))
	copy(out, subs)
	return out
}

// ValidCategoryPair reports whether sub belongs to category
func ValidCategoryPair(category Category, sub string) bool {
	for _, s := range subCategories[category] {
		if s == sub {
			return true
		}
	}
	return false
}

// CategoryTable returns the full category to sub-category table, sorted for stable output
func CategoryTable() map[Category][]string {
	out := make(map[Category][]string, len(subCategories))
	for c := range subCategories {
		subs := c.SubCategories()
		sort.Strings(subs)
		out[c] = subs
	}
	return out
}
