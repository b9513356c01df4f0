package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Ramiz200513/ShopMagazine-CleanArchMvvm/domain/shop"
)

// SortOption selects the ordering applied after filtering.
type SortOption string

const (
	SortNone       SortOption = "none"
	SortPriceAsc   SortOption = "price_asc"
	SortPriceDesc  SortOption = "price_desc"
	SortTitle      SortOption = "title"
	SortRatingDesc SortOption = "rating_desc"
)

// ParseSortOption parses a sort option string. The empty string means
// SortNone.
func ParseSortOption(s string) (SortOption, error) {
	switch SortOption(s) {
	case "", SortNone:
		return SortNone, nil
	case SortPriceAsc, SortPriceDesc, SortTitle, SortRatingDesc:
		return SortOption(s), nil
	default:
		return SortNone, fmt.Errorf("unknown sort option %q", s)
	}
}

// applyFilters keeps a product iff the search text matches its title
// (case-insensitive substring, empty matches all), its category is in
// the selected set (empty set matches all), and its rating meets the
// floor (nil floor matches all).
func applyFilters(products []shop.Product, search string, selected map[string]struct{}, minRating *float64) []shop.Product {
	query := strings.ToLower(search)
	filtered := make([]shop.Product, 0, len(products))
	for _, p := range products {
		if query != "" && !strings.Contains(strings.ToLower(p.Title), query) {
			continue
		}
		if len(selected) > 0 {
			if _, ok := selected[p.Category]; !ok {
				continue
			}
		}
		if minRating != nil && p.Rating.Rate < *minRating {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

// applySort orders products by the given option. SortNone passes the
// slice through unchanged; every other option is a stable sort, so ties
// keep their filter-result order.
func applySort(products []shop.Product, option SortOption) []shop.Product {
	if option == SortNone {
		return products
	}
	sorted := make([]shop.Product, len(products))
	copy(sorted, products)
	switch option {
	case SortPriceAsc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })
	case SortPriceDesc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price > sorted[j].Price })
	case SortTitle:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Title < sorted[j].Title })
	case SortRatingDesc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rating.Rate > sorted[j].Rating.Rate })
	}
	return sorted
}

// deriveCategories returns the distinct categories of the unfiltered
// catalog in first-seen order. Deriving from the unfiltered list keeps
// every category selectable even when the current filters hide all of
// its products.
func deriveCategories(products []shop.Product) []string {
	seen := make(map[string]struct{}, len(products))
	categories := make([]string, 0)
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories
}
