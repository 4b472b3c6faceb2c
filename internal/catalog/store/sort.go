package store

import (
	"cmp"
	"slices"
	"strings"

	"countrycatalog/internal/catalog/models"
)

// sortCountries orders list in place. GDP orderings place null estimates
// last in both directions; ties fall back to insertion order.
func sortCountries(list []*models.Country, order models.SortOrder) {
	slices.SortStableFunc(list, func(a, b *models.Country) int {
		var c int
		switch order {
		case models.SortGDPDesc:
			c = compareGDP(a, b, true)
		case models.SortGDPAsc:
			c = compareGDP(a, b, false)
		case models.SortNameDesc:
			c = cmp.Compare(strings.ToLower(b.Name), strings.ToLower(a.Name))
		case models.SortPopulationDesc:
			c = cmp.Compare(b.Population, a.Population)
		default:
			c = cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func compareGDP(a, b *models.Country, desc bool) int {
	switch {
	case a.EstimatedGDP == nil && b.EstimatedGDP == nil:
		return 0
	case a.EstimatedGDP == nil:
		return 1
	case b.EstimatedGDP == nil:
		return -1
	}
	if desc {
		return cmp.Compare(*b.EstimatedGDP, *a.EstimatedGDP)
	}
	return cmp.Compare(*a.EstimatedGDP, *b.EstimatedGDP)
}
