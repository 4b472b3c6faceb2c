package models

import (
	"fmt"
	"strings"
)

// SortOrder selects the ordering of a list query.
type SortOrder string

const (
	SortDefault        SortOrder = ""
	SortGDPDesc        SortOrder = "gdp_desc"
	SortGDPAsc         SortOrder = "gdp_asc"
	SortNameAsc        SortOrder = "name_asc"
	SortNameDesc       SortOrder = "name_desc"
	SortPopulationDesc SortOrder = "population_desc"
)

// ParseSortOrder validates a sort query value. Empty means the default
// ordering (name ascending).
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortDefault, SortGDPDesc, SortGDPAsc, SortNameAsc, SortNameDesc, SortPopulationDesc:
		return o, nil
	default:
		return "", fmt.Errorf("unsupported sort %q", s)
	}
}

// ListFilter narrows a catalog scan. Empty fields do not filter.
type ListFilter struct {
	Region   string
	Currency string
	Sort     SortOrder
}
