package services

import (
	"sort"
	"strings"

	"farmart/internal/models"
)

// Sort keys accepted by the catalog.
const (
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortAgeAsc    = "age-asc"
	SortAgeDesc   = "age-desc"
)

// Age brackets accepted by the catalog, in months.
const (
	AgeBracketAll    = "all"
	AgeBracketCalf   = "0-12"
	AgeBracketYoung  = "13-24"
	AgeBracketMature = "24+"
)

// FilterAll disables the breed filter.
const FilterAll = "all"

// CatalogQuery describes how a buyer narrows and orders the catalog.
type CatalogQuery struct {
	Search     string // case-insensitive substring match on breed and type
	Breed      string // exact breed match; "" or "all" disables
	AgeBracket string // "all", "0-12", "13-24" or "24+"
	SortBy     string // one of the Sort* keys; anything else keeps input order
}

// CatalogService filters and sorts animals for browsing. It is pure: no
// persistence, no side effects, identical inputs give identical output
// ordering (stable sort, ties keep input order).
type CatalogService struct{}

// NewCatalogService creates a new CatalogService.
func NewCatalogService() *CatalogService {
	return &CatalogService{}
}

// Filter returns the animals matching the query, ordered by the sort key.
// An empty catalog or a query nothing matches yields an empty slice.
func (s *CatalogService) Filter(animals []models.Animal, q CatalogQuery) []models.Animal {
	term := strings.ToLower(q.Search)
	result := make([]models.Animal, 0, len(animals))

	for _, animal := range animals {
		if term != "" &&
			!strings.Contains(strings.ToLower(animal.Breed), term) &&
			!strings.Contains(strings.ToLower(animal.Type), term) {
			continue
		}
		if q.Breed != "" && q.Breed != FilterAll && animal.Breed != q.Breed {
			continue
		}
		if !matchesAgeBracket(animal.Age, q.AgeBracket) {
			continue
		}
		result = append(result, animal)
	}

	sort.SliceStable(result, func(i, j int) bool {
		switch q.SortBy {
		case SortPriceAsc:
			return result[i].Price < result[j].Price
		case SortPriceDesc:
			return result[i].Price > result[j].Price
		case SortAgeAsc:
			return result[i].Age < result[j].Age
		case SortAgeDesc:
			return result[i].Age > result[j].Age
		default:
			return false
		}
	})

	return result
}

func matchesAgeBracket(age int, bracket string) bool {
	switch bracket {
	case "", AgeBracketAll:
		return true
	case AgeBracketCalf:
		return age <= 12
	case AgeBracketYoung:
		return age > 12 && age <= 24
	case AgeBracketMature:
		return age > 24
	default:
		return true
	}
}

// Breeds returns the distinct breeds present in the catalog with "all"
// first, in first-seen order. This feeds the breed filter dropdown.
func (s *CatalogService) Breeds(animals []models.Animal) []string {
	breeds := []string{FilterAll}
	seen := make(map[string]bool)
	for _, animal := range animals {
		if !seen[animal.Breed] {
			seen[animal.Breed] = true
			breeds = append(breeds, animal.Breed)
		}
	}
	return breeds
}
