package core

import (
	"fmt"

	"github.com/krishimitra/assistant/internal/store"
)

var productCategories = []string{
	store.CategorySeeds,
	store.CategoryFertilizers,
	store.CategoryTools,
	store.CategoryIrrigation,
}

// CatalogStore is the product catalog contract.
type CatalogStore interface {
	SearchProducts(term, category string) ([]store.Product, error)
}

type CatalogService struct {
	products CatalogStore
}

func NewCatalogService(products CatalogStore) *CatalogService {
	return &CatalogService{products: products}
}

// Search returns products matching the term and category; both are optional
// and combinable. An unknown category is rejected rather than matched to nothing.
func (s *CatalogService) Search(term, category string) ([]store.Product, error) {
	if category != "" && !contains(productCategories, category) {
		return nil, fmt.Errorf("unknown product category %q", category)
	}
	return s.products.SearchProducts(term, category)
}

// Categories lists the catalog's fixed categories for the storefront filter.
func (s *CatalogService) Categories() []string {
	return append([]string(nil), productCategories...)
}
