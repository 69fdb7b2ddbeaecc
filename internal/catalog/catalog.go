// Package catalog holds the static product and chip reference data the
// scenario engine selects from. The data is read-only to every consumer;
// a reload swaps the whole snapshot.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrProductNotFound is returned by Lookup for unknown product ids.
var ErrProductNotFound = errors.New("product not found")

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Product is immutable reference data. Zero Price, Rating and ReviewCount mean "not shown".
type Product struct {
	ID          string  `yaml:"id" json:"id"`
	Title       string  `yaml:"title" json:"title"`
	ImageRef    string  `yaml:"image" json:"image"`
	Price       float64 `yaml:"price,omitempty" json:"price,omitempty"`
	Rating      float64 `yaml:"rating,omitempty" json:"rating,omitempty"`
	ReviewCount int     `yaml:"reviews,omitempty" json:"reviews,omitempty"`
}

// Category is a top-level chip with its subchips.
type Category struct {
	Name     string   `yaml:"name" json:"name"`
	Subchips []string `yaml:"subchips" json:"subchips"`
}

type document struct {
	Products   []Product  `yaml:"products"`
	Categories []Category `yaml:"categories"`
}

// Catalog is a concurrency-safe holder of the current catalog snapshot.
type Catalog struct {
	mu         sync.RWMutex
	products   []Product
	categories []Category
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &Catalog{products: doc.Products, categories: doc.Categories}, nil
}

func (d document) validate() error {
	if len(d.Products) == 0 {
		return fmt.Errorf("catalog has no products")
	}
	seen := make(map[string]struct{}, len(d.Products))
	for i, p := range d.Products {
		if p.ID == "" || p.Title == "" {
			return fmt.Errorf("product %d: id and title are required", i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate product id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	for i, c := range d.Categories {
		if c.Name == "" {
			return fmt.Errorf("category %d: name is required", i)
		}
	}
	return nil
}

// Products returns a copy of the product list.
func (c *Catalog) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Categories returns a copy of the top-level categories.
func (c *Catalog) Categories() []Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		out[i] = Category{Name: cat.Name, Subchips: append([]string(nil), cat.Subchips...)}
	}
	return out
}

// CategoryNames returns the top-level chip labels in order.
func (c *Catalog) CategoryNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.categories))
	for i, cat := range c.categories {
		names[i] = cat.Name
	}
	return names
}

// Subchips returns the subchip labels of a category, or nil for unknown names.
func (c *Catalog) Subchips(category string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cat := range c.categories {
		if cat.Name == category {
			return append([]string(nil), cat.Subchips...)
		}
	}
	return nil
}

// Lookup finds a product by id.
func (c *Catalog) Lookup(id string) (Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
}

// Replace swaps in the contents of next.
func (c *Catalog) Replace(next *Catalog) {
	products, categories := next.Products(), next.Categories()
	c.mu.Lock()
	c.products = products
	c.categories = categories
	c.mu.Unlock()
}
