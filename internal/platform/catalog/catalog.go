// Package catalog loads the tracked product listings from YAML.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"pricewatch_backend/internal/feature/prices/domain/entity"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// ErrInvalidCatalog is returned for catalogs with missing names or bad URLs.
var ErrInvalidCatalog = errors.New("invalid catalog")

type file struct {
	Categories map[string]map[string]string `yaml:"categories"`
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) (entity.Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(b)
}

// Default returns the embedded catalog.
func Default() entity.Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Parse decodes and validates a YAML catalog.
func Parse(b []byte) (entity.Catalog, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("%w: no categories", ErrInvalidCatalog)
	}

	out := make(entity.Catalog, len(f.Categories))
	keys := make(map[string]string, len(f.Categories))
	for category, products := range f.Categories {
		category = strings.TrimSpace(category)
		if category == "" {
			return nil, fmt.Errorf("%w: empty category name", ErrInvalidCatalog)
		}
		key := entity.SeriesKey(category)
		if other, ok := keys[key]; ok {
			return nil, fmt.Errorf("%w: categories %q and %q share series key %q", ErrInvalidCatalog, other, category, key)
		}
		keys[key] = category
		if len(products) == 0 {
			return nil, fmt.Errorf("%w: category %q has no products", ErrInvalidCatalog, category)
		}
		out[category] = make(map[string]string, len(products))
		for name, raw := range products {
			name = strings.TrimSpace(name)
			if name == "" {
				return nil, fmt.Errorf("%w: empty product name in %q", ErrInvalidCatalog, category)
			}
			u, err := url.Parse(strings.TrimSpace(raw))
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return nil, fmt.Errorf("%w: bad url for %q: %q", ErrInvalidCatalog, name, raw)
			}
			out[category][name] = u.String()
		}
	}
	return out, nil
}
