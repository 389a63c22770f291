package entity

import (
	"regexp"
	"sort"
	"strings"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Catalog maps category name -> product display name -> source URL.
// It is static configuration and treated as read-only.
type Catalog map[string]map[string]string

// Categories returns the category names, sorted.
func (c Catalog) Categories() []string {
	out := make([]string, 0, len(c))
	for name := range c {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Products returns the products of a category sorted by name, and whether the
// category exists.
func (c Catalog) Products(category string) ([]ProductRef, bool) {
	products, ok := c[category]
	if !ok {
		return nil, false
	}
	out := make([]ProductRef, 0, len(products))
	for name, url := range products {
		out = append(out, ProductRef{Name: name, SourceURL: url})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, true
}

// SeriesKey maps a category onto the file-name-safe token its series is
// stored under. Distinct categories of one catalog must not share a key.
func SeriesKey(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return "default"
	}
	return unsafeKeyChars.ReplaceAllString(category, "_")
}
