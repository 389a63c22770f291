package geizhals

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricewatch_backend/internal/feature/prices/usecase"
)

// Rule locates a price on a page. Attr, when set, reads an attribute of the
// first match instead of its text.
type Rule struct {
	Name     string
	Selector string
	Attr     string
}

// DefaultRules are tried in order; the first match with non-empty text wins.
var DefaultRules = []Rule{
	{Name: "price-range-min", Selector: "#pricerange-min .gh_price"},
	{Name: "gh-price", Selector: "span.gh_price"},
	{Name: "price-class", Selector: ".price"},
	{Name: "schema-price", Selector: `meta[itemprop="price"]`, Attr: "content"},
}

// Extractor pulls the current price out of a listing page.
type Extractor struct {
	rules []Rule
}

// NewExtractor creates an Extractor. Empty rules means DefaultRules.
func NewExtractor(rules []Rule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Extractor{rules: rules}
}

// Extract returns the price found by the first matching rule.
func (e *Extractor) Extract(html string) (float64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("%w: parse html: %w", usecase.ErrPriceNotFound, err)
	}

	for _, r := range e.rules {
		sel := doc.Find(r.Selector).First()
		if sel.Length() == 0 {
			continue
		}
		var text string
		if r.Attr != "" {
			text, _ = sel.Attr(r.Attr)
		} else {
			text = sel.Text()
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		price, err := NormalizePrice(text)
		if err != nil {
			return 0, fmt.Errorf("rule %s: %w", r.Name, err)
		}
		return price, nil
	}
	return 0, usecase.ErrPriceNotFound
}
