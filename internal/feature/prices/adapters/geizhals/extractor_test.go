package geizhals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricewatch_backend/internal/feature/prices/usecase"
)

const pageWithRange = `<html><body>
<div id="pricerange-min"><span class="gh_price">€ 829,00</span></div>
<span class="gh_price">€ 899,00</span>
</body></html>`

const pageWithGhPrice = `<html><body>
<div class="offer"><span class="gh_price">€ 1.049,90</span></div>
<span class="price">€ 1.199,00</span>
</body></html>`

const pageWithPriceClass = `<html><body><div class="price"> 749,- </div></body></html>`

const pageWithMeta = `<html><head><meta itemprop="price" content="779.00"></head><body></body></html>`

const pageWithoutPrice = `<html><body><p>Derzeit nicht lieferbar</p><span class="gh_price"> </span></body></html>`

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		html    string
		want    float64
		wantErr error
	}{
		{name: "price range minimum wins", html: pageWithRange, want: 829},
		{name: "generic gh_price", html: pageWithGhPrice, want: 1049.90},
		{name: "secondary price class", html: pageWithPriceClass, want: 749},
		{name: "structured data meta", html: pageWithMeta, want: 779},
		{name: "no price", html: pageWithoutPrice, wantErr: usecase.ErrPriceNotFound},
		{name: "empty document", html: "", wantErr: usecase.ErrPriceNotFound},
	}

	ex := NewExtractor(nil)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ex.Extract(tc.html)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestExtractor_CustomRules(t *testing.T) {
	t.Parallel()

	ex := NewExtractor([]Rule{{Name: "data-attr", Selector: "[data-price]", Attr: "data-price"}})

	got, err := ex.Extract(`<div data-price="1.299,00"></div><span class="gh_price">1,00</span>`)
	require.NoError(t, err)
	assert.Equal(t, 1299.0, got)
}

func TestExtractor_UnparsableFirstMatch(t *testing.T) {
	t.Parallel()

	_, err := NewExtractor(nil).Extract(`<span class="gh_price">auf Anfrage</span>`)
	assert.ErrorIs(t, err, usecase.ErrPriceNotFound)
}
