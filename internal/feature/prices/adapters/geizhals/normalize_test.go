package geizhals

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pricewatch_backend/internal/feature/prices/usecase"
)

func TestNormalizePrice(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "german thousands and decimals", input: "1.234,56", want: 1234.56},
		{name: "euro sign prefix", input: "€ 699,99", want: 699.99},
		{name: "english thousands and decimals", input: "1,234.56", want: 1234.56},
		{name: "lone comma decimal", input: "849,9", want: 849.9},
		{name: "lone dot thousands", input: "1.234", want: 1234},
		{name: "lone dot decimal", input: "699.99", want: 699.99},
		{name: "dash cents", input: "€ 799,–", want: 799},
		{name: "rounds to cents", input: "12,345", want: 12.35},
		{name: "multiple dot groups", input: "1.234.567,89", want: 1234567.89},
		{name: "comma thousands groups", input: "1,234,567", want: 1234567},
		{name: "whitespace and nbsp", input: "\n  € 1.049,00  ", want: 1049},
		{name: "no digits", input: "ab Lager", wantErr: true},
		{name: "zero", input: "0,00", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizePrice(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, usecase.ErrPriceNotFound)
				return
			}
			assert.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}
