package normalize_test

import (
	"testing"

	"boutique/internal/apperrors"
	"boutique/internal/models"
	"boutique/internal/normalize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductFromMultipartForm(t *testing.T) {
	payload := normalize.FromForm(map[string][]string{
		"product_name":        {"  Kente Wrap Dress "},
		"short_description":   {"Handwoven <b>kente</b> dress"},
		"price_ghc":           {"249.999"},
		"sizes":               {`["S", " M ", "", "L"]`},
		"colors":              {"gold, green ,"},
		"categories":          {"Dresses", "Traditional"},
		"stock_quantity":      {"4"},
		"low_stock_threshold": {"2"},
		"promo":               {"on"},
		"promo_price":         {"199.5"},
	})

	in, err := normalize.Product(payload)
	require.NoError(t, err)

	assert.Equal(t, "Kente Wrap Dress", *in.ProductName)
	assert.Equal(t, "Handwoven kente dress", *in.ShortDescription)
	assert.Equal(t, 250.0, *in.PriceGHC)
	assert.Equal(t, []string{"S", "M", "L"}, *in.Sizes)
	assert.Equal(t, []string{"gold", "green"}, *in.Colors)
	assert.Equal(t, []string{"Dresses", "Traditional"}, *in.Categories)
	assert.Equal(t, 4, *in.StockQuantity)
	assert.Equal(t, 2, *in.LowStockThreshold)
	assert.True(t, *in.Promo)
	assert.Equal(t, 199.5, *in.PromoPrice)
	assert.Nil(t, in.Sections)
	assert.Nil(t, in.LongDescription)
}

func TestProductFromJSONWithAliases(t *testing.T) {
	payload, err := normalize.FromJSON([]byte(`{
		"name": "Ankara Shirt",
		"price": 120,
		"sections": ["Top Deals"],
		"promo": false,
		"promo_price": 99,
		"stock_status": "out-of-stock",
		"fabric_type": "Cotton & Silk"
	}`))
	require.NoError(t, err)

	in, err := normalize.Product(payload)
	require.NoError(t, err)

	assert.Equal(t, "Ankara Shirt", *in.ProductName)
	assert.Equal(t, 120.0, *in.PriceGHC)
	assert.Equal(t, []string{models.SectionTopDeals}, *in.Sections)
	assert.False(t, *in.Promo)
	assert.Nil(t, in.PromoPrice, "promo=false always drops promo_price")
	assert.Equal(t, models.OutOfStock, *in.StockStatus)
	assert.Equal(t, "Cotton & Silk", *in.FabricType)
}

func TestProductRejectsMalformedValues(t *testing.T) {
	cases := []struct {
		name  string
		raw   normalize.Payload
		field string
	}{
		{"non numeric price", normalize.Payload{"price_ghc": "cheap"}, "price_ghc"},
		{"negative price", normalize.Payload{"price_ghc": "-1"}, "price_ghc"},
		{"fractional quantity", normalize.Payload{"stock_quantity": "2.5"}, "stock_quantity"},
		{"negative threshold", normalize.Payload{"low_stock_threshold": -3.0}, "low_stock_threshold"},
		{"bad boolean", normalize.Payload{"promo": "maybe"}, "promo"},
		{"broken json list", normalize.Payload{"sizes": `["S",`}, "sizes"},
		{"huge price", normalize.Payload{"price_ghc": "1e400"}, "price_ghc"},
		{"huge promo price", normalize.Payload{"promo_price": 1e300}, "promo_price"},
		{"quantity past int range", normalize.Payload{"stock_quantity": "10000000000000000000"}, "stock_quantity"},
		{"threshold past int range", normalize.Payload{"low_stock_threshold": "18446744073709551615"}, "low_stock_threshold"},
		{"unknown stock status", normalize.Payload{"stock_status": "Backordered"}, "stock_status"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := normalize.Product(tc.raw)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.KindValidation))
			assert.Equal(t, tc.field, apperrors.FieldOf(err))
		})
	}
}

func TestProductEmptyStringsAreNotSupplied(t *testing.T) {
	in, err := normalize.Product(normalize.Payload{
		"price_ghc":      "",
		"stock_quantity": "  ",
		"promo":          "",
		"sizes":          "",
		"product_name":   "<p></p>",
	})
	require.NoError(t, err)
	assert.True(t, in.Empty())
}

func TestProductIgnoresIdentifier(t *testing.T) {
	in, err := normalize.Product(normalize.Payload{"id": "abc", "_id": "def"})
	require.NoError(t, err)
	assert.True(t, in.Empty())
}

func TestFromJSONRejectsNonObject(t *testing.T) {
	_, err := normalize.FromJSON([]byte(`[1,2]`))
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}
