// Package normalize turns loosely typed product payloads from multipart forms
// or JSON bodies into a typed ProductInput. Every field is optional at this
// layer; required-field checks belong to the product service.
package normalize

import (
	"encoding/json"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"boutique/internal/apperrors"
	"boutique/internal/models"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
)

// Payload is a raw request body keyed by wire field name. Values are string,
// []string, float64, bool, []any or nil.
type Payload map[string]any

// ProductInput holds the normalized, optional product fields. A nil pointer
// means the field was not supplied.
type ProductInput struct {
	ProductName       *string
	ShortDescription  *string
	LongDescription   *string
	FabricType        *string
	CoverImage        *string
	Video             *string
	OtherImages       *[]string
	Sizes             *[]string
	Colors            *[]string
	Categories        *[]string
	Sections          *[]string
	PriceGHC          *float64
	PromoPrice        *float64
	Promo             *bool
	StockQuantity     *int
	LowStockThreshold *int
	StockStatus       *string
}

var aliases = map[string]string{
	"name":  "product_name",
	"price": "price_ghc",
}

var strict = bluemonday.StrictPolicy()

// FromForm converts multipart or urlencoded form values into a Payload.
// Single values collapse to a string.
func FromForm(values map[string][]string) Payload {
	p := make(Payload, len(values))
	for k, vs := range values {
		switch len(vs) {
		case 0:
		case 1:
			p[k] = vs[0]
		default:
			cp := make([]string, len(vs))
			copy(cp, vs)
			p[k] = cp
		}
	}
	return p
}

// FromJSON decodes a JSON object body into a Payload.
func FromJSON(body []byte) (Payload, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return Payload{}, nil
	}
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, apperrors.Validation("body", "request body must be a JSON object")
	}
	if p == nil {
		p = Payload{}
	}
	return p, nil
}

// Product normalizes a raw payload. It fails with a validation error naming
// the first malformed field; absent and empty fields are simply left nil.
func Product(raw Payload) (ProductInput, error) {
	p := canonical(raw)
	var in ProductInput
	var err error

	in.ProductName = text(p, "product_name")
	in.ShortDescription = text(p, "short_description")
	in.LongDescription = text(p, "long_description")
	in.FabricType = text(p, "fabric_type")
	in.CoverImage = url(p, "cover_image")
	in.Video = url(p, "video")

	lists := []struct {
		key string
		dst **[]string
	}{
		{"other_images", &in.OtherImages},
		{"sizes", &in.Sizes},
		{"colors", &in.Colors},
		{"categories", &in.Categories},
		{"sections", &in.Sections},
	}
	for _, l := range lists {
		if *l.dst, err = list(p, l.key); err != nil {
			return ProductInput{}, err
		}
	}

	if in.PriceGHC, err = amount(p, "price_ghc"); err != nil {
		return ProductInput{}, err
	}
	if in.PromoPrice, err = amount(p, "promo_price"); err != nil {
		return ProductInput{}, err
	}
	if in.StockQuantity, err = count(p, "stock_quantity"); err != nil {
		return ProductInput{}, err
	}
	if in.LowStockThreshold, err = count(p, "low_stock_threshold"); err != nil {
		return ProductInput{}, err
	}
	if in.Promo, err = flag(p, "promo"); err != nil {
		return ProductInput{}, err
	}
	if in.StockStatus, err = stockStatus(p, "stock_status"); err != nil {
		return ProductInput{}, err
	}

	if in.Promo != nil && !*in.Promo {
		in.PromoPrice = nil
	}
	return in, nil
}

// Empty reports whether no field was supplied.
func (in ProductInput) Empty() bool {
	return in == ProductInput{}
}

func canonical(raw Payload) Payload {
	p := make(Payload, len(raw))
	for k, v := range raw {
		key := strings.TrimSpace(k)
		if alias, ok := aliases[key]; ok {
			if _, dup := raw[alias]; dup {
				continue
			}
			key = alias
		}
		p[key] = v
	}
	return p
}

// scalar returns the single string form of v, or "" when v is empty.
func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case []string:
		if len(t) == 0 {
			return "", false
		}
		s := strings.TrimSpace(t[len(t)-1])
		return s, s != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprint(t), true
	}
}

func text(p Payload, key string) *string {
	s, ok := scalar(p[key])
	if !ok {
		return nil
	}
	clean := strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
	if clean == "" {
		return nil
	}
	return &clean
}

func url(p Payload, key string) *string {
	s, ok := scalar(p[key])
	if !ok {
		return nil
	}
	return &s
}

func list(p Payload, key string) (*[]string, error) {
	v, present := p[key]
	if !present || v == nil {
		return nil, nil
	}

	var items []string
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		parsed, err := splitList(key, s)
		if err != nil {
			return nil, err
		}
		items = parsed
	case []string:
		if len(t) == 1 {
			s := strings.TrimSpace(t[0])
			if s == "" {
				return nil, nil
			}
			parsed, err := splitList(key, s)
			if err != nil {
				return nil, err
			}
			items = parsed
			break
		}
		items = t
	case []any:
		for _, e := range t {
			s, ok := scalar(e)
			if ok {
				items = append(items, s)
			}
		}
	default:
		return nil, apperrors.Validation(key, fmt.Sprintf("%s must be a list", key))
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if key != "other_images" {
			item = html.UnescapeString(strict.Sanitize(item))
		}
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return &out, nil
}

// splitList accepts a JSON encoded array or a comma separated string.
func splitList(key, s string) ([]string, error) {
	if strings.HasPrefix(s, "[") {
		var arr []any
		if err := json.Unmarshal([]byte(s), &arr); err != nil {
			return nil, apperrors.Validation(key, fmt.Sprintf("%s is not a valid list", key))
		}
		out := make([]string, 0, len(arr))
		for _, e := range arr {
			if v, ok := scalar(e); ok {
				out = append(out, v)
			}
		}
		return out, nil
	}
	return strings.Split(s, ","), nil
}

// Upper bounds for money amounts and counts.
var (
	maxAmount = decimal.NewFromInt(1_000_000_000)
	maxCount  = decimal.NewFromInt(math.MaxInt32)
)

func number(p Payload, key string) (*decimal.Decimal, error) {
	s, ok := scalar(p[key])
	if !ok {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, apperrors.Validation(key, fmt.Sprintf("%s must be a number", key))
	}
	if d.IsNegative() {
		return nil, apperrors.Validation(key, fmt.Sprintf("%s must not be negative", key))
	}
	return &d, nil
}

func amount(p Payload, key string) (*float64, error) {
	d, err := number(p, key)
	if err != nil || d == nil {
		return nil, err
	}
	if d.GreaterThan(maxAmount) {
		return nil, apperrors.Validation(key, fmt.Sprintf("%s is out of range", key))
	}
	f := RoundMoney(*d)
	return &f, nil
}

func count(p Payload, key string) (*int, error) {
	d, err := number(p, key)
	if err != nil || d == nil {
		return nil, err
	}
	if !d.IsInteger() {
		return nil, apperrors.Validation(key, fmt.Sprintf("%s must be a whole number", key))
	}
	if d.GreaterThan(maxCount) {
		return nil, apperrors.Validation(key, fmt.Sprintf("%s is out of range", key))
	}
	n := int(d.IntPart())
	return &n, nil
}

func flag(p Payload, key string) (*bool, error) {
	s, ok := scalar(p[key])
	if !ok {
		return nil, nil
	}
	var b bool
	switch strings.ToLower(s) {
	case "true", "1", "on", "yes":
		b = true
	case "false", "0", "off", "no":
		b = false
	default:
		return nil, apperrors.Validation(key, fmt.Sprintf("%s must be a boolean", key))
	}
	return &b, nil
}

func stockStatus(p Payload, key string) (*string, error) {
	s, ok := scalar(p[key])
	if !ok {
		return nil, nil
	}
	folded := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(s))
	var status string
	switch folded {
	case "instock":
		status = models.InStock
	case "outofstock":
		status = models.OutOfStock
	default:
		return nil, apperrors.Validation(key, fmt.Sprintf("%s must be %q or %q", key, models.InStock, models.OutOfStock))
	}
	return &status, nil
}

// RoundMoney rounds to two decimal places.
func RoundMoney(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
