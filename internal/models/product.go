package models

import "time"

const (
	InStock    = "In Stock"
	OutOfStock = "Out of Stock"

	DefaultLowStockThreshold = 5
)

// Storefront groupings a product can be listed under.
const (
	SectionNewArrivals = "New Arrivals"
	SectionTopDeals    = "Top Deals"
	SectionFastSelling = "Fast Selling Products"
)

// Product is a catalog entry. JSON and BSON names follow the storefront wire format.
type Product struct {
	ID                string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	ProductName       string    `json:"product_name" bson:"product_name" gorm:"not null"`
	CoverImage        string    `json:"cover_image" bson:"cover_image"`
	OtherImages       []string  `json:"other_images" bson:"other_images" gorm:"serializer:json;type:text"`
	Video             string    `json:"video" bson:"video"`
	Sizes             []string  `json:"sizes" bson:"sizes" gorm:"serializer:json;type:text"`
	Colors            []string  `json:"colors" bson:"colors" gorm:"serializer:json;type:text"`
	FabricType        string    `json:"fabric_type" bson:"fabric_type"`
	ShortDescription  string    `json:"short_description" bson:"short_description"`
	LongDescription   string    `json:"long_description" bson:"long_description"`
	PriceGHC          float64   `json:"price_ghc" bson:"price_ghc"`
	StockStatus       string    `json:"stock_status" bson:"stock_status"`
	StockQuantity     int       `json:"stock_quantity" bson:"stock_quantity" gorm:"index"`
	LowStockThreshold int       `json:"low_stock_threshold" bson:"low_stock_threshold"`
	Promo             bool      `json:"promo" bson:"promo"`
	PromoPrice        *float64  `json:"promo_price" bson:"promo_price"`
	Categories        []string  `json:"categories" bson:"categories" gorm:"serializer:json;type:text"`
	Sections          []string  `json:"sections" bson:"sections" gorm:"serializer:json;type:text"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at" gorm:"index"`
	UpdatedAt         time.Time `json:"updated_at" bson:"updated_at"`
}

// IsLowStock reports whether the quantity is at or below the alert threshold.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.LowStockThreshold
}

// HasCategory reports whether name is one of the product's categories, ignoring case.
func (p *Product) HasCategory(name string) bool {
	return containsFold(p.Categories, name)
}

// HasSection reports whether name is one of the product's sections, ignoring case.
func (p *Product) HasSection(name string) bool {
	return containsFold(p.Sections, name)
}

// StatusForQuantity derives the stock status from a quantity.
func StatusForQuantity(qty int) string {
	if qty > 0 {
		return InStock
	}
	return OutOfStock
}

// Clone returns a deep copy so stored products never share slices with callers.
func (p Product) Clone() Product {
	p.OtherImages = cloneStrings(p.OtherImages)
	p.Sizes = cloneStrings(p.Sizes)
	p.Colors = cloneStrings(p.Colors)
	p.Categories = cloneStrings(p.Categories)
	p.Sections = cloneStrings(p.Sections)
	if p.PromoPrice != nil {
		v := *p.PromoPrice
		p.PromoPrice = &v
	}
	return p
}
