package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LowStockThreshold is the fixed cutoff below which a cell is flagged in reports.
const LowStockThreshold = 5

type Product struct {
	BaseModel
	SKU          string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	Description  string          `gorm:"type:text" json:"description"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Featured     bool            `gorm:"default:false" json:"featured"`
	StockDetails string          `gorm:"type:text" json:"stockDetails,omitempty"`
	Supplier     string          `gorm:"type:varchar(255)" json:"supplier,omitempty"`

	// Derived from the cells; recomputed on every stock write
	TotalInventoryCost decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"totalInventoryCost"`
	LastRestockDate    *time.Time      `json:"lastRestockDate,omitempty"`

	// Associations
	Categories []Category     `gorm:"many2many:product_categories;" json:"categories,omitempty"`
	Images     []ProductImage `gorm:"constraint:OnDelete:CASCADE;" json:"images,omitempty"`
	Colors     []ColorVariant `gorm:"constraint:OnDelete:CASCADE;" json:"colors"`
}

// ImageRef points at an uploaded original and its thumbnail.
type ImageRef struct {
	Original  string `gorm:"type:varchar(500)" json:"original,omitempty"`
	Thumbnail string `gorm:"type:varchar(500)" json:"thumbnail,omitempty"`
}

type ProductImage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	ImageRef
	Position int `gorm:"not null;default:0" json:"-"`
}

// ColorVariant groups the sizes of one color. A color with zero sizes is valid but unsellable.
type ColorVariant struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_color_product_name" json:"-"`
	Name      string        `gorm:"type:varchar(100);not null;uniqueIndex:idx_color_product_name" json:"name"`
	Image     ImageRef      `gorm:"embedded;embeddedPrefix:image_" json:"image"`
	Position  int           `gorm:"not null;default:0" json:"-"`
	Sizes     []SizeVariant `gorm:"foreignKey:ColorID;constraint:OnDelete:CASCADE;" json:"sizes"`
}

// SizeVariant is one stock cell. Quantity always equals the NewQuantity of the
// last ledger entry; EntryCount is the number of entries ever appended.
type SizeVariant struct {
	ID           uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	ColorID      uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_size_color_name" json:"-"`
	Name         string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_size_color_name" json:"name"`
	Quantity     int                 `gorm:"not null;default:0" json:"quantity"`
	PurchaseCost decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0" json:"purchaseCost"`
	Position     int                 `gorm:"not null;default:0" json:"-"`
	EntryCount   int                 `gorm:"not null;default:0" json:"-"`
	History      []StockHistoryEntry `gorm:"foreignKey:SizeID;constraint:OnDelete:CASCADE;" json:"history,omitempty"`
}

func (i *ProductImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (c *ColorVariant) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (s *SizeVariant) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// IsLowStock reports whether the cell sits below LowStockThreshold.
func (s *SizeVariant) IsLowStock() bool {
	return s.Quantity < LowStockThreshold
}

// TotalQuantity sums quantity across every cell of the product.
func (p *Product) TotalQuantity() int {
	total := 0
	for _, c := range p.Colors {
		for _, s := range c.Sizes {
			total += s.Quantity
		}
	}
	return total
}

// HasCategory reports whether the product is filed under the given category.
func (p *Product) HasCategory(id uuid.UUID) bool {
	for _, c := range p.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}
