package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderInStore    OrderStatus = "in store"
	OrderDispatched OrderStatus = "dispatched"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// ReleasesStock reports whether stock has been handed back for an order in this status.
func (s OrderStatus) ReleasesStock() bool {
	return s == OrderCancelled || s == OrderRefunded
}

type PaidStatus string

const (
	PaidPending  PaidStatus = "pending"
	PaidPaid     PaidStatus = "paid"
	PaidRefunded PaidStatus = "refunded"
)

// Address is embedded twice on Order (shipping, billing)
type Address struct {
	Name       string `gorm:"type:varchar(255)" json:"name,omitempty"`
	Line1      string `gorm:"type:varchar(255)" json:"line1,omitempty"`
	Line2      string `gorm:"type:varchar(255)" json:"line2,omitempty"`
	City       string `gorm:"type:varchar(100)" json:"city,omitempty"`
	State      string `gorm:"type:varchar(100)" json:"state,omitempty"`
	Country    string `gorm:"type:varchar(100)" json:"country,omitempty"`
	PostalCode string `gorm:"type:varchar(20)" json:"postalCode,omitempty"`
}

type Order struct {
	BaseModel
	UserID          uuid.UUID   `gorm:"type:uuid;not null;index" json:"userId"`
	Items           []OrderItem `gorm:"constraint:OnDelete:CASCADE;" json:"items"`
	ShippingAddress Address     `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	BillingAddress  Address     `gorm:"embedded;embeddedPrefix:billing_" json:"billingAddress"`
	PaymentMethod   string      `gorm:"type:varchar(50);not null" json:"paymentMethod"`

	ItemsPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"itemsPrice"`
	TaxPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"taxPrice"`
	ShippingPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"shippingPrice"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"totalPrice"`

	OrderStatus OrderStatus `gorm:"type:varchar(20);not null;default:'in store';index" json:"orderStatus"`
	PaidStatus  PaidStatus  `gorm:"type:varchar(20);not null;default:'pending'" json:"paidStatus"`
	PaidAt      *time.Time  `json:"paidAt,omitempty"`
	DeliveredAt *time.Time  `json:"deliveredAt,omitempty"`

	// Set once, when the cancel/refund restoration has been handed to inventory
	StockReleasedAt *time.Time `json:"stockReleasedAt,omitempty"`
}

type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"productId"`
	Color     string          `gorm:"type:varchar(100);not null" json:"color"`
	Size      string          `gorm:"type:varchar(50);not null" json:"size"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`

	// Set once the line's sale is in the ledger; only these lines are returned on cancel/refund
	StockApplied bool `gorm:"not null;default:false" json:"stockApplied"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Clone returns a copy that shares nothing mutable with o.
func (o *Order) Clone() *Order {
	cp := *o
	cp.Items = append([]OrderItem(nil), o.Items...)
	for _, t := range []**time.Time{&cp.PaidAt, &cp.DeliveredAt, &cp.StockReleasedAt} {
		if *t != nil {
			v := **t
			*t = &v
		}
	}
	return &cp
}
