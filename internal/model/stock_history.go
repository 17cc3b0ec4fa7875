package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockReason string

const (
	ReasonSale       StockReason = "sale"
	ReasonRestock    StockReason = "restock"
	ReasonReturn     StockReason = "return"
	ReasonAdjustment StockReason = "adjustment"
	ReasonInitial    StockReason = "initial"
)

// Valid reports whether r is one of the known ledger reasons.
func (r StockReason) Valid() bool {
	switch r {
	case ReasonSale, ReasonRestock, ReasonReturn, ReasonAdjustment, ReasonInitial:
		return true
	}
	return false
}

var ErrHistoryImmutable = errors.New("stock history entries are immutable")

// StockHistoryEntry is one immutable line of a cell's ledger.
// Change is always NewQuantity - PreviousQuantity.
type StockHistoryEntry struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	SizeID           uuid.UUID   `gorm:"type:uuid;not null;index:idx_history_size_seq,priority:1" json:"-"`
	ProductID        uuid.UUID   `gorm:"type:uuid;not null;index:idx_history_product_date,priority:1" json:"-"`
	Sequence         int         `gorm:"not null;index:idx_history_size_seq,priority:2" json:"sequence"`
	Date             time.Time   `gorm:"not null;index:idx_history_product_date,priority:2" json:"date"`
	PreviousQuantity int         `gorm:"not null" json:"previousQuantity"`
	NewQuantity      int         `gorm:"not null" json:"newQuantity"`
	Change           int         `gorm:"not null" json:"change"`
	Reason           StockReason `gorm:"type:varchar(20);not null" json:"reason"`
	OrderID          *uuid.UUID  `gorm:"type:uuid;index" json:"orderId,omitempty"`
	Note             string      `gorm:"type:text" json:"note,omitempty"`
	CreatedBy        string      `gorm:"type:varchar(255)" json:"createdBy,omitempty"`
}

func (e *StockHistoryEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *StockHistoryEntry) BeforeUpdate(tx *gorm.DB) error {
	return ErrHistoryImmutable
}

// InRange reports whether the entry date falls within [from, to]. Zero bounds are open.
func (e *StockHistoryEntry) InRange(from, to time.Time) bool {
	if !from.IsZero() && e.Date.Before(from) {
		return false
	}
	if !to.IsZero() && e.Date.After(to) {
		return false
	}
	return true
}
