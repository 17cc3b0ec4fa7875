package model

import (
	"fmt"
	"time"

	"go-shop-inventory/internal/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockChange is a requested quantity delta on one (color, size) cell.
type StockChange struct {
	Color        string
	Size         string
	Delta        int
	Reason       StockReason
	OrderID      *uuid.UUID
	Note         string
	PurchaseCost *decimal.Decimal
	Actor        string
}

func (ch StockChange) validate() error {
	switch ch.Reason {
	case ReasonSale:
		if ch.Delta >= 0 {
			return apperr.NewValidation("delta", "lt", "sale must carry a negative change")
		}
		if ch.OrderID == nil {
			return apperr.NewValidation("orderId", "required", "sale must reference an order")
		}
	case ReasonRestock, ReasonReturn:
		if ch.Delta <= 0 {
			return apperr.NewValidation("delta", "gt", fmt.Sprintf("%s must carry a positive change", ch.Reason))
		}
	case ReasonAdjustment:
		if ch.Delta == 0 {
			return apperr.NewValidation("delta", "ne", "adjustment must change the quantity")
		}
	case ReasonInitial:
		return apperr.NewValidation("reason", "oneof", "initial entries are only written when a size is created")
	default:
		return apperr.NewValidation("reason", "oneof", fmt.Sprintf("unknown stock reason %q", ch.Reason))
	}
	if ch.PurchaseCost != nil && ch.PurchaseCost.IsNegative() {
		return apperr.NewValidation("purchaseCost", "gte", "purchase cost cannot be negative")
	}
	return nil
}

// FindCell resolves a cell by color and size name. The returned pointers alias
// p.Colors and stay valid until the slices are restructured.
func (p *Product) FindCell(color, size string) (*ColorVariant, *SizeVariant, error) {
	for i := range p.Colors {
		c := &p.Colors[i]
		if c.Name != color {
			continue
		}
		for j := range c.Sizes {
			if c.Sizes[j].Name == size {
				return c, &c.Sizes[j], nil
			}
		}
		return c, nil, apperr.NewNotFound("size", color+"/"+size)
	}
	return nil, nil, apperr.NewNotFound("color", color)
}

// ApplyStockChange moves one cell by ch.Delta, appends the ledger entry and
// recomputes the derived cost fields. A change that would leave the cell
// negative is rejected and nothing is modified.
func (p *Product) ApplyStockChange(ch StockChange, at time.Time) (*StockHistoryEntry, error) {
	if err := ch.validate(); err != nil {
		return nil, err
	}
	_, size, err := p.FindCell(ch.Color, ch.Size)
	if err != nil {
		return nil, err
	}

	prev := size.Quantity
	next := prev + ch.Delta
	if next < 0 {
		return nil, &apperr.InsufficientStockError{
			ProductID: p.ID.String(),
			Color:     ch.Color,
			Size:      ch.Size,
			Available: prev,
			Requested: -ch.Delta,
		}
	}

	entry := size.appendEntry(StockHistoryEntry{
		ProductID:        p.ID,
		Date:             at,
		PreviousQuantity: prev,
		NewQuantity:      next,
		Change:           ch.Delta,
		Reason:           ch.Reason,
		OrderID:          ch.OrderID,
		Note:             ch.Note,
		CreatedBy:        ch.Actor,
	})

	// last write wins, no averaging
	if ch.PurchaseCost != nil {
		size.PurchaseCost = *ch.PurchaseCost
	}
	if ch.Reason == ReasonRestock {
		restocked := at
		p.LastRestockDate = &restocked
	}
	p.RecomputeInventoryCost()
	return &entry, nil
}

func (s *SizeVariant) appendEntry(e StockHistoryEntry) StockHistoryEntry {
	s.EntryCount++
	e.SizeID = s.ID
	e.Sequence = s.EntryCount
	s.Quantity = e.NewQuantity
	s.History = append(s.History, e)
	return e
}

// InitializeLedger writes the initial entry of every size that has none yet.
// IDs are assigned here so ledger rows can reference them before insert.
func (p *Product) InitializeLedger(at time.Time, actor string) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for i := range p.Colors {
		c := &p.Colors[i]
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.ProductID = p.ID
		c.Position = i
		for j := range c.Sizes {
			s := &c.Sizes[j]
			if s.ID == uuid.Nil {
				s.ID = uuid.New()
			}
			s.ColorID = c.ID
			s.Position = j
			if s.EntryCount > 0 {
				continue
			}
			s.appendEntry(StockHistoryEntry{
				ProductID:        p.ID,
				Date:             at,
				PreviousQuantity: 0,
				NewQuantity:      s.Quantity,
				Change:           s.Quantity,
				Reason:           ReasonInitial,
				CreatedBy:        actor,
			})
		}
	}
	p.RecomputeInventoryCost()
}

// RecomputeInventoryCost sets TotalInventoryCost to the sum of quantity x purchase cost.
func (p *Product) RecomputeInventoryCost() {
	total := decimal.Zero
	for _, c := range p.Colors {
		for _, s := range c.Sizes {
			total = total.Add(s.PurchaseCost.Mul(decimal.NewFromInt(int64(s.Quantity))))
		}
	}
	p.TotalInventoryCost = total
}

// ValidateVariants checks names are present and unique and that stock
// figures are non-negative.
func (p *Product) ValidateVariants() error {
	var fields []apperr.FieldError
	colors := make(map[string]bool, len(p.Colors))
	for i, c := range p.Colors {
		path := fmt.Sprintf("colors[%d]", i)
		if c.Name == "" {
			fields = append(fields, apperr.FieldError{Field: path + ".name", Tag: "required", Message: path + ".name is required"})
		} else if colors[c.Name] {
			fields = append(fields, apperr.FieldError{Field: path + ".name", Tag: "unique", Message: fmt.Sprintf("color %q is duplicated", c.Name)})
		}
		colors[c.Name] = true

		sizes := make(map[string]bool, len(c.Sizes))
		for j, s := range c.Sizes {
			spath := fmt.Sprintf("%s.sizes[%d]", path, j)
			if s.Name == "" {
				fields = append(fields, apperr.FieldError{Field: spath + ".name", Tag: "required", Message: spath + ".name is required"})
			} else if sizes[s.Name] {
				fields = append(fields, apperr.FieldError{Field: spath + ".name", Tag: "unique", Message: fmt.Sprintf("size %q is duplicated in color %q", s.Name, c.Name)})
			}
			sizes[s.Name] = true
			if s.Quantity < 0 {
				fields = append(fields, apperr.FieldError{Field: spath + ".quantity", Tag: "gte", Message: spath + ".quantity cannot be negative"})
			}
			if s.PurchaseCost.IsNegative() {
				fields = append(fields, apperr.FieldError{Field: spath + ".purchaseCost", Tag: "gte", Message: spath + ".purchaseCost cannot be negative"})
			}
		}
	}
	if len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}
	return nil
}

// Clone returns a deep copy of the product, including every ledger entry.
func (p *Product) Clone() *Product {
	cp := *p
	if p.LastRestockDate != nil {
		t := *p.LastRestockDate
		cp.LastRestockDate = &t
	}
	cp.Categories = append([]Category(nil), p.Categories...)
	cp.Images = append([]ProductImage(nil), p.Images...)
	cp.Colors = make([]ColorVariant, len(p.Colors))
	for i, c := range p.Colors {
		cc := c
		cc.Sizes = make([]SizeVariant, len(c.Sizes))
		for j, s := range c.Sizes {
			sc := s
			sc.History = make([]StockHistoryEntry, len(s.History))
			for k, e := range s.History {
				ec := e
				if e.OrderID != nil {
					id := *e.OrderID
					ec.OrderID = &id
				}
				sc.History[k] = ec
			}
			cc.Sizes[j] = sc
		}
		cp.Colors[i] = cc
	}
	return &cp
}
