package repository

import (
	"context"
	"time"

	"go-shop-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func byPosition(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }

func historyScope(from, to time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !from.IsZero() {
			db = db.Where("date >= ?", from)
		}
		if !to.IsZero() {
			db = db.Where("date <= ?", to)
		}
		return db.Order("sequence ASC")
	}
}

func (r *productRepo) preload(db *gorm.DB, withHistory bool, from, to time.Time) *gorm.DB {
	db = db.Preload("Categories").
		Preload("Images", byPosition).
		Preload("Colors", byPosition).
		Preload("Colors.Sizes", byPosition)
	if withHistory {
		db = db.Preload("Colors.Sizes.History", historyScope(from, to))
	}
	return db
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	// categories already exist; only the join rows are written
	return r.db.WithContext(ctx).Omit("Categories.*").Create(product).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID, withHistory bool) (*model.Product, error) {
	var product model.Product
	err := r.preload(r.db.WithContext(ctx), withHistory, time.Time{}, time.Time{}).
		First(&product, "products.id = ?", id).Error
	if err != nil {
		return nil, translate(err, "product", id)
	}
	return &product, nil
}

func (r *productRepo) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "sku = ?", sku).Error; err != nil {
		return nil, translate(err, "product", sku)
	}
	return &product, nil
}

func (r *productRepo) List(ctx context.Context, q ProductQuery) ([]model.Product, int64, error) {
	base := r.db.WithContext(ctx).Model(&model.Product{})
	if q.CategoryID != nil {
		base = base.Where("EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = products.id AND pc.category_id = ?)", *q.CategoryID)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		base = base.Where("products.name ILIKE ? OR products.sku ILIKE ?", like, like)
	}
	if q.Color != "" {
		base = base.Where("EXISTS (SELECT 1 FROM color_variants cv WHERE cv.product_id = products.id AND cv.name = ?)", q.Color)
	}
	if q.Size != "" {
		base = base.Where(`EXISTS (SELECT 1 FROM color_variants cv JOIN size_variants sv ON sv.color_id = cv.id
			WHERE cv.product_id = products.id AND sv.name = ?)`, q.Size)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	find := r.preload(base, q.WithHistory, q.HistoryFrom, q.HistoryTo).Order("products.created_at DESC")
	if q.Limit > 0 {
		find = find.Offset(q.Offset()).Limit(q.Limit)
	}
	var products []model.Product
	if err := find.Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
			"name":          product.Name,
			"description":   product.Description,
			"price":         product.Price,
			"featured":      product.Featured,
			"supplier":      product.Supplier,
			"stock_details": product.StockDetails,
			"updated_by":    product.UpdatedBy,
			"updated_at":    time.Now(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "product", product.ID)
		}

		if err := tx.Model(product).Association("Categories").Replace(product.Categories); err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&model.ProductImage{}).Error; err != nil {
			return err
		}
		for i := range product.Images {
			product.Images[i].ID = uuid.Nil
			product.Images[i].ProductID = product.ID
			product.Images[i].Position = i
		}
		if len(product.Images) > 0 {
			return tx.Create(&product.Images).Error
		}
		return nil
	})
}

// Delete removes the product permanently; colors, sizes and ledger rows go with it via FK cascade.
func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product := model.Product{BaseModel: model.BaseModel{ID: id}}
		if err := tx.Model(&product).Association("Categories").Clear(); err != nil {
			return err
		}
		res := tx.Unscoped().Delete(&product)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return translate(gorm.ErrRecordNotFound, "product", id)
		}
		return nil
	})
}

// MutateStock locks the product row for the length of the transaction. Cells
// are loaded without their history; every entry fn appends is new and is
// inserted as-is.
func (r *productRepo) MutateStock(ctx context.Context, id uuid.UUID, fn MutateFunc) (*model.Product, error) {
	var out *model.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product model.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, "id = ?", id).Error; err != nil {
			return translate(err, "product", id)
		}
		if err := tx.Preload("Sizes", byPosition).Where("product_id = ?", product.ID).
			Order("position ASC").Find(&product.Colors).Error; err != nil {
			return err
		}

		if err := fn(&product); err != nil {
			return err
		}

		for _, c := range product.Colors {
			for _, s := range c.Sizes {
				if len(s.History) == 0 {
					continue
				}
				if err := tx.Model(&model.SizeVariant{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
					"quantity":      s.Quantity,
					"purchase_cost": s.PurchaseCost,
					"entry_count":   s.EntryCount,
				}).Error; err != nil {
					return err
				}
				entries := s.History
				if err := tx.Create(&entries).Error; err != nil {
					return err
				}
			}
		}

		if err := tx.Model(&model.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
			"total_inventory_cost": product.TotalInventoryCost,
			"last_restock_date":    product.LastRestockDate,
			"updated_at":           time.Now(),
		}).Error; err != nil {
			return err
		}
		out = &product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
