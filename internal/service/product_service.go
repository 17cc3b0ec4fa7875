package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"go-shop-inventory/internal/apperr"
	"go-shop-inventory/internal/model"
	"go-shop-inventory/internal/repository"
	"go-shop-inventory/pkg/validator"
)

const skuPrefix = "RAV-"

type SizeInput struct {
	Name         string          `json:"name" validate:"required,max=50"`
	Quantity     int             `json:"quantity" validate:"gte=0"`
	PurchaseCost decimal.Decimal `json:"purchaseCost"`
}

type ColorInput struct {
	Name  string         `json:"name" validate:"required,max=100"`
	Image model.ImageRef `json:"image"`
	Sizes []SizeInput    `json:"sizes" validate:"dive"`
}

type CreateProductRequest struct {
	SKU          string           `json:"sku" validate:"omitempty,max=50"`
	Name         string           `json:"name" validate:"required,max=255"`
	Description  string           `json:"description"`
	Price        decimal.Decimal  `json:"price"`
	Featured     bool             `json:"featured"`
	Supplier     string           `json:"supplier" validate:"max=255"`
	StockDetails string           `json:"stockDetails"`
	CategoryIDs  []uuid.UUID      `json:"categories"`
	Images       []model.ImageRef `json:"images"`
	Colors       []ColorInput     `json:"colors" validate:"dive"`
}

// UpdateProductRequest carries descriptive fields only; stock is changed through inventory operations.
type UpdateProductRequest struct {
	Name         string           `json:"name" validate:"required,max=255"`
	Description  string           `json:"description"`
	Price        decimal.Decimal  `json:"price"`
	Featured     bool             `json:"featured"`
	Supplier     string           `json:"supplier" validate:"max=255"`
	StockDetails string           `json:"stockDetails"`
	CategoryIDs  []uuid.UUID      `json:"categories"`
	Images       []model.ImageRef `json:"images"`
}

type ProductListQuery struct {
	CategoryID *uuid.UUID
	Color      string
	Size       string
	Search     string
	Page       int
	Limit      int
}

type ProductPage struct {
	Products   []model.Product `json:"products"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"totalPages"`
}

type CreateCategoryRequest struct {
	Name        string     `json:"name" validate:"required,min=2,max=100"`
	Description string     `json:"description"`
	Image       string     `json:"image" validate:"max=500"`
	ParentID    *uuid.UUID `json:"parentCategory"`
}

type ProductService interface {
	Create(ctx context.Context, req CreateProductRequest, actor string) (*model.Product, error)
	Get(ctx context.Context, id uuid.UUID, withHistory bool) (*model.Product, error)
	List(ctx context.Context, q ProductListQuery) (*ProductPage, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest, actor string) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID, actor string) error
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, req CreateCategoryRequest, actor string) (*model.Category, error)
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	notifier     StockNotifier
	log          *zap.Logger
}

func NewProductService(pRepo repository.ProductRepository, cRepo repository.CategoryRepository, notifier StockNotifier, log *zap.Logger) ProductService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &productService{
		productRepo:  pRepo,
		categoryRepo: cRepo,
		notifier:     notifier,
		log:          log.Named("catalog"),
	}
}

func (s *productService) Create(ctx context.Context, req CreateProductRequest, actor string) (*model.Product, error) {
	if err := validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, apperr.NewValidation("price", "gte", "price cannot be negative")
	}

	product := &model.Product{
		SKU:          strings.TrimSpace(req.SKU),
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Price:        req.Price,
		Featured:     req.Featured,
		Supplier:     req.Supplier,
		StockDetails: req.StockDetails,
		Images:       toImages(req.Images),
	}
	for _, c := range req.Colors {
		color := model.ColorVariant{Name: strings.TrimSpace(c.Name), Image: c.Image}
		for _, sz := range c.Sizes {
			color.Sizes = append(color.Sizes, model.SizeVariant{
				Name:         strings.TrimSpace(sz.Name),
				Quantity:     sz.Quantity,
				PurchaseCost: sz.PurchaseCost,
			})
		}
		product.Colors = append(product.Colors, color)
	}
	if err := product.ValidateVariants(); err != nil {
		return nil, err
	}

	categories, err := s.resolveCategories(ctx, req.CategoryIDs)
	if err != nil {
		return nil, err
	}
	product.Categories = categories

	if product.SKU == "" {
		product.SKU = generateSKU()
	}
	if _, err := s.productRepo.FindBySKU(ctx, product.SKU); err == nil {
		return nil, apperr.NewValidation("sku", "unique", fmt.Sprintf("sku %s already exists", product.SKU))
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	product.CreatedBy = actor
	product.UpdatedBy = actor
	product.InitializeLedger(time.Now().UTC(), actor)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("saving product: %w", err)
	}
	s.log.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
		zap.Int("units", product.TotalQuantity()),
		zap.String("actor", actor),
	)
	s.publish("product_created", product, actor)
	return product, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID, withHistory bool) (*model.Product, error) {
	return s.productRepo.FindByID(ctx, id, withHistory)
}

func (s *productService) List(ctx context.Context, q ProductListQuery) (*ProductPage, error) {
	page, limit := NormalizePage(q.Page, q.Limit)
	products, total, err := s.productRepo.List(ctx, repository.ProductQuery{
		CategoryID: q.CategoryID,
		Color:      q.Color,
		Size:       q.Size,
		Search:     strings.TrimSpace(q.Search),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	return &ProductPage{
		Products:   products,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages(total, limit),
	}, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest, actor string) (*model.Product, error) {
	if err := validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, apperr.NewValidation("price", "gte", "price cannot be negative")
	}
	categories, err := s.resolveCategories(ctx, req.CategoryIDs)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Price:        req.Price,
		Featured:     req.Featured,
		Supplier:     req.Supplier,
		StockDetails: req.StockDetails,
		Categories:   categories,
		Images:       toImages(req.Images),
	}
	product.ID = id
	product.UpdatedBy = actor
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	updated, err := s.productRepo.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	s.publish("product_updated", updated, actor)
	return updated, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", zap.String("product_id", id.String()), zap.String("actor", actor))
	s.notifier.Publish(ProductEvent{Type: eventProductUpdate, Action: "product_deleted", ProductID: id, Actor: actor, At: time.Now().UTC()})
	return nil
}

func (s *productService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.categoryRepo.FindAll(ctx)
}

func (s *productService) CreateCategory(ctx context.Context, req CreateCategoryRequest, actor string) (*model.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	if _, err := s.categoryRepo.FindByName(ctx, req.Name); err == nil {
		return nil, apperr.NewValidation("name", "unique", fmt.Sprintf("category %s already exists", req.Name))
	} else if !apperr.IsNotFound(err) {
		return nil, err
	}

	category := &model.Category{
		Name:          req.Name,
		Description:   req.Description,
		Image:         req.Image,
		ParentID:      req.ParentID,
		IsSubcategory: req.ParentID != nil,
	}
	if req.ParentID != nil {
		parents, err := s.categoryRepo.FindByIDs(ctx, []uuid.UUID{*req.ParentID})
		if err != nil {
			return nil, err
		}
		if len(parents) == 0 {
			return nil, apperr.NewNotFound("category", req.ParentID.String())
		}
	}
	category.CreatedBy = actor
	category.UpdatedBy = actor
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *productService) resolveCategories(ctx context.Context, ids []uuid.UUID) ([]model.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	categories, err := s.categoryRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[uuid.UUID]bool, len(categories))
	for _, c := range categories {
		found[c.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, apperr.NewNotFound("category", id.String())
		}
	}
	return categories, nil
}

func (s *productService) publish(action string, p *model.Product, actor string) {
	s.notifier.Publish(ProductEvent{
		Type:      eventProductUpdate,
		Action:    action,
		ProductID: p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Actor:     actor,
		At:        time.Now().UTC(),
	})
}

func toImages(refs []model.ImageRef) []model.ProductImage {
	images := make([]model.ProductImage, 0, len(refs))
	for i, r := range refs {
		images = append(images, model.ProductImage{ImageRef: r, Position: i})
	}
	return images
}

func generateSKU() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return skuPrefix + strings.ToUpper(raw[:8])
}
