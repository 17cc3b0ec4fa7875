package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-shop-inventory/internal/apperr"
	"go-shop-inventory/internal/model"
	"go-shop-inventory/internal/repository"
)

func TestCreateProduct_InitializesLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.catalog.Create(ctx, CreateProductRequest{
		Name:  " Linen Shirt ",
		Price: decimal.RequireFromString("35.00"),
		Colors: []ColorInput{
			{Name: "White", Sizes: []SizeInput{
				{Name: "M", Quantity: 4, PurchaseCost: decimal.RequireFromString("10.00")},
				{Name: "L", Quantity: 6, PurchaseCost: decimal.RequireFromString("11.00")},
			}},
			{Name: "Navy"},
		},
	}, "admin@example.com")
	require.NoError(t, err)

	assert.Equal(t, "Linen Shirt", p.Name)
	assert.True(t, strings.HasPrefix(p.SKU, "RAV-"), p.SKU)
	assert.Len(t, p.SKU, len("RAV-")+8)
	assert.True(t, p.TotalInventoryCost.Equal(decimal.NewFromInt(106)), p.TotalInventoryCost.String())

	stored, err := f.products.FindByID(ctx, p.ID, true)
	require.NoError(t, err)
	require.Len(t, stored.Colors, 2)
	assert.Empty(t, stored.Colors[1].Sizes)
	for _, sz := range stored.Colors[0].Sizes {
		require.Len(t, sz.History, 1)
		e := sz.History[0]
		assert.Equal(t, model.ReasonInitial, e.Reason)
		assert.Equal(t, 0, e.PreviousQuantity)
		assert.Equal(t, sz.Quantity, e.NewQuantity)
		assert.Equal(t, "admin@example.com", e.CreatedBy)
	}
}

func TestCreateProduct_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "Existing", map[string]int{"M": 1})
	existing, _, err := f.products.List(ctx, repository.ProductQuery{})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  CreateProductRequest
		want func(error) bool
	}{
		{"missing name", CreateProductRequest{}, apperr.IsValidation},
		{"negative price", CreateProductRequest{Name: "X", Price: decimal.NewFromInt(-1)}, apperr.IsValidation},
		{"duplicate color", CreateProductRequest{Name: "X", Colors: []ColorInput{{Name: "Red"}, {Name: "Red"}}}, apperr.IsValidation},
		{"duplicate size", CreateProductRequest{Name: "X", Colors: []ColorInput{{Name: "Red", Sizes: []SizeInput{{Name: "M"}, {Name: "M"}}}}}, apperr.IsValidation},
		{"negative quantity", CreateProductRequest{Name: "X", Colors: []ColorInput{{Name: "Red", Sizes: []SizeInput{{Name: "M", Quantity: -1}}}}}, apperr.IsValidation},
		{"negative cost", CreateProductRequest{Name: "X", Colors: []ColorInput{{Name: "Red", Sizes: []SizeInput{{Name: "M", PurchaseCost: decimal.NewFromInt(-2)}}}}}, apperr.IsValidation},
		{"duplicate sku", CreateProductRequest{Name: "X", SKU: existing[0].SKU}, apperr.IsValidation},
		{"unknown category", CreateProductRequest{Name: "X", CategoryIDs: []uuid.UUID{uuid.New()}}, apperr.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.catalog.Create(ctx, tt.req, "admin")
			require.Error(t, err)
			assert.True(t, tt.want(err), err.Error())
		})
	}

	_, total, err := f.products.List(ctx, repository.ProductQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestUpdateProduct_LeavesStockAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat, err := f.catalog.CreateCategory(ctx, CreateCategoryRequest{Name: "Shirts"}, "admin")
	require.NoError(t, err)
	p := f.seed(t, "Tee", map[string]int{"M": 10})

	updated, err := f.catalog.Update(ctx, p.ID, UpdateProductRequest{
		Name:        "Tee v2",
		Price:       decimal.NewFromInt(25),
		CategoryIDs: []uuid.UUID{cat.ID},
		Images:      []model.ImageRef{{Original: "a.jpg", Thumbnail: "a_t.jpg"}},
	}, "editor")
	require.NoError(t, err)
	assert.Equal(t, "Tee v2", updated.Name)
	assert.True(t, updated.HasCategory(cat.ID))
	require.Len(t, updated.Images, 1)
	assert.Equal(t, 10, f.cell(t, p.ID, "Red", "M").Quantity)
	assert.Len(t, f.cell(t, p.ID, "Red", "M").History, 1)

	page, err := f.catalog.List(ctx, ProductListQuery{CategoryID: &cat.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 1, page.TotalPages)

	_, err = f.catalog.Update(ctx, uuid.New(), UpdateProductRequest{Name: "nope"}, "editor")
	assert.True(t, apperr.IsNotFound(err))
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seed(t, "Tee", map[string]int{"M": 10})

	require.NoError(t, f.catalog.Delete(ctx, p.ID, "admin"))
	_, err := f.catalog.Get(ctx, p.ID, false)
	assert.True(t, apperr.IsNotFound(err))
	assert.True(t, apperr.IsNotFound(f.catalog.Delete(ctx, p.ID, "admin")))
}

func TestCreateCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent, err := f.catalog.CreateCategory(ctx, CreateCategoryRequest{Name: "Tops"}, "admin")
	require.NoError(t, err)
	child, err := f.catalog.CreateCategory(ctx, CreateCategoryRequest{Name: "Tees", ParentID: &parent.ID}, "admin")
	require.NoError(t, err)
	assert.True(t, child.IsSubcategory)

	_, err = f.catalog.CreateCategory(ctx, CreateCategoryRequest{Name: "Tops"}, "admin")
	assert.True(t, apperr.IsValidation(err))

	missing := uuid.New()
	_, err = f.catalog.CreateCategory(ctx, CreateCategoryRequest{Name: "Orphans", ParentID: &missing}, "admin")
	assert.True(t, apperr.IsNotFound(err))

	all, err := f.catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
