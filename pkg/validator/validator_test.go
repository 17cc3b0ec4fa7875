package validator

import (
	"testing"

	"go-shop-inventory/internal/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID       uuid.UUID        `json:"id" validate:"uuid_required"`
	Name     string           `json:"name" validate:"required"`
	Quantity int              `json:"quantity" validate:"gt=0"`
	Cost     *decimal.Decimal `json:"purchaseCost" validate:"omitempty,decimal_gte0"`
}

func TestValidateStruct(t *testing.T) {
	neg := decimal.NewFromInt(-1)
	err := ValidateStruct(sample{Quantity: 0, Cost: &neg})
	require.Error(t, err)

	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)

	byField := map[string]string{}
	for _, f := range ve.Fields {
		byField[f.Field] = f.Tag
	}
	assert.Equal(t, map[string]string{
		"id":           "uuid_required",
		"name":         "required",
		"quantity":     "gt",
		"purchaseCost": "decimal_gte0",
	}, byField)
}

func TestValidateStruct_Valid(t *testing.T) {
	assert.NoError(t, ValidateStruct(sample{ID: uuid.New(), Name: "x", Quantity: 1}))

	zero := decimal.Zero
	assert.NoError(t, ValidateStruct(sample{ID: uuid.New(), Name: "x", Quantity: 1, Cost: &zero}))
}
