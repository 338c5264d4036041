package pricing

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/models"
)

func jersey() *models.ProductVariant {
	return &models.ProductVariant{
		BasePrice: 500,
		RolePricing: models.RolePricing{
			models.RoleOthers:  500,
			models.RoleStudent: 400,
		},
	}
}

func TestResolveStudentWithCollegeAffinity(t *testing.T) {
	got := Resolve(jersey(), models.RoleStudent, "COCS", "COCS")

	assert.Equal(t, 400.0, got.Price)
	assert.Equal(t, models.RoleStudent, got.AppliedRole)
	assert.Equal(t, 500.0, got.OriginalPrice)
	assert.Equal(t, 20, got.DiscountPercent)
}

func TestResolveOtherCollegePaysDefault(t *testing.T) {
	got := Resolve(jersey(), models.RoleStudent, "COE", "COCS")

	assert.Equal(t, 500.0, got.Price)
	assert.Equal(t, models.RoleOthers, got.AppliedRole)
	assert.Zero(t, got.DiscountPercent)
}

func TestResolveDefaultsWithoutAffinity(t *testing.T) {
	tests := []struct {
		name            string
		role            models.CustomerRole
		customerCollege models.College
		productCollege  models.College
	}{
		{"anonymous", "", "", "COCS"},
		{"no role", "", "COCS", "COCS"},
		{"no college", models.RoleStudent, "", "COCS"},
		{"different college", models.RoleStudent, "CBA", "COCS"},
		{"not applicable on both sides", models.RoleStudent, models.CollegeNotApplicable, models.CollegeNotApplicable},
		{"role without a price", models.RoleAlumni, "COCS", "COCS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(jersey(), tt.role, tt.customerCollege, tt.productCollege)
			assert.Equal(t, 500.0, got.Price)
			assert.Equal(t, models.RoleOthers, got.AppliedRole)
		})
	}
}

func TestResolveEveryRoleWithAffinity(t *testing.T) {
	variant := &models.ProductVariant{
		BasePrice: 350,
		RolePricing: models.RolePricing{
			models.RoleOthers:       350,
			models.RoleStudent:      300,
			models.RoleStaffFaculty: 320,
			models.RolePlayer:       250,
			models.RoleAlumni:       330,
		},
	}

	for _, role := range models.CustomerRoles {
		got := Resolve(variant, role, "CAS", "CAS")
		assert.Equal(t, variant.RolePricing[role], got.Price, role)
		assert.Equal(t, role, got.AppliedRole)
	}
}

func TestResolveFallsBackToBasePrice(t *testing.T) {
	tests := []struct {
		name    string
		pricing models.RolePricing
	}{
		{"nil table", nil},
		{"missing default", models.RolePricing{models.RoleStudent: 100}},
		{"negative default", models.RolePricing{models.RoleOthers: -1, models.RoleStudent: 100}},
		{"NaN default", models.RolePricing{models.RoleOthers: math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			variant := &models.ProductVariant{BasePrice: 275, RolePricing: tt.pricing}
			got := Resolve(variant, models.RoleStudent, "COCS", "COCS")
			assert.Equal(t, 275.0, got.Price)
			assert.Equal(t, models.RoleOthers, got.AppliedRole)
		})
	}
}

func TestResolveNonNumericDefaultFromStorage(t *testing.T) {
	var table models.RolePricing
	require.NoError(t, json.Unmarshal([]byte(`{"OTHERS":"free","STUDENT":90}`), &table))

	got := Resolve(&models.ProductVariant{BasePrice: 120, RolePricing: table}, models.RoleStudent, "COE", "COE")

	assert.Equal(t, 120.0, got.Price)
	assert.Equal(t, models.RoleOthers, got.AppliedRole)
}

func TestResolveNilVariant(t *testing.T) {
	assert.NotPanics(t, func() {
		got := Resolve(nil, models.RoleStudent, "COCS", "COCS")
		assert.Equal(t, models.RoleOthers, got.AppliedRole)
	})
}

func TestResolveHigherRolePriceHasNoDiscount(t *testing.T) {
	variant := &models.ProductVariant{
		BasePrice:   100,
		RolePricing: models.RolePricing{models.RoleOthers: 100, models.RolePlayer: 120},
	}

	got := Resolve(variant, models.RolePlayer, "CHK", "CHK")

	assert.Equal(t, 120.0, got.Price)
	assert.Zero(t, got.DiscountPercent)
}

func TestDiscountPercentRounds(t *testing.T) {
	assert.Equal(t, 33, discountPercent(300, 200))
	assert.Equal(t, 0, discountPercent(0, 0))
}

func TestValidateVariantPricing(t *testing.T) {
	assert.NoError(t, ValidateVariantPricing(500, jersey().RolePricing))

	err := ValidateVariantPricing(-5, models.RolePricing{models.RoleStudent: -1, "COACH": 10})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "base_price")
	assert.Contains(t, appErr.Fields, "role_pricing.OTHERS")
	assert.Contains(t, appErr.Fields, "role_pricing.STUDENT")
	assert.Contains(t, appErr.Fields, "role_pricing.COACH")
}
