package utils

import (
	"strings"
	"testing"
	"time"

	"rentalhub/src/config"
	"rentalhub/src/models"
	"rentalhub/src/types"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse(config.DATE_PARSE_FORMAT, value)
	assert.Nil(t, err)
	return d
}

func TestTotalDays(t *testing.T) {
	t.Run("range is inclusive of both ends", func(t *testing.T) {
		start := mustParse(t, "2024-06-01")
		end := mustParse(t, "2024-06-05")
		assert.Equal(t, uint(5), TotalDays(start, end))
	})

	t.Run("single day rental counts as one", func(t *testing.T) {
		day := mustParse(t, "2024-06-01")
		assert.Equal(t, uint(1), TotalDays(day, day))
	})

	t.Run("inverted range counts as zero", func(t *testing.T) {
		start := mustParse(t, "2024-06-05")
		end := mustParse(t, "2024-06-01")
		assert.Equal(t, uint(0), TotalDays(start, end))
	})
}

func TestComputeReservationPricing(t *testing.T) {
	listing := models.Listing{
		ID:         1,
		PriceCents: 1500,
		Addons: []models.ListingAddon{
			{ID: 10, Name: "Extra battery", PriceCents: 500},
			{ID: 11, Name: "Carrying case", PriceCents: 300},
		},
	}
	start := mustParse(t, "2024-06-01")
	end := mustParse(t, "2024-06-05")

	t.Run("base price times days", func(t *testing.T) {
		pricing := ComputeReservationPricing(&listing, nil, start, end)
		assert.Equal(t, int64(1500), pricing.DailyPriceCents)
		assert.Equal(t, uint(5), pricing.TotalDays)
		assert.Equal(t, int64(0), pricing.AddonsTotalCents)
		assert.Equal(t, int64(7500), pricing.TotalCents)
	})

	t.Run("selected addons are flat charges", func(t *testing.T) {
		pricing := ComputeReservationPricing(&listing, []uint{10, 11}, start, end)
		assert.Equal(t, int64(800), pricing.AddonsTotalCents)
		assert.Equal(t, int64(8300), pricing.TotalCents)
	})

	t.Run("unknown addon ids are ignored", func(t *testing.T) {
		pricing := ComputeReservationPricing(&listing, []uint{99}, start, end)
		assert.Equal(t, int64(0), pricing.AddonsTotalCents)
	})
}

func TestComputeOrderTotals(t *testing.T) {
	totals := ComputeOrderTotals(10000)

	assert.Equal(t, int64(10000), totals.SubtotalCents)
	assert.Equal(t, int64(700), totals.TaxCents)
	assert.Equal(t, int64(1000), totals.CommissionCents)
	assert.Equal(t, int64(11700), totals.TotalCents)
}

func TestReferenceNumbers(t *testing.T) {
	cases := map[string]struct {
		gen    func() string
		prefix string
	}{
		"order":  {NewOrderNumber, "RNT-"},
		"claim":  {NewClaimNumber, "CLM-"},
		"report": {NewReportNumber, "RPT-"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ref := tc.gen()
			assert.True(t, strings.HasPrefix(ref, tc.prefix))
			assert.Len(t, ref, len(tc.prefix)+8)
			assert.NotEqual(t, ref, tc.gen())
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	assert.Nil(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)
	assert.True(t, CheckPassword(hash, "correct horse battery staple"))
	assert.False(t, CheckPassword(hash, "incorrect horse"))
}

func TestGenerateJWT(t *testing.T) {
	token, err := GenerateJWT("someone@example.com", 42, string(types.ROLE_USER))
	assert.Nil(t, err)

	claims := &types.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return jwtKey, nil
	})
	assert.Nil(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "someone@example.com", claims.Username)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, string(types.ROLE_USER), claims.Role)
}
