package pool

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapitalAccount(t *testing.T) {
	t.Run("nets out earmarks and adds active carrying value", func(t *testing.T) {
		s := newTestState(t)
		s.LiquidBalance = dec("1000")
		s.ProtocolFeeBalance = dec("100")
		s.AdminFeeBalance = dec("50")
		s.LossReserveBalance = dec("200")

		capital, err := CapitalAccount(s, dec("78000"))
		require.NoError(t, err)
		assert.True(t, capital.Equal(dec("78650")))
	})

	t.Run("fails when fee deductions exceed realized revenue", func(t *testing.T) {
		s := newTestState(t)
		s.RealizedFeeRevenue = dec("100")
		s.FeeDeductions = dec("101")

		_, err := CapitalAccount(s, decimal.Zero)
		assert.Error(t, err)
	})
}

func TestPricePerUnit(t *testing.T) {
	t.Run("divides capital over outstanding units", func(t *testing.T) {
		price := PricePerUnit(dec("1100"), dec("1000"))
		assert.True(t, price.Equal(dec("1.1")))
	})

	t.Run("defaults to one with no units outstanding", func(t *testing.T) {
		assert.True(t, PricePerUnit(dec("500"), decimal.Zero).Equal(decimal.NewFromInt(1)))
		assert.True(t, PricePerUnit(dec("500"), dec("-1")).Equal(decimal.NewFromInt(1)))
	})
}

func TestUnitConversions(t *testing.T) {
	price := dec("1.25")

	units := UnitsForAssets(dec("100"), price)
	assert.True(t, units.Equal(dec("80")))
	assert.True(t, AssetsForUnits(units, price).Equal(dec("100")))
}
