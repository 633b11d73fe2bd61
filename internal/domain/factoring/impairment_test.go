package factoring

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImpairmentRecord(t *testing.T) {
	t.Run("creates an active impairment", func(t *testing.T) {
		r, err := NewImpairmentRecord(uuid.New(), dec("40"), dec("100"))
		require.NoError(t, err)

		assert.True(t, r.Impaired)
		assert.True(t, r.GainAmount.Equal(dec("40")))
		assert.True(t, r.LossAmount.Equal(dec("100")))
		assert.Nil(t, r.ReversedAt)
	})

	t.Run("rejects gain above loss", func(t *testing.T) {
		_, err := NewImpairmentRecord(uuid.New(), dec("101"), dec("100"))
		assert.Error(t, err)
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		_, err := NewImpairmentRecord(uuid.New(), dec("-1"), dec("100"))
		assert.Error(t, err)
	})
}

func TestImpairmentRecord_Reverse(t *testing.T) {
	t.Run("returns the recorded amounts and zeroes the record", func(t *testing.T) {
		r, err := NewImpairmentRecord(uuid.New(), dec("40"), dec("100"))
		require.NoError(t, err)

		gain, loss, err := r.Reverse(time.Now())
		require.NoError(t, err)

		assert.True(t, gain.Equal(dec("40")))
		assert.True(t, loss.Equal(dec("100")))
		assert.False(t, r.Impaired)
		assert.True(t, r.GainAmount.IsZero())
		assert.True(t, r.LossAmount.IsZero())
		assert.NotNil(t, r.ReversedAt)
	})

	t.Run("rejects reversing twice", func(t *testing.T) {
		r, err := NewImpairmentRecord(uuid.New(), decimal.Zero, dec("100"))
		require.NoError(t, err)

		_, _, err = r.Reverse(time.Now())
		require.NoError(t, err)
		_, _, err = r.Reverse(time.Now())
		assert.Error(t, err)
	})
}

func TestImpairmentRecord_Reapply(t *testing.T) {
	t.Run("re-impairs a reversed record", func(t *testing.T) {
		r, err := NewImpairmentRecord(uuid.New(), dec("40"), dec("100"))
		require.NoError(t, err)
		_, _, err = r.Reverse(time.Now())
		require.NoError(t, err)

		now := time.Now()
		require.NoError(t, r.Reapply(now, dec("20"), dec("100")))

		assert.True(t, r.Impaired)
		assert.True(t, r.GainAmount.Equal(dec("20")))
		assert.Nil(t, r.ReversedAt)
	})

	t.Run("rejects reapplying an active impairment", func(t *testing.T) {
		r, err := NewImpairmentRecord(uuid.New(), dec("40"), dec("100"))
		require.NoError(t, err)
		assert.Error(t, r.Reapply(time.Now(), dec("20"), dec("100")))
	})
}
