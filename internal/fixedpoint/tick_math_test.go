package fixedpoint

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolLens/internal/model"
)

func TestSqrtRatioAtTickBounds(t *testing.T) {
	t.Run("rejects below min", func(t *testing.T) {
		_, err := SqrtRatioAtTick(MinTick - 1)
		require.Error(t, err)
		var verr *model.ValidationError
		assert.True(t, errors.As(err, &verr))
	})

	t.Run("rejects above max", func(t *testing.T) {
		_, err := SqrtRatioAtTick(MaxTick + 1)
		require.Error(t, err)
	})

	t.Run("min tick", func(t *testing.T) {
		ratio, err := SqrtRatioAtTick(MinTick)
		require.NoError(t, err)
		assert.Zero(t, MinSqrtRatio.Cmp(ratio))
	})

	t.Run("max tick", func(t *testing.T) {
		ratio, err := SqrtRatioAtTick(MaxTick)
		require.NoError(t, err)
		assert.Zero(t, MaxSqrtRatio.Cmp(ratio))
	})

	t.Run("tick zero is one in Q96", func(t *testing.T) {
		ratio, err := SqrtRatioAtTick(0)
		require.NoError(t, err)
		assert.Zero(t, Q96.Cmp(ratio))
	})
}

func TestSqrtRatioAtTickMonotonic(t *testing.T) {
	prev, err := SqrtRatioAtTick(MinTick)
	require.NoError(t, err)
	for tick := MinTick + 100000; tick <= MaxTick; tick += 100000 {
		ratio, err := SqrtRatioAtTick(tick)
		require.NoError(t, err)
		if ratio.Cmp(prev) <= 0 {
			t.Fatalf("ratio not increasing at tick %d", tick)
		}
		prev = ratio
	}
}

func TestTickPriceRoundTrip(t *testing.T) {
	ticks := []int32{MinTick, -500000, -100000, -887, -60, -1, 0, 1, 60, 887, 100000, 500000, MaxTick}
	decimalPairs := [][2]uint8{{18, 18}, {18, 6}, {6, 18}, {8, 18}}

	for _, pair := range decimalPairs {
		for _, tick := range ticks {
			price, err := TickToPrice(tick, pair[0], pair[1])
			require.NoError(t, err)
			back, err := PriceToTick(price, pair[0], pair[1])
			require.NoError(t, err)
			if back != tick {
				t.Fatalf("round trip failed: tick %d decimals %v -> %d", tick, pair, back)
			}
		}
	}
}

func TestSqrtPriceX96ToPrice(t *testing.T) {
	t.Run("one to one", func(t *testing.T) {
		price, err := SqrtPriceX96ToPrice(new(big.Int).Set(Q96), 18, 18)
		require.NoError(t, err)
		value, _ := price.Float64()
		assert.InDelta(t, 1.0, value, 1e-12)
	})

	t.Run("decimal adjustment", func(t *testing.T) {
		// Raw 1:1 between a 6-decimal token0 and 18-decimal token1 => 1e-12 human.
		price, err := SqrtPriceX96ToPrice(new(big.Int).Set(Q96), 6, 18)
		require.NoError(t, err)
		value, _ := price.Float64()
		assert.InDelta(t, 1e-12, value, 1e-24)
	})

	t.Run("full 160-bit domain", func(t *testing.T) {
		max160 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 160), big.NewInt(1))
		price, err := SqrtPriceX96ToPrice(max160, 18, 18)
		require.NoError(t, err)
		assert.Positive(t, price.Sign())
	})

	t.Run("rejects 161 bits", func(t *testing.T) {
		_, err := SqrtPriceX96ToPrice(new(big.Int).Lsh(big.NewInt(1), 160), 18, 18)
		require.Error(t, err)
	})
}

func TestValidateTier(t *testing.T) {
	require.NoError(t, ValidateTier(3000, 60))
	require.Error(t, ValidateTier(3000, 10))
	require.Error(t, ValidateTier(1234, 60))
}
