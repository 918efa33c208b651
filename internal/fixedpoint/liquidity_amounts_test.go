package fixedpoint

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqrtAt(t *testing.T, tick int32) *big.Int {
	t.Helper()
	ratio, err := SqrtRatioAtTick(tick)
	require.NoError(t, err)
	return ratio
}

func TestAmountsForLiquidity(t *testing.T) {
	liquidity := new(big.Int)
	liquidity.SetString("1000000000000000000", 10)

	t.Run("price below range is all token0", func(t *testing.T) {
		amount0, amount1 := AmountsForLiquidity(sqrtAt(t, -1200), sqrtAt(t, 0), sqrtAt(t, 600), liquidity)
		assert.Positive(t, amount0.Sign())
		assert.Zero(t, amount1.Sign())
	})

	t.Run("price above range is all token1", func(t *testing.T) {
		amount0, amount1 := AmountsForLiquidity(sqrtAt(t, 1200), sqrtAt(t, 0), sqrtAt(t, 600), liquidity)
		assert.Zero(t, amount0.Sign())
		assert.Positive(t, amount1.Sign())
	})

	t.Run("price within range splits", func(t *testing.T) {
		amount0, amount1 := AmountsForLiquidity(sqrtAt(t, 300), sqrtAt(t, 0), sqrtAt(t, 600), liquidity)
		assert.Positive(t, amount0.Sign())
		assert.Positive(t, amount1.Sign())
	})

	t.Run("within-range amounts equal the two one-sided halves", func(t *testing.T) {
		current := sqrtAt(t, 300)
		amount0, amount1 := AmountsForLiquidity(current, sqrtAt(t, 0), sqrtAt(t, 600), liquidity)
		upper0, _ := AmountsForLiquidity(sqrtAt(t, -600), current, sqrtAt(t, 600), liquidity)
		_, lower1 := AmountsForLiquidity(sqrtAt(t, 900), sqrtAt(t, 0), current, liquidity)
		assert.Zero(t, amount0.Cmp(upper0))
		assert.Zero(t, amount1.Cmp(lower1))
	})

	t.Run("more liquidity never yields less", func(t *testing.T) {
		half := new(big.Int).Rsh(liquidity, 1)
		full0, full1 := AmountsForLiquidity(sqrtAt(t, 300), sqrtAt(t, 0), sqrtAt(t, 600), liquidity)
		half0, half1 := AmountsForLiquidity(sqrtAt(t, 300), sqrtAt(t, 0), sqrtAt(t, 600), half)
		assert.True(t, full0.Cmp(half0) >= 0)
		assert.True(t, full1.Cmp(half1) >= 0)
	})

	t.Run("zero liquidity yields zero", func(t *testing.T) {
		amount0, amount1 := AmountsForLiquidity(sqrtAt(t, 300), sqrtAt(t, 0), sqrtAt(t, 600), new(big.Int))
		assert.Zero(t, amount0.Sign())
		assert.Zero(t, amount1.Sign())
	})
}
