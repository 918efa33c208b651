package fixedpoint

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpackPositionInfo(t *testing.T) {
	t.Run("positive ticks with flag", func(t *testing.T) {
		raw := PackPositionInfo(PositionInfo{TickLower: 120, TickUpper: 360, HasSubscriber: true})
		info := UnpackPositionInfo(raw)
		assert.Equal(t, int32(120), info.TickLower)
		assert.Equal(t, int32(360), info.TickUpper)
		assert.True(t, info.HasSubscriber)
	})

	t.Run("negative ticks sign extend", func(t *testing.T) {
		raw := PackPositionInfo(PositionInfo{TickLower: -887220, TickUpper: -60})
		info := UnpackPositionInfo(raw)
		assert.Equal(t, int32(-887220), info.TickLower)
		assert.Equal(t, int32(-60), info.TickUpper)
		assert.False(t, info.HasSubscriber)
	})

	t.Run("reserved bits survive repack", func(t *testing.T) {
		reserved, ok := new(big.Int).SetString("decafbadc0ffee", 16)
		require.True(t, ok)
		raw := PackPositionInfo(PositionInfo{TickLower: -10, TickUpper: 10, Reserved: reserved})
		info := UnpackPositionInfo(raw)
		assert.Zero(t, reserved.Cmp(info.Reserved))
		assert.Zero(t, raw.Cmp(PackPositionInfo(info)))
	})

	t.Run("nil word is empty", func(t *testing.T) {
		info := UnpackPositionInfo(nil)
		assert.Equal(t, int32(0), info.TickLower)
		assert.Equal(t, int32(0), info.TickUpper)
		assert.False(t, info.HasSubscriber)
	})
}
