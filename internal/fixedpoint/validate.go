package fixedpoint

import "poolLens/internal/model"

// ValidateTick checks a tick against the usable range.
func ValidateTick(tick int32) error {
	if tick < MinTick || tick > MaxTick {
		return model.Validationf("tick", "%d outside [%d, %d]", tick, MinTick, MaxTick)
	}
	return nil
}

// ValidateTier checks a (fee, tickSpacing) pair against the allowed tier table.
func ValidateTier(fee uint32, tickSpacing int32) error {
	spacing, ok := tierSpacing[fee]
	if !ok {
		return model.Validationf("fee", "%d is not an allowed tier", fee)
	}
	if tickSpacing != spacing {
		return model.Validationf("tick_spacing", "%d does not match tier spacing %d for fee %d", tickSpacing, spacing, fee)
	}
	return nil
}

// ValidateTickRange checks position bounds: ordered, in range, and aligned to
// the pool's tick spacing.
func ValidateTickRange(tickLower, tickUpper, tickSpacing int32) error {
	if err := ValidateTick(tickLower); err != nil {
		return err
	}
	if err := ValidateTick(tickUpper); err != nil {
		return err
	}
	if tickLower >= tickUpper {
		return model.Validationf("tick_range", "lower %d not below upper %d", tickLower, tickUpper)
	}
	if tickSpacing > 0 && (tickLower%tickSpacing != 0 || tickUpper%tickSpacing != 0) {
		return model.Validationf("tick_range", "[%d, %d] not aligned to spacing %d", tickLower, tickUpper, tickSpacing)
	}
	return nil
}
