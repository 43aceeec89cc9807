package utils

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/orkipay/gateway/types"
)

// FormatAmount renders an atomic-unit amount as a display string with the
// given number of decimal places, e.g. 1_234_500 with 6 decimals -> "1.2345".
func FormatAmount(atomic uint64, decimals int32) string {
	return decimal.NewFromUint64(atomic).Shift(-decimals).String()
}

// ParseAmount converts a display amount back to atomic units. Amounts with
// more fractional digits than the asset carries are rejected rather than
// silently truncated.
func ParseAmount(display string, decimals int32) (uint64, error) {
	dec, err := decimal.NewFromString(display)
	if err != nil {
		return 0, types.NewError(types.ErrInvalidAmount, "invalid amount %q: %v", display, err)
	}
	if dec.IsNegative() {
		return 0, types.NewError(types.ErrInvalidAmount, "amount cannot be negative")
	}

	atomic := dec.Shift(decimals)
	if !atomic.IsInteger() {
		return 0, types.NewError(types.ErrInvalidAmount, "amount %q has more than %d decimal places", display, decimals)
	}
	if atomic.GreaterThan(decimal.NewFromUint64(^uint64(0))) {
		return 0, types.NewError(types.ErrInvalidAmount, "amount %q overflows", display)
	}
	return atomic.BigInt().Uint64(), nil
}

// FormatBps renders a basis-point fee rate as a percentage, e.g. 250 -> "2.5%".
func FormatBps(bps uint16) string {
	return fmt.Sprintf("%s%%", decimal.NewFromInt(int64(bps)).Shift(-2).String())
}
