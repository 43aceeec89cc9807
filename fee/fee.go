// Package fee computes the protocol fee split. Split is a pure function: no
// state, no side effects.
package fee

import (
	"github.com/holiman/uint256"

	"github.com/orkipay/gateway/types"
)

// Divisor converts basis points to a fraction: fee = amount * bps / Divisor.
const Divisor = 10_000

// Split computes the protocol fee and the merchant's net amount for a gross
// amount at feeBps basis points. The multiplication runs widened so an amount
// near the uint64 maximum cannot overflow. fee + merchant == amount always
// holds for valid inputs.
func Split(amount uint64, feeBps uint16) (fee, merchant uint64, err error) {
	if feeBps > types.MaxFeeBps {
		return 0, 0, types.NewError(types.ErrInvalidFee, "fee rate %d exceeds %d bps", feeBps, types.MaxFeeBps)
	}

	product := new(uint256.Int).Mul(
		uint256.NewInt(amount),
		uint256.NewInt(uint64(feeBps)),
	)
	product.Div(product, uint256.NewInt(Divisor))

	// feeBps <= Divisor guarantees the quotient fits in 64 bits; checked
	// anyway so a future widening of inputs cannot silently truncate.
	if !product.IsUint64() {
		return 0, 0, types.NewError(types.ErrCalculationError, "fee overflows uint64")
	}
	fee = product.Uint64()

	if fee > amount {
		return 0, 0, types.NewError(types.ErrCalculationError, "fee %d exceeds amount %d", fee, amount)
	}
	return fee, amount - fee, nil
}
