package keeper

import (
	"math/big"

	"cosmossdk.io/math"

	"github.com/hypernode-network/hypernode/x/hypernode/types"
)

// Ledger amounts are bounded at 2^256. Every helper reports a breach as an
// ARITHMETIC_OVERFLOW invariant error so the enclosing transaction aborts.
var maxLedgerAmount = new(big.Int).Exp(big.NewInt(2), big.NewInt(256), nil)

func withinBounds(v *big.Int) bool {
	return v.Sign() >= 0 && v.Cmp(maxLedgerAmount) < 0
}

// SafeAdd adds two math.Int values with overflow checking
func SafeAdd(a, b math.Int) (math.Int, error) {
	result := new(big.Int).Add(a.BigInt(), b.BigInt())
	if !withinBounds(result) {
		return math.Int{}, types.InvariantError(types.ErrArithmeticOverflow, "addition %s + %s out of range", a, b)
	}
	return math.NewIntFromBigInt(result), nil
}

// SafeSub subtracts two math.Int values with underflow checking
func SafeSub(a, b math.Int) (math.Int, error) {
	if a.LT(b) {
		return math.Int{}, types.InvariantError(types.ErrArithmeticOverflow, "underflow: cannot subtract %s from %s", b, a)
	}
	return math.NewIntFromBigInt(new(big.Int).Sub(a.BigInt(), b.BigInt())), nil
}

// SafeMul multiplies two math.Int values with overflow checking
func SafeMul(a, b math.Int) (math.Int, error) {
	if a.IsZero() || b.IsZero() {
		return math.ZeroInt(), nil
	}
	result := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if !withinBounds(result) {
		return math.Int{}, types.InvariantError(types.ErrArithmeticOverflow, "multiplication %s * %s out of range", a, b)
	}
	return math.NewIntFromBigInt(result), nil
}

// SafeMulDiv performs (a * b) / c with overflow protection
func SafeMulDiv(a, b, c math.Int) (math.Int, error) {
	if c.IsZero() {
		return math.Int{}, types.InvariantError(types.ErrArithmeticOverflow, "division by zero")
	}
	intermediate := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if !withinBounds(intermediate) {
		return math.Int{}, types.InvariantError(types.ErrArithmeticOverflow, "overflow in multiplication step")
	}
	return math.NewIntFromBigInt(new(big.Int).Div(intermediate, c.BigInt())), nil
}

// SafeAddUint64 adds two uint64 values with overflow checking
func SafeAddUint64(a, b uint64) (uint64, error) {
	if a > (1<<64 - 1 - b) {
		return 0, types.InvariantError(types.ErrArithmeticOverflow, "uint64 addition overflow")
	}
	return a + b, nil
}

// SafeSubUint64 subtracts two uint64 values with underflow checking
func SafeSubUint64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, types.InvariantError(types.ErrArithmeticOverflow, "uint64 subtraction underflow")
	}
	return a - b, nil
}
