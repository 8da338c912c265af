package ledger

import (
	"math/bits"

	"msc-ledger/internal/domain"
)

// ComputeSwapOutput converts an input amount into (net output, fee) under a
// fixed-point exchange rate (1e6 scale) and a basis-point fee.
//
//	gross  = inputAmount * rate / 1e6   (truncating)
//	fee    = gross * feeBps / 10_000    (truncating)
//	output = gross - fee
//
// Pure and deterministic. Every step is overflow-checked; the underflow
// check cannot trip while feeBps <= 10000 but is enforced, not assumed.
func ComputeSwapOutput(inputAmount, rate uint64, feeBps uint16) (outputAmount, feeAmount uint64, err error) {
	gross, err := checkedMul(inputAmount, rate)
	if err != nil {
		return 0, 0, err
	}
	gross, err = checkedDiv(gross, domain.RateScale)
	if err != nil {
		return 0, 0, err
	}

	feeAmount, err = checkedMul(gross, uint64(feeBps))
	if err != nil {
		return 0, 0, err
	}
	feeAmount, err = checkedDiv(feeAmount, domain.BpsDenominator)
	if err != nil {
		return 0, 0, err
	}

	outputAmount, err = checkedSub(gross, feeAmount)
	if err != nil {
		return 0, 0, err
	}

	return outputAmount, feeAmount, nil
}

// checkedMul multiplies two uint64, failing with ErrMathOverflow on wrap.
func checkedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrMathOverflow
	}
	return lo, nil
}

// checkedDiv divides, failing with ErrDivisionByZero on a zero divisor.
func checkedDiv(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a / b, nil
}

// checkedAdd adds two uint64, failing with ErrMathOverflow on wrap.
func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrMathOverflow
	}
	return sum, nil
}

// checkedSub subtracts b from a, failing with ErrMathUnderflow when b > a.
func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrMathUnderflow
	}
	return a - b, nil
}

// checkedInc32 increments a uint32 counter, failing with ErrMathOverflow on wrap.
func checkedInc32(a uint32) (uint32, error) {
	if a == ^uint32(0) {
		return 0, ErrMathOverflow
	}
	return a + 1, nil
}
