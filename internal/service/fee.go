package service

// basisPointDivisor converts a basis-point rate to a fraction.
const basisPointDivisor = 10000

// ComputeFee returns floor(amountSats * rateBasisPoints / 10000). Pure
// arithmetic, no rounding up; the fee is stored next to the amount, never
// added into it. Both inputs are non-negative by the time they reach here.
// The multiply is split around the divisor so the intermediate product
// cannot overflow for any amount whose fee fits in int64.
func ComputeFee(amountSats, rateBasisPoints int64) int64 {
	whole := amountSats / basisPointDivisor
	rem := amountSats % basisPointDivisor
	return whole*rateBasisPoints + rem*rateBasisPoints/basisPointDivisor
}
