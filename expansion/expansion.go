// Package expansion implements error-free transformations on IEEE-754
// doubles and the expansion combinators built from them.
//
// An expansion is an ordered sequence of nonoverlapping doubles, sorted by
// increasing magnitude, whose unrounded algebraic sum is the exact real
// number it represents. The primitives here each produce a two-component
// expansion (x, y) with x + y exactly equal to the elementary operation on
// the inputs under round-to-nearest; the combinators merge and scale whole
// expansions while preserving exactness.
//
// References:
//   - Shewchuk: "Adaptive Precision Floating-Point Arithmetic and Fast
//     Robust Geometric Predicates" (1997)
//   - Dekker: "A Floating-Point Technique for Extending the Available
//     Precision" (1971)
package expansion

// Epsilon is the largest power of one half such that 1 + Epsilon == 1.
// Splitter is 2^ceil(p/2) + 1 for mantissa width p; multiplying by it
// splits a double into high and low mantissa halves.
//
// Both are found dynamically at startup so the package never hardcodes a
// mantissa width.
var (
	Epsilon  float64
	Splitter float64
)

func init() {
	epsilon := 1.0
	splitter := 1.0
	everyOther := true
	for {
		epsilon *= 0.5
		if everyOther {
			splitter *= 2.0
		}
		everyOther = !everyOther
		if 1.0+epsilon == 1.0 {
			break
		}
	}
	splitter += 1.0
	Epsilon = epsilon
	Splitter = splitter
}

// Split returns (hi, lo) with hi + lo == a, where hi holds the high half
// of the mantissa of a and lo the remainder.
func Split(a float64) (hi, lo float64) {
	c := Splitter * a
	abig := c - a
	hi = c - abig
	lo = a - hi
	return hi, lo
}

// TwoSum returns (x, y) with x == fl(a+b) and x + y == a + b exactly.
func TwoSum(a, b float64) (x, y float64) {
	x = a + b
	bvirt := x - a
	avirt := x - bvirt
	bround := b - bvirt
	around := a - avirt
	return x, around + bround
}

// TwoSumFast is TwoSum under the precondition |a| >= |b|.
func TwoSumFast(a, b float64) (x, y float64) {
	x = a + b
	bvirt := x - a
	return x, b - bvirt
}

// TwoDiff returns (x, y) with x == fl(a-b) and x + y == a - b exactly.
func TwoDiff(a, b float64) (x, y float64) {
	x = a - b
	bvirt := a - x
	avirt := x + bvirt
	bround := bvirt - b
	around := a - avirt
	return x, around + bround
}

// TwoProduct1Presplit returns the exact product a*b as (x, y), with b
// already split into (bhi, blo).
func TwoProduct1Presplit(a, b, bhi, blo float64) (x, y float64) {
	ahi, alo := Split(a)
	x = a * b
	err1 := x - ahi*bhi
	err2 := err1 - alo*bhi
	err3 := err2 - ahi*blo
	return x, alo*blo - err3
}

// TwoProduct2Presplit returns the exact product a*b as (x, y), with both
// operands already split.
func TwoProduct2Presplit(a, ahi, alo, b, bhi, blo float64) (x, y float64) {
	x = a * b
	err1 := x - ahi*bhi
	err2 := err1 - alo*bhi
	err3 := err2 - ahi*blo
	return x, alo*blo - err3
}

// TwoTwoProduct writes the exact product of the two-component expansions
// (a1, a0) and (b1, b0) into x, lowest-magnitude component first. All
// eight components are written; some may be zero.
func TwoTwoProduct(a1, a0, b1, b0 float64, x *[8]float64) {
	var u0, u1, u2, ui, uj, uk, ul, um, un float64

	a0hi, a0lo := Split(a0)
	b0hi, b0lo := Split(b0)
	ui, x[0] = TwoProduct2Presplit(a0, a0hi, a0lo, b0, b0hi, b0lo)
	a1hi, a1lo := Split(a1)
	uj, u0 = TwoProduct2Presplit(a1, a1hi, a1lo, b0, b0hi, b0lo)
	uk, u1 = TwoSum(ui, u0)
	ul, u2 = TwoSumFast(uj, uk)
	b1hi, b1lo := Split(b1)
	ui, u0 = TwoProduct2Presplit(a0, a0hi, a0lo, b1, b1hi, b1lo)
	uk, x[1] = TwoSum(u1, u0)
	uj, u1 = TwoSum(u2, uk)
	um, u2 = TwoSum(ul, uj)
	uj, u0 = TwoProduct2Presplit(a1, a1hi, a1lo, b1, b1hi, b1lo)
	un, u0 = TwoSum(ui, u0)
	ui, x[2] = TwoSum(u1, u0)
	uk, u1 = TwoSum(u2, ui)
	ul, u2 = TwoSum(um, uk)
	uk, u0 = TwoSum(uj, un)
	uj, x[3] = TwoSum(u1, u0)
	ui, u1 = TwoSum(u2, uj)
	um, u2 = TwoSum(ul, ui)
	ui, x[4] = TwoSum(u1, uk)
	uk, x[5] = TwoSum(u2, ui)
	x[7], x[6] = TwoSum(um, uk)
}

// ScaleZeroElim multiplies the expansion e by the scalar b, writing the
// zero-eliminated result into h. It returns the number of components
// stored, at least one: a single explicit zero is kept when the whole
// product cancels. h must have capacity for 2*len(e) components.
func ScaleZeroElim(e []float64, b float64, h []float64) int {
	bhi, blo := Split(b)
	q, hh := TwoProduct1Presplit(e[0], b, bhi, blo)
	hindex := 0
	if hh != 0 {
		h[hindex] = hh
		hindex++
	}
	for eindex := 1; eindex < len(e); eindex++ {
		enow := e[eindex]
		product1, product0 := TwoProduct1Presplit(enow, b, bhi, blo)
		sum, hh := TwoSum(q, product0)
		if hh != 0 {
			h[hindex] = hh
			hindex++
		}
		q, hh = TwoSumFast(product1, sum)
		if hh != 0 {
			h[hindex] = hh
			hindex++
		}
	}
	if q != 0.0 || hindex == 0 {
		h[hindex] = q
		hindex++
	}
	return hindex
}

// SumZeroElimFast merges the expansions e and f in order of increasing
// magnitude, writing the zero-eliminated sum into h. It returns the
// number of components stored, at least one. h must have capacity for
// len(e)+len(f) components.
func SumZeroElimFast(e, f, h []float64) int {
	var q, qnew, hh float64
	enow := e[0]
	fnow := f[0]
	eindex, findex := 0, 0
	if (fnow > enow) == (fnow > -enow) {
		q = enow
		eindex++
		if eindex < len(e) {
			enow = e[eindex]
		}
	} else {
		q = fnow
		findex++
		if findex < len(f) {
			fnow = f[findex]
		}
	}
	hindex := 0
	if eindex < len(e) && findex < len(f) {
		if (fnow > enow) == (fnow > -enow) {
			qnew, hh = TwoSumFast(enow, q)
			eindex++
			if eindex < len(e) {
				enow = e[eindex]
			}
		} else {
			qnew, hh = TwoSumFast(fnow, q)
			findex++
			if findex < len(f) {
				fnow = f[findex]
			}
		}
		q = qnew
		if hh != 0.0 {
			h[hindex] = hh
			hindex++
		}
		for eindex < len(e) && findex < len(f) {
			if (fnow > enow) == (fnow > -enow) {
				qnew, hh = TwoSum(q, enow)
				eindex++
				if eindex < len(e) {
					enow = e[eindex]
				}
			} else {
				qnew, hh = TwoSum(q, fnow)
				findex++
				if findex < len(f) {
					fnow = f[findex]
				}
			}
			q = qnew
			if hh != 0.0 {
				h[hindex] = hh
				hindex++
			}
		}
	}
	for eindex < len(e) {
		qnew, hh = TwoSum(q, enow)
		eindex++
		if eindex < len(e) {
			enow = e[eindex]
		}
		q = qnew
		if hh != 0.0 {
			h[hindex] = hh
			hindex++
		}
	}
	for findex < len(f) {
		qnew, hh = TwoSum(q, fnow)
		findex++
		if findex < len(f) {
			fnow = f[findex]
		}
		q = qnew
		if hh != 0.0 {
			h[hindex] = hh
			hindex++
		}
	}
	if q != 0.0 || hindex == 0 {
		h[hindex] = q
		hindex++
	}
	return hindex
}
