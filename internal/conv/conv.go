// Package conv provides saturating integer arithmetic for distances, where
// reaching the limit means "infinite".
package conv

// SaturatingAdd returns a+b, clamped to limit.
// Both operands are expected to be non-negative.
func SaturatingAdd(a, b, limit int) int {
	if a >= limit || b >= limit || a > limit-b {
		return limit
	}
	return a + b
}

// SaturatingMul returns a*b, clamped to limit.
// Both operands are expected to be non-negative.
func SaturatingMul(a, b, limit int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a >= limit || b >= limit || a > limit/b {
		return limit
	}
	return a * b
}
