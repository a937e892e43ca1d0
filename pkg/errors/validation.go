package errors

import "math"

// MaxParticleCount bounds user-requested cloud sizes.
const MaxParticleCount = 200_000

// ValidateCount checks a requested particle count.
func ValidateCount(n int) error {
	if n <= 0 {
		return New(ErrCodeInvalidInput, "particle count must be positive, got %d", n)
	}
	if n > MaxParticleCount {
		return New(ErrCodeInvalidInput, "particle count %d exceeds maximum %d", n, MaxParticleCount)
	}
	return nil
}

// ValidateRange checks a configured value lies in [lo, hi] and rejects NaN.
func ValidateRange(name string, v, lo, hi float64) error {
	return checkRange(ErrCodeInvalidConfig, name, v, lo, hi)
}

// ValidateInputRange is ValidateRange for request parameters.
func ValidateInputRange(name string, v, lo, hi float64) error {
	return checkRange(ErrCodeInvalidInput, name, v, lo, hi)
}

func checkRange(code Code, name string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return New(code, "%s must be in [%g, %g], got %g", name, lo, hi, v)
	}
	return nil
}

// ValidateFactor checks a smoothing factor lies in the open interval (0, 1).
func ValidateFactor(name string, k float64) error {
	if math.IsNaN(k) || k <= 0 || k >= 1 {
		return New(ErrCodeInvalidConfig, "%s must be in (0, 1), got %g", name, k)
	}
	return nil
}
