package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
// Used for per-item fields that fall back to configured defaults when left unset.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// FirstPositive returns the first strictly positive, finite value, or 0 if none qualifies.
// Unlike Coalesce it also skips negative and NaN values.
func FirstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 && IsFinite(v) {
			return v
		}
	}
	return 0
}
