// Package math provides generic helpers over ordered types.
package math

import "golang.org/x/exp/constraints"

// Max calculates the maximum of two values.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Min calculates the minimum of two values.
func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}
