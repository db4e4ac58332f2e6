package core

import "golang.org/x/exp/constraints"

// constrain clamps v to [lo, hi]
func constrain[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs[T constraints.Signed](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// wrap180 folds a heading difference in degrees into [-180, 180]
func wrap180(d int16) int16 {
	if d <= -180 {
		return d + 360
	}
	if d >= 180 {
		return d - 360
	}
	return d
}
