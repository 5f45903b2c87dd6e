package model

import "math"

// pogson is the decay constant of the flux transform: flux = 10^(-0.4*mag)
// = exp(-pogson*mag).
const pogson = 0.4 * math.Ln10

func fluxTransform(mag float64) float64 {
	return math.Exp(-pogson * mag)
}

// logistic maps an unconstrained real onto (0,1). Both bounds of the
// Uniform(0,1) dispersion priors are enforced by this map alone; no boundary
// checks appear in the density.
func logistic(u float64) float64 {
	if u >= 0 {
		return 1 / (1 + math.Exp(-u))
	}
	e := math.Exp(u)
	return e / (1 + e)
}

// softplus is log(1+exp(u)) without overflow.
func softplus(u float64) float64 {
	switch {
	case u > 30:
		return u
	case u < -30:
		return math.Exp(u)
	}
	return math.Log1p(math.Exp(u))
}

// constrainUnit fills dst with the logistic image of u and returns the
// summed log-Jacobian of the transform, log s + log(1-s) per element.
func constrainUnit(dst, u []float64) float64 {
	lj := 0.0
	for i, v := range u {
		dst[i] = logistic(v)
		lj -= softplus(v) + softplus(-v)
	}
	return lj
}

// logisticLogJacobian is the scalar form of the adjustment in constrainUnit.
func logisticLogJacobian(u float64) float64 {
	return -(softplus(u) + softplus(-u))
}
