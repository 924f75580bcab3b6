// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package polyreal implements arithmetic on polynomials with real coefficients and on
// rational fractions built from them. It is used to compose the z-plane transfer
// functions of the klatt filters.
//
// A polynomial is a []float64 of coefficients in ascending powers, index 0 is the
// constant term. Trailing (highest order) coefficients with a magnitude <= eps are
// insignificant and are removed by Trim.
package polyreal

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrEmpty is returned when a polynomial has no coefficients at all
	ErrEmpty = errors.New("polyreal: zero length coefficient array")

	// ErrDivByZero is returned when dividing by the zero polynomial
	ErrDivByZero = errors.New("polyreal: polynomial division by zero")

	// ErrLeadingZero is returned by MakeMonic for an untrimmed polynomial
	ErrLeadingZero = errors.New("polyreal: leading coefficient is zero")
)

// Equal returns true if the two polynomials are equal within eps.
// Missing high order coefficients count as zero.
func Equal(a1, a2 []float64, eps float64) bool {
	n := max(len(a1), len(a2))
	for i := 0; i < n; i++ {
		if math.Abs(coef(a1, i)-coef(a2, i)) > eps {
			return false
		}
	}
	return true
}

func coef(a []float64, i int) float64 {
	if i < len(a) {
		return a[i]
	}
	return 0
}

// Trim removes the top order coefficients whose magnitude is <= eps.
// A polynomial that trims to nothing becomes [0].
func Trim(a []float64, eps float64) ([]float64, error) {
	if len(a) == 0 {
		return nil, ErrEmpty
	}
	n := len(a)
	for n > 0 && math.Abs(a[n-1]) <= eps {
		n--
	}
	if n == 0 {
		return []float64{0}, nil
	}
	a2 := make([]float64, n)
	copy(a2, a[:n])
	return a2, nil
}

// Add adds two polynomials.
func Add(a1, a2 []float64, eps float64) ([]float64, error) {
	if len(a1) == 0 || len(a2) == 0 {
		return nil, ErrEmpty
	}
	a3 := make([]float64, max(len(a1), len(a2)))
	for i := range a3 {
		a3[i] = coef(a1, i) + coef(a2, i)
	}
	return Trim(a3, eps)
}

// Multiply multiplies two polynomials by convolving their coefficients.
func Multiply(a1, a2 []float64, eps float64) ([]float64, error) {
	if len(a1) == 0 || len(a2) == 0 {
		return nil, ErrEmpty
	}
	if isZero(a1) || isZero(a2) {
		return []float64{0}, nil
	}
	n1 := len(a1) - 1
	n2 := len(a2) - 1
	a3 := make([]float64, n1+n2+1)
	for i := range a3 {
		var t float64
		for j := max(0, i-n2); j <= min(n1, i); j++ {
			t += a1[j] * a2[i-j]
		}
		a3[i] = t
	}
	return Trim(a3, eps)
}

// isZero reports whether a is the literal zero polynomial [0]
func isZero(a []float64) bool {
	return len(a) == 1 && a[0] == 0
}

// Divide divides a1 by a2 and returns the quotient and remainder.
// Both operands are trimmed first.
func Divide(a1r, a2r []float64, eps float64) (quot, rem []float64, err error) {
	a1, err := Trim(a1r, eps)
	if err != nil {
		return nil, nil, err
	}
	a2, err := Trim(a2r, eps)
	if err != nil {
		return nil, nil, err
	}
	if len(a2) == 1 {
		if a2[0] == 0 {
			return nil, nil, ErrDivByZero
		}
		if a2[0] != 1 {
			floats.Scale(1/a2[0], a1)
		}
		return a1, []float64{0}, nil
	}
	n1 := len(a1) - 1
	n2 := len(a2) - 1
	if n1 < n2 {
		return []float64{0}, a1, nil
	}
	a := a1 // a1 is a private copy made by Trim
	lc2 := a2[n2]
	for i := n1 - n2; i >= 0; i-- {
		r := a[n2+i] / lc2
		a[n2+i] = r
		for j := 0; j < n2; j++ {
			a[i+j] -= r * a2[j]
		}
	}
	if quot, err = Trim(a[n2:], eps); err != nil {
		return nil, nil, err
	}
	if rem, err = Trim(a[:n2], eps); err != nil {
		return nil, nil, err
	}
	return quot, rem, nil
}

// MakeMonic divides all coefficients by the leading coefficient, in place,
// so that the leading coefficient becomes exactly 1. The polynomial must be trimmed.
func MakeMonic(a []float64) error {
	if len(a) == 0 {
		return ErrEmpty
	}
	n := len(a) - 1
	lc := a[n]
	if lc == 1 {
		return nil
	}
	if lc == 0 {
		return ErrLeadingZero
	}
	floats.Scale(1/lc, a[:n])
	a[n] = 1
	return nil
}

// Gcd returns the monic greatest common divisor of two polynomials, computed
// with the Euclidean algorithm. Polynomials that only share a constant factor
// yield [1].
func Gcd(a1, a2 []float64, eps float64) ([]float64, error) {
	r1, err := Trim(a1, eps)
	if err != nil {
		return nil, err
	}
	r2, err := Trim(a2, eps)
	if err != nil {
		return nil, err
	}
	if err := MakeMonic(r1); err != nil {
		return nil, fmt.Errorf("gcd: %w", err)
	}
	if err := MakeMonic(r2); err != nil {
		return nil, fmt.Errorf("gcd: %w", err)
	}
	if len(r1) < len(r2) {
		r1, r2 = r2, r1
	}
	for {
		if len(r2) < 2 {
			return []float64{1}, nil
		}
		_, r, err := Divide(r1, r2, eps)
		if err != nil {
			return nil, err
		}
		if isZero(r) {
			return r2, nil
		}
		if err := MakeMonic(r); err != nil {
			return nil, fmt.Errorf("gcd: %w", err)
		}
		r1, r2 = r2, r
	}
}

// Eval evaluates the polynomial at the complex point z.
func Eval(a []float64, z complex128) complex128 {
	var v complex128
	for i := len(a) - 1; i >= 0; i-- {
		v = v*z + complex(a[i], 0)
	}
	return v
}
