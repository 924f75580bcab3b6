// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package polyreal

import "math/cmplx"

// Fraction is a rational function Num / Den of two real polynomials.
// Den is never the zero polynomial.
type Fraction struct {
	Num []float64 `desc:"numerator coefficients, ascending powers"`
	Den []float64 `desc:"denominator coefficients, ascending powers"`
}

// One is the fraction 1 / 1
func One() Fraction {
	return Fraction{Num: []float64{1}, Den: []float64{1}}
}

// Zero is the fraction 0 / 1
func Zero() Fraction {
	return Fraction{Num: []float64{0}, Den: []float64{1}}
}

// Const returns the fraction v / 1
func Const(v float64) Fraction {
	return Fraction{Num: []float64{v}, Den: []float64{1}}
}

// AddFractions adds two fractions.
// Equal denominators (within eps) are kept and the numerators added. Otherwise the
// denominators are reduced by their GCD before cross multiplication, so that a
// common factor appears only once in the resulting denominator. A GCD that does not
// divide both denominators exactly (within eps) is ignored.
func AddFractions(f1, f2 Fraction, eps float64) (Fraction, error) {
	if Equal(f1.Den, f2.Den, eps) {
		top, err := Add(f1.Num, f2.Num, eps)
		if err != nil {
			return Fraction{}, err
		}
		return Fraction{Num: top, Den: append([]float64(nil), f1.Den...)}, nil
	}
	g, err := Gcd(f1.Den, f2.Den, eps)
	if err != nil {
		return Fraction{}, err
	}
	d1, d2 := f1.Den, f2.Den
	if !(len(g) == 1 && g[0] == 1) {
		q1, r1, err := Divide(f1.Den, g, eps)
		if err != nil {
			return Fraction{}, err
		}
		q2, r2, err := Divide(f2.Den, g, eps)
		if err != nil {
			return Fraction{}, err
		}
		// a divisor that leaves a remainder is a rounding artifact, not a common factor
		if isZero(r1) && isZero(r2) {
			d1, d2 = q1, q2
		}
	}
	t1, err := Multiply(f1.Num, d2, eps)
	if err != nil {
		return Fraction{}, err
	}
	t2, err := Multiply(f2.Num, d1, eps)
	if err != nil {
		return Fraction{}, err
	}
	top, err := Add(t1, t2, eps)
	if err != nil {
		return Fraction{}, err
	}
	bottom, err := Multiply(f1.Den, d2, eps)
	if err != nil {
		return Fraction{}, err
	}
	return Fraction{Num: top, Den: bottom}, nil
}

// MultiplyFractions multiplies two fractions. The result is not reduced.
func MultiplyFractions(f1, f2 Fraction, eps float64) (Fraction, error) {
	top, err := Multiply(f1.Num, f2.Num, eps)
	if err != nil {
		return Fraction{}, err
	}
	bottom, err := Multiply(f1.Den, f2.Den, eps)
	if err != nil {
		return Fraction{}, err
	}
	return Fraction{Num: top, Den: bottom}, nil
}

// Response returns the complex value of the fraction at normalized angular
// frequency w (radians per sample), with z^-1 = e^(-jw) as the polynomial variable.
func (f Fraction) Response(w float64) complex128 {
	z := cmplx.Exp(complex(0, -w))
	return Eval(f.Num, z) / Eval(f.Den, z)
}
