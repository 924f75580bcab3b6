// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package klatt

import (
	"fmt"
	"math"

	"github.com/emer/formant/polyreal"
)

// FilterMode is the operating mode of a filter
type FilterMode int32

const (
	// Passthrough returns the input unchanged
	Passthrough FilterMode = iota

	// Muted always returns 0
	Muted

	// Active applies the filter coefficients
	Active
)

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

//////////////////////////////////////////////////////////////
//  LpFilter1

// LpFilter1 is a first order IIR low-pass filter.
//
//	y[n] = a * x[n] + b * y[n-1]
//	H(z) = a / (1 - b * z^-1)
//	|H(w)| = a / sqrt(1 - 2b * cos(w) + b^2)
//
// b is computed from a gain g at frequency f and a DC gain of 1:
//
//	q = (1 - g^2 * cos(w)) / (1 - g^2)
//	b = q - sqrt(q^2 - 1)
type LpFilter1 struct {
	SampleRate int
	Mode       FilterMode
	a          float64 // filter coefficient a
	b          float64 // filter coefficient b
	y1         float64 // y[n-1]
}

// Init sets the sample rate and puts the filter into passthrough mode
func (lp *LpFilter1) Init(sampleRate int) {
	lp.SampleRate = sampleRate
	lp.a = 0
	lp.b = 0
	lp.SetPassthrough()
}

// Set adjusts the filter parameters without resetting the inner state.
// g is the gain at frequency f, between 0 and 1. extraGain is the resulting DC gain,
// so the gain at f becomes g * extraGain.
func (lp *LpFilter1) Set(f, g, extraGain float64) error {
	if f <= 0 || f >= float64(lp.SampleRate)/2 || g <= 0 || g >= 1 || !finite(f, g, extraGain) {
		return fmt.Errorf("lp filter f=%g g=%g extraGain=%g: %w", f, g, extraGain, ErrInvalidParams)
	}
	w := 2 * math.Pi * f / float64(lp.SampleRate)
	q := (1 - g*g*math.Cos(w)) / (1 - g*g)
	lp.b = q - math.Sqrt(q*q-1)
	lp.a = (1 - lp.b) * extraGain
	lp.Mode = Active
	return nil
}

// SetPassthrough
func (lp *LpFilter1) SetPassthrough() {
	lp.Mode = Passthrough
	lp.y1 = 0
}

// SetMute
func (lp *LpFilter1) SetMute() {
	lp.Mode = Muted
	lp.y1 = 0
}

// TransferFunctionCoefficients returns the z-plane transfer function of the filter
func (lp *LpFilter1) TransferFunctionCoefficients() polyreal.Fraction {
	switch lp.Mode {
	case Passthrough:
		return polyreal.One()
	case Muted:
		return polyreal.Zero()
	}
	return polyreal.Fraction{Num: []float64{lp.a}, Den: []float64{1, -lp.b}}
}

// Step performs one filter step
func (lp *LpFilter1) Step(x float64) float64 {
	switch lp.Mode {
	case Passthrough:
		return x
	case Muted:
		return 0
	}
	y := lp.a*x + lp.b*lp.y1
	lp.y1 = y
	return y
}

//////////////////////////////////////////////////////////////
//  Resonator

// Resonator is a Klatt resonator, a second order IIR filter.
// With f = 0 it can be used as a low-pass filter.
//
//	r = exp(-PI * bw / sampleRate)
//	y[n] = a * x[n] + b * y[n-1] + c * y[n-2]
//	H(z) = a / (1 - b * z^-1 - c * z^-2)
//	|H(0)| = a / (1 - b - c)
//	|H(f0)| = a / (1 - r)
type Resonator struct {
	SampleRate int
	Mode       FilterMode
	a          float64
	b          float64
	c          float64
	y1         float64 // y[n-1]
	y2         float64 // y[n-2]
	r          float64
}

// Init sets the sample rate and puts the resonator into passthrough mode
func (rs *Resonator) Init(sampleRate int) {
	rs.SampleRate = sampleRate
	rs.a, rs.b, rs.c, rs.r = 0, 0, 0, 0
	rs.SetPassthrough()
}

// Set adjusts the resonator frequency f (may be 0 for LP filtering), bandwidth bw,
// and DC gain without resetting the inner state.
func (rs *Resonator) Set(f, bw, dcGain float64) error {
	if f < 0 || f >= float64(rs.SampleRate)/2 || bw <= 0 || dcGain <= 0 || !finite(f, bw, dcGain) {
		return fmt.Errorf("resonator f=%g bw=%g dcGain=%g: %w", f, bw, dcGain, ErrInvalidParams)
	}
	rs.r = math.Exp(-math.Pi * bw / float64(rs.SampleRate))
	w := 2 * math.Pi * f / float64(rs.SampleRate)
	rs.c = -(rs.r * rs.r)
	rs.b = 2 * rs.r * math.Cos(w)
	rs.a = (1 - rs.b - rs.c) * dcGain
	rs.Mode = Active
	return nil
}

// SetPassthrough
func (rs *Resonator) SetPassthrough() {
	rs.Mode = Passthrough
	rs.y1 = 0
	rs.y2 = 0
}

// SetMute
func (rs *Resonator) SetMute() {
	rs.Mode = Muted
	rs.y1 = 0
	rs.y2 = 0
}

// AdjustImpulseGain overrides coefficient a directly
func (rs *Resonator) AdjustImpulseGain(a float64) {
	rs.a = a
}

// AdjustPeakGain sets coefficient a so that the gain at the resonance frequency is peakGain
func (rs *Resonator) AdjustPeakGain(peakGain float64) error {
	if peakGain <= 0 || !finite(peakGain) {
		return fmt.Errorf("resonator peak gain %g: %w", peakGain, ErrInvalidParams)
	}
	rs.a = peakGain * (1 - rs.r)
	return nil
}

// TransferFunctionCoefficients returns the z-plane transfer function of the resonator
func (rs *Resonator) TransferFunctionCoefficients() polyreal.Fraction {
	switch rs.Mode {
	case Passthrough:
		return polyreal.One()
	case Muted:
		return polyreal.Zero()
	}
	return polyreal.Fraction{Num: []float64{rs.a}, Den: []float64{1, -rs.b, -rs.c}}
}

// Step performs one filter step
func (rs *Resonator) Step(x float64) float64 {
	switch rs.Mode {
	case Passthrough:
		return x
	case Muted:
		return 0
	}
	y := rs.a*x + rs.b*rs.y1 + rs.c*rs.y2
	rs.y2 = rs.y1
	rs.y1 = y
	return y
}

//////////////////////////////////////////////////////////////
//  AntiResonator

// AntiResonator is a Klatt anti-resonator, a second order FIR filter.
// Its coefficients are the inverse of the corresponding resonator.
//
//	y[n] = a * x[n] + b * x[n-1] + c * x[n-2]
//	H(z) = a + b * z^-1 + c * z^-2
type AntiResonator struct {
	SampleRate int
	Mode       FilterMode
	a          float64
	b          float64
	c          float64
	x1         float64 // x[n-1]
	x2         float64 // x[n-2]
}

// Init sets the sample rate and puts the anti-resonator into passthrough mode
func (ar *AntiResonator) Init(sampleRate int) {
	ar.SampleRate = sampleRate
	ar.a, ar.b, ar.c = 0, 0, 0
	ar.SetPassthrough()
}

// Set adjusts the anti-resonator frequency and bandwidth without resetting the inner state.
// When the inverted resonator has a zero gain coefficient all coefficients become 0.
func (ar *AntiResonator) Set(f, bw float64) error {
	if f <= 0 || f >= float64(ar.SampleRate)/2 || bw <= 0 || !finite(f, bw) {
		return fmt.Errorf("anti-resonator f=%g bw=%g: %w", f, bw, ErrInvalidParams)
	}
	r := math.Exp(-math.Pi * bw / float64(ar.SampleRate))
	w := 2 * math.Pi * f / float64(ar.SampleRate)
	c0 := -(r * r)
	b0 := 2 * r * math.Cos(w)
	a0 := 1 - b0 - c0
	if a0 == 0 {
		ar.a, ar.b, ar.c = 0, 0, 0
		return nil
	}
	ar.a = 1 / a0
	ar.b = -b0 / a0
	ar.c = -c0 / a0
	ar.Mode = Active
	return nil
}

// SetPassthrough
func (ar *AntiResonator) SetPassthrough() {
	ar.Mode = Passthrough
	ar.x1 = 0
	ar.x2 = 0
}

// SetMute
func (ar *AntiResonator) SetMute() {
	ar.Mode = Muted
	ar.x1 = 0
	ar.x2 = 0
}

// TransferFunctionCoefficients returns the z-plane transfer function of the anti-resonator
func (ar *AntiResonator) TransferFunctionCoefficients() polyreal.Fraction {
	switch ar.Mode {
	case Passthrough:
		return polyreal.One()
	case Muted:
		return polyreal.Zero()
	}
	return polyreal.Fraction{Num: []float64{ar.a, ar.b, ar.c}, Den: []float64{1}}
}

// Step performs one filter step
func (ar *AntiResonator) Step(x float64) float64 {
	switch ar.Mode {
	case Passthrough:
		return x
	case Muted:
		return 0
	}
	y := ar.a*x + ar.b*ar.x1 + ar.c*ar.x2
	ar.x2 = ar.x1
	ar.x1 = x
	return y
}

//////////////////////////////////////////////////////////////
//  DifferencingFilter

// DifferencingFilter is a first order FIR high-pass filter.
// The filter curve depends on the sample rate.
//
//	y[n] = x[n] - x[n-1]
//	|H(w)| = sqrt(2 - 2 * cos(w))
type DifferencingFilter struct {
	x1 float64 // x[n-1]
}

// Reset clears the delay line
func (df *DifferencingFilter) Reset() {
	df.x1 = 0
}

// TransferFunctionCoefficients returns the z-plane transfer function 1 - z^-1
func (df *DifferencingFilter) TransferFunctionCoefficients() polyreal.Fraction {
	return polyreal.Fraction{Num: []float64{1, -1}, Den: []float64{1}}
}

// Step performs one filter step
func (df *DifferencingFilter) Step(x float64) float64 {
	y := x - df.x1
	df.x1 = x
	return y
}
