// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dft computes power spectra of synthesized sound and magnitude
// responses of rational transfer functions.
package dft

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/emer/etable/etensor"
	"github.com/emer/formant/polyreal"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

// ErrTooShort is returned when the signal does not fill one analysis window
var ErrTooShort = errors.New("dft: signal shorter than one window")

// Params holds the settings for a short time power spectrum
type Params struct {
	WinMs      float64 `def:"25" desc:"analysis window duration in milliseconds"`
	StepMs     float64 `def:"10" desc:"step between successive windows in milliseconds"`
	Hann       bool    `def:"true" desc:"apply a Hann window to each step before the fft"`
	CompLogPow bool    `def:"true" desc:"compute the log of the power and save that to a separate table -- generaly more useful for visualization of power than raw power values"`
	LogMin     float64 `viewif:"CompLogPow" def:"-100" desc:"minimum value a log can produce -- puts a lower limit on log output"`
	LogOffSet  float64 `viewif:"CompLogPow" def:"0" desc:"add this amount when taking the log of the dft power -- e.g., 1.0 makes everything positive -- affects the relative contrast of the outputs"`
	PrevSmooth float64 `def:"0" desc:"how much of the previous step's power value to include in this one -- smooths out the power spectrum which can be artificially bumpy due to discrete window samples"`
	CurSmooth  float64 `inactive:"+" desc:" how much of current power to include"`
}

func (dft *Params) Defaults() {
	dft.WinMs = 25
	dft.StepMs = 10
	dft.Hann = true
	dft.CompLogPow = true
	dft.LogMin = -100
	dft.LogOffSet = 0
	dft.PrevSmooth = 0
	dft.Update()
}

// Update recomputes derived values
func (dft *Params) Update() {
	dft.CurSmooth = 1.0 - dft.PrevSmooth
}

// MSecToSamples converts milliseconds to samples, in terms of sample_rate
func MSecToSamples(ms float64, rate int) int {
	return int(math.Round(ms * 0.001 * float64(rate)))
}

// SamplesToMSec converts samples to milliseconds, in terms of sample_rate
func SamplesToMSec(samples int, rate int) float64 {
	return 1000.0 * float64(samples) / float64(rate)
}

// BinFreq is the center frequency of fft bin k for a window of n samples
func BinFreq(k, n, sampleRate int) float64 {
	return float64(k) * float64(sampleRate) / float64(n)
}

// Power returns the power of the real fft of in, len(in)/2+1 bins
func Power(in []float64) []float64 {
	if len(in) == 0 {
		return nil
	}
	fft := fourier.NewFFT(len(in))
	coefs := fft.Coefficients(nil, in)
	power := make([]float64, len(coefs))
	for k, c := range coefs {
		rl := real(c)
		im := imag(c)
		power[k] = rl*rl + im*im
	}
	return power
}

// PeakFrequency returns the frequency of the strongest bin of a power spectrum
// computed over a window of n samples, ignoring the DC bin
func PeakFrequency(power []float64, n, sampleRate int) float64 {
	if len(power) < 2 {
		return 0
	}
	return BinFreq(floats.MaxIdx(power[1:])+1, n, sampleRate)
}

// logPow applies the log settings to one power value
func (dft *Params) logPow(powr float64) float64 {
	powr += dft.LogOffSet
	if powr <= 0 {
		return dft.LogMin
	}
	return math.Max(math.Log(powr), dft.LogMin)
}

// Spectrogram computes the power of successive windows of signal into power, shaped
// [steps, bins]. logPower is filled the same way when CompLogPow is on and it is not nil.
// Returns the number of steps.
func (dft *Params) Spectrogram(signal []float64, sampleRate int, power, logPower *etensor.Float64) (int, error) {
	dft.Update()
	win := MSecToSamples(dft.WinMs, sampleRate)
	step := MSecToSamples(dft.StepMs, sampleRate)
	if win < 2 || step < 1 {
		return 0, fmt.Errorf("dft: window of %d samples and step of %d samples at %d Hz", win, step, sampleRate)
	}
	if len(signal) < win {
		return 0, ErrTooShort
	}
	nSteps := (len(signal)-win)/step + 1
	nBins := win/2 + 1
	shape := []int{nSteps, nBins}
	names := []string{"Step", "Freq"}
	power.SetShape(shape, nil, names)
	doLog := dft.CompLogPow && logPower != nil
	if doLog {
		logPower.SetShape(shape, nil, names)
	}

	fft := fourier.NewFFT(win)
	buf := make([]float64, win)
	var coefs []complex128
	prev := make([]float64, nBins)
	for s := 0; s < nSteps; s++ {
		copy(buf, signal[s*step:s*step+win])
		if dft.Hann {
			window.Hann(buf)
		}
		coefs = fft.Coefficients(coefs, buf)
		for k, c := range coefs {
			rl := real(c)
			im := imag(c)
			powr := rl*rl + im*im
			if s > 0 {
				powr = dft.PrevSmooth*prev[k] + dft.CurSmooth*powr
			}
			prev[k] = powr
			power.Set([]int{s, k}, powr)
			if doLog {
				logPower.Set([]int{s, k}, dft.logPow(powr))
			}
		}
	}
	return nSteps, nil
}

// MagnitudeResponse evaluates |H| of a transfer function in ascending powers of z^-1
// at n frequencies evenly spaced from 0 to the Nyquist frequency.
func MagnitudeResponse(tf polyreal.Fraction, n, sampleRate int) (freqs, mags []float64) {
	if n < 2 {
		return nil, nil
	}
	freqs = make([]float64, n)
	floats.Span(freqs, 0, float64(sampleRate)/2)
	mags = make([]float64, n)
	for i, f := range freqs {
		mags[i] = cmplx.Abs(tf.Response(2 * math.Pi * f / float64(sampleRate)))
	}
	return freqs, mags
}

// Db converts a linear magnitude to decibels, -Inf for 0
func Db(mag float64) float64 {
	return 20 * math.Log10(mag)
}
