// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mel computes mel frequency filter bank and cepstrum features from power spectra.
package mel

import (
	"fmt"
	"math"

	"github.com/emer/etable/etensor"
	"gonum.org/v1/gonum/dsp/fourier"
)

// FilterBank contains mel frequency feature bank sampling parameters
type FilterBank struct {
	NFilters    int     `view:"+" def:"32,26" desc:"number of Mel frequency filters to compute"`
	LoHz        float64 `view:"+" def:"120,300" step:"10.0" desc:"low frequency end of mel frequency spectrum"`
	HiHz        float64 `view:"+" def:"10000,8000" step:"1000.0" desc:"high frequency end of mel frequency spectrum -- must be <= sample_rate / 2 (i.e., less than the Nyquist frequencY"`
	LogOff      float64 `view:"+" def:"0" desc:"on add this amount when taking the log of the Mel filter sums to produce the filter-bank output -- e.g., 1.0 makes everything positive -- affects the relative contrast of the outputs"`
	LogMin      float64 `view:"+" def:"-10" desc:"minimum value a log can produce -- puts a lower limit on log output"`
	Renorm      bool    `desc:" whether to perform renormalization of the mel values"`
	RenormMin   float64 `viewif:"Renorm" step:"1.0" desc:"minimum value to use for renormalization -- you must experiment with range of inputs to determine appropriate values"`
	RenormMax   float64 `viewif:"Renorm" step:"1.0" desc:"maximum value to use for renormalization -- you must experiment with range of inputs to determine appropriate values"`
	RenormScale float64 `view:"-" desc:"1.0 / (ren_max - ren_min)"`
}

// Defaults initializes FBank values - these are the ones you most likely need to adjust for your particular signals
func (mfb *FilterBank) Defaults() {
	mfb.LoHz = 0
	mfb.HiHz = 8000.0
	mfb.NFilters = 32
	mfb.LogOff = 0.0
	mfb.LogMin = -10.0
	mfb.Renorm = false
	mfb.RenormMin = -6.0
	mfb.RenormMax = 4.0
}

// Params
type Params struct {
	FBank   FilterBank      `view:"inline"`
	MFCC    bool            `view:"+" def:"false" desc:" compute cepstrum discrete cosine transform (dct) of the mel-frequency filter bank features"`
	NCoefs  int             `viewif:"MFCC" def:"13" desc:" number of mfcc coefficients to output -- typically 1/2 of the number of filterbank features"`
	BinPts  []int           `view:"-" desc:" mel scale points in fft bins"`
	HzPts   []float64       `view:"-" desc:" mel scale points in hz"`
	Filters etensor.Float64 `view:"-" desc:" triangular filter weights, [filter, bin offset from BinPts[filter]]"`
	dct     *fourier.DCT
}

// Defaults
func (mel *Params) Defaults() {
	mel.MFCC = false
	mel.NCoefs = 13
	mel.FBank.Defaults()
}

// InitFilters computes the filter bin values for power spectra of a window of dftSize samples
func (mel *Params) InitFilters(dftSize int, sampleRate int) error {
	fb := &mel.FBank
	if fb.NFilters < 1 || fb.LoHz < 0 || fb.HiHz <= fb.LoHz || fb.HiHz > float64(sampleRate)/2 {
		return fmt.Errorf("mel: invalid filter bank %d filters %g..%g Hz at %d Hz", fb.NFilters, fb.LoHz, fb.HiHz, sampleRate)
	}
	if mel.MFCC && (mel.NCoefs < 1 || mel.NCoefs > fb.NFilters) {
		return fmt.Errorf("mel: %d cepstrum coefficients for %d filters", mel.NCoefs, fb.NFilters)
	}
	mel.BinPts = make([]int, fb.NFilters+2) // plus 2 because we need end points to create the right number of bins
	mel.HzPts = make([]float64, fb.NFilters+2)
	if fb.Renorm {
		fb.RenormScale = 1.0 / (fb.RenormMax - fb.RenormMin)
	}

	hiMel := FreqToMel(fb.HiHz)
	loMel := FreqToMel(fb.LoHz)
	incr := (hiMel - loMel) / float64(fb.NFilters+1)

	for i := range mel.BinPts {
		hz := MelToFreq(loMel + float64(i)*incr)
		mel.HzPts[i] = hz
		mel.BinPts[i] = FreqToBin(hz, float64(dftSize), float64(sampleRate))
	}

	maxBins := 0
	for f := 0; f < fb.NFilters; f++ {
		if w := mel.BinPts[f+2] - mel.BinPts[f] + 1; w > maxBins {
			maxBins = w
		}
	}
	mel.Filters.SetShape([]int{fb.NFilters, maxBins}, nil, []string{"Filter", "Bin"})
	for i := range mel.Filters.Values {
		mel.Filters.Values[i] = 0
	}

	for f := 0; f < fb.NFilters; f++ {
		binMin := mel.BinPts[f]
		binCtr := mel.BinPts[f+1]
		binMax := mel.BinPts[f+2]
		pkmin := float64(binCtr - binMin)
		pkmax := float64(binMax - binCtr)

		fi := 0
		bin := binMin
		for ; bin <= binCtr; bin, fi = bin+1, fi+1 {
			fval := 1.0
			if pkmin > 0 {
				fval = float64(bin-binMin) / pkmin
			}
			mel.Filters.Set([]int{f, fi}, fval)
		}
		for ; bin <= binMax; bin, fi = bin+1, fi+1 {
			mel.Filters.Set([]int{f, fi}, float64(binMax-bin)/pkmax)
		}
	}
	if mel.MFCC {
		mel.dct = fourier.NewDCT(fb.NFilters)
	}
	return nil
}

// FilterDft applies the mel filters to one power spectrum, writing the log filter sums to fBank
func (mel *Params) FilterDft(power []float64, fBank []float64) {
	for flt := 0; flt < mel.FBank.NFilters; flt++ {
		minBin := mel.BinPts[flt]
		maxBin := mel.BinPts[flt+2]

		sum := 0.0
		for bin, fi := minBin, 0; bin <= maxBin && bin < len(power); bin, fi = bin+1, fi+1 {
			sum += mel.Filters.Value([]int{flt, fi}) * power[bin]
		}
		sum += mel.FBank.LogOff
		var val float64
		if sum <= 0 {
			val = mel.FBank.LogMin
		} else {
			val = math.Max(math.Log(sum), mel.FBank.LogMin)
		}
		if mel.FBank.Renorm {
			val -= mel.FBank.RenormMin
			if val < 0.0 {
				val = 0.0
			}
			val *= mel.FBank.RenormScale
			if val > 1.0 {
				val = 1.0
			}
		}
		fBank[flt] = val
	}
}

// CepstrumDct applies a discrete cosine transform (DCT) to get the cepstrum coefficients on the
// mel filterbank values, returning NCoefs of them. The first coefficient is replaced by a log energy.
func (mel *Params) CepstrumDct(fBank []float64) []float64 {
	if mel.dct == nil {
		mel.dct = fourier.NewDCT(mel.FBank.NFilters)
	}
	out := mel.dct.Transform(nil, fBank)
	el0 := out[0]
	out[0] = math.Log(1.0 + el0*el0)
	return out[:mel.NCoefs]
}

// Spectrogram applies the filter bank to each row of a [steps, bins] power tensor,
// filling fBank as [steps, filters] and, when MFCC is on and mfcc is not nil, mfcc as [steps, coefs]
func (mel *Params) Spectrogram(power, fBank, mfcc *etensor.Float64) {
	steps := power.Dim(0)
	bins := power.Dim(1)
	nf := mel.FBank.NFilters
	fBank.SetShape([]int{steps, nf}, nil, []string{"Step", "Filter"})
	doMfcc := mel.MFCC && mfcc != nil
	if doMfcc {
		mfcc.SetShape([]int{steps, mel.NCoefs}, nil, []string{"Step", "Coef"})
	}
	row := make([]float64, nf)
	for s := 0; s < steps; s++ {
		mel.FilterDft(power.Values[s*bins:(s+1)*bins], row)
		copy(fBank.Values[s*nf:(s+1)*nf], row)
		if doMfcc {
			copy(mfcc.Values[s*mel.NCoefs:(s+1)*mel.NCoefs], mel.CepstrumDct(row))
		}
	}
}

// FreqToMel converts frequency to mel scale
func FreqToMel(freq float64) float64 {
	return 1127.0 * math.Log(1.0+freq/700.0) // 1127 because we are using natural log
}

// MelToFreq converts mel scale to frequency
func MelToFreq(mel float64) float64 {
	return 700.0 * (math.Exp(mel/1127.0) - 1.0)
}

// FreqToBin converts frequency into FFT bin number, using parameters of number of FFT bins and sample rate
func FreqToBin(freq, nFft, sampleRate float64) int {
	return int(math.Floor(((nFft + 1) * freq) / sampleRate))
}
