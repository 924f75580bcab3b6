// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dft

import (
	"math"
	"testing"

	"github.com/emer/etable/etensor"
	"github.com/emer/formant/polyreal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n int, freq float64, sampleRate int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func TestPowerPeak(t *testing.T) {
	const n = 64
	const sr = 6400
	power := Power(sine(n, 800, sr))
	require.Len(t, power, n/2+1)
	assert.InDelta(t, n*n/4.0, power[8], 1e-6)
	assert.Equal(t, 800.0, PeakFrequency(power, n, sr))
	for k, p := range power {
		if k != 8 {
			assert.InDelta(t, 0, p, 1e-9, "bin %d", k)
		}
	}
	assert.Nil(t, Power(nil))
}

func TestSamplesConversion(t *testing.T) {
	assert.Equal(t, 441, MSecToSamples(10, 44100))
	assert.Equal(t, 10.0, SamplesToMSec(441, 44100))
	assert.Equal(t, 500.0, BinFreq(5, 100, 10000))
}

func TestSpectrogram(t *testing.T) {
	const sr = 8000
	var p Params
	p.Defaults()
	var power, logPower etensor.Float64
	steps, err := p.Spectrogram(sine(1000, 1000, sr), sr, &power, &logPower)
	require.NoError(t, err)
	assert.Equal(t, 11, steps)
	assert.Equal(t, []int{11, 101}, power.Shapes())
	assert.Equal(t, []int{11, 101}, logPower.Shapes())

	for s := 0; s < steps; s++ {
		row := make([]float64, 101)
		for k := range row {
			row[k] = power.Value([]int{s, k})
		}
		assert.Equal(t, 1000.0, PeakFrequency(row, 200, sr), "step %d", s)
		assert.InDelta(t, math.Log(row[25]), logPower.Value([]int{s, 25}), 1e-9)
	}

	_, err = p.Spectrogram(make([]float64, 100), sr, &power, nil)
	assert.ErrorIs(t, err, ErrTooShort)
	p.WinMs = 0
	_, err = p.Spectrogram(make([]float64, 1000), sr, &power, nil)
	assert.Error(t, err)
}

func TestSpectrogramSmoothing(t *testing.T) {
	const sr = 8000
	var p Params
	p.Defaults()
	p.Hann = false
	p.PrevSmooth = 0.5
	sig := append(make([]float64, 200), sine(200, 1000, sr)...)
	p.WinMs = 25
	p.StepMs = 25
	var power etensor.Float64
	steps, err := p.Spectrogram(sig, sr, &power, nil)
	require.NoError(t, err)
	require.Equal(t, 2, steps)
	assert.Equal(t, 0.5, p.CurSmooth)
	// silent first step, so the second is half the raw power
	raw := Power(sine(200, 1000, sr))
	assert.InDelta(t, raw[25]/2, power.Value([]int{1, 25}), 1e-6)
}

func TestLogPow(t *testing.T) {
	var p Params
	p.Defaults()
	assert.Equal(t, -100.0, p.logPow(0))
	assert.InDelta(t, 1, p.logPow(math.E), 1e-12)
	assert.Equal(t, -100.0, p.logPow(1e-60))
}

func TestMagnitudeResponse(t *testing.T) {
	tf := polyreal.Fraction{Num: []float64{1}, Den: []float64{1, -0.5}}
	freqs, mags := MagnitudeResponse(tf, 3, 8000)
	assert.Equal(t, []float64{0, 2000, 4000}, freqs)
	assert.InDelta(t, 2, mags[0], 1e-12)
	assert.InDelta(t, 1/math.Sqrt(1.25), mags[1], 1e-12)
	assert.InDelta(t, 1/1.5, mags[2], 1e-12)
	assert.InDelta(t, 6.0206, Db(mags[0]), 1e-4)

	freqs, mags = MagnitudeResponse(tf, 1, 8000)
	assert.Nil(t, freqs)
	assert.Nil(t, mags)
}
