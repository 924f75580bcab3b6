// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mel

import (
	"testing"

	"github.com/emer/etable/etensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams(t *testing.T) *Params {
	var mp Params
	mp.Defaults()
	mp.FBank.NFilters = 10
	mp.MFCC = true
	mp.NCoefs = 5
	require.NoError(t, mp.InitFilters(400, 16000))
	return &mp
}

func TestMelScale(t *testing.T) {
	assert.InDelta(t, 1000, FreqToMel(1000), 0.1)
	for _, f := range []float64{0, 440, 3000, 8000} {
		assert.InDelta(t, f, MelToFreq(FreqToMel(f)), 1e-9)
	}
	assert.Equal(t, 200, FreqToBin(8000, 400, 16000))
}

func TestInitFilters(t *testing.T) {
	mp := testParams(t)
	require.Len(t, mp.BinPts, 12)
	assert.Equal(t, 0, mp.BinPts[0])
	assert.Equal(t, 200, mp.BinPts[11])
	for i := 1; i < len(mp.BinPts); i++ {
		assert.Greater(t, mp.BinPts[i], mp.BinPts[i-1])
	}
	// each triangle peaks at 1 on its center bin
	for f := 0; f < 10; f++ {
		ctr := mp.BinPts[f+1] - mp.BinPts[f]
		assert.Equal(t, 1.0, mp.Filters.Value([]int{f, ctr}), "filter %d", f)
	}
}

func TestInitFiltersErrors(t *testing.T) {
	var mp Params
	mp.Defaults()
	assert.Error(t, mp.InitFilters(400, 8000), "HiHz above nyquist")
	mp.Defaults()
	mp.FBank.NFilters = 0
	assert.Error(t, mp.InitFilters(400, 16000))
	mp.Defaults()
	mp.MFCC = true
	mp.NCoefs = 40
	assert.Error(t, mp.InitFilters(400, 16000))
}

func TestFilterDftSingleBin(t *testing.T) {
	mp := testParams(t)
	power := make([]float64, 201)
	power[mp.BinPts[5]] = 1
	fb := make([]float64, 10)
	mp.FilterDft(power, fb)
	for f, v := range fb {
		if f == 4 {
			assert.InDelta(t, 0, v, 1e-12)
		} else {
			assert.Equal(t, mp.FBank.LogMin, v, "filter %d", f)
		}
	}
}

func TestSpectrogramAndCepstrum(t *testing.T) {
	mp := testParams(t)
	power := etensor.NewFloat64([]int{3, 201}, nil, nil)
	for i := range power.Values {
		power.Values[i] = 1
	}
	var fb, mfcc etensor.Float64
	mp.Spectrogram(power, &fb, &mfcc)
	assert.Equal(t, []int{3, 10}, fb.Shapes())
	assert.Equal(t, []int{3, 5}, mfcc.Shapes())
	for s := 0; s < 3; s++ {
		// wider triangles at higher frequencies collect more power
		for f := 1; f < 10; f++ {
			assert.GreaterOrEqual(t, fb.Value([]int{s, f}), fb.Value([]int{s, f - 1}))
		}
	}

	flat := make([]float64, 10)
	for i := range flat {
		flat[i] = 2
	}
	coefs := mp.CepstrumDct(flat)
	require.Len(t, coefs, 5)
	assert.Greater(t, coefs[0], 0.0)
	for _, c := range coefs[1:] {
		assert.InDelta(t, 0, c, 1e-9)
	}
}
