// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package klatt

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sr = 44100

type stepper interface {
	Step(x float64) float64
	SetPassthrough()
	SetMute()
}

func activeFilters(t *testing.T) map[string]stepper {
	var lp LpFilter1
	lp.Init(sr)
	require.NoError(t, lp.Set(3000, 0.5, 1))
	var rs Resonator
	rs.Init(sr)
	require.NoError(t, rs.Set(500, 80, 1))
	var ar AntiResonator
	ar.Init(sr)
	require.NoError(t, ar.Set(500, 80))
	return map[string]stepper{"lp": &lp, "resonator": &rs, "antiresonator": &ar}
}

func TestPassthroughAndMute(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for name, f := range activeFilters(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				f.Step(WhiteNoise(rnd))
			}
			f.SetPassthrough()
			for i := 0; i < 50; i++ {
				x := WhiteNoise(rnd) * 10
				assert.Equal(t, x, f.Step(x))
			}
			f.SetMute()
			for i := 0; i < 50; i++ {
				assert.Equal(t, 0.0, f.Step(WhiteNoise(rnd)))
			}
		})
	}
}

func TestSetKeepsState(t *testing.T) {
	var a, b Resonator
	a.Init(sr)
	b.Init(sr)
	require.NoError(t, a.Set(700, 100, 1))
	require.NoError(t, b.Set(700, 100, 1))
	a.Step(1)
	b.Step(1)
	// re-setting the same coefficients must not disturb the delay line
	require.NoError(t, a.Set(700, 100, 1))
	assert.Equal(t, b.Step(0), a.Step(0))
}

func TestResonatorDcGain(t *testing.T) {
	for _, dcGain := range []float64{0.5, 1, 2} {
		var rs Resonator
		rs.Init(sr)
		require.NoError(t, rs.Set(0, 500, dcGain))
		var y float64
		for i := 0; i < 20000; i++ {
			y = rs.Step(0.5)
		}
		assert.InDelta(t, dcGain*0.5, y, 1e-9)
	}
}

func TestLpFilterDcGain(t *testing.T) {
	var lp LpFilter1
	lp.Init(sr)
	require.NoError(t, lp.Set(1000, 0.5, 3))
	var y float64
	for i := 0; i < 20000; i++ {
		y = lp.Step(1)
	}
	assert.InDelta(t, 3.0, y, 1e-9)
}

func TestAntiResonatorInvertsResonator(t *testing.T) {
	var rs Resonator
	rs.Init(sr)
	require.NoError(t, rs.Set(1200, 90, 1))
	var ar AntiResonator
	ar.Init(sr)
	require.NoError(t, ar.Set(1200, 90))
	for i := 0; i < 100; i++ {
		x := 0.0
		if i == 0 {
			x = 1
		}
		y := ar.Step(rs.Step(x))
		assert.InDelta(t, x, y, 1e-12, "sample %d", i)
	}
}

func TestDifferencingFilter(t *testing.T) {
	var df DifferencingFilter
	in := []float64{1, 3, 3, -2}
	want := []float64{1, 2, 0, -5}
	for i, x := range in {
		assert.Equal(t, want[i], df.Step(x))
	}
	df.Reset()
	assert.Equal(t, 4.0, df.Step(4))
}

func TestInvalidFilterParams(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)

	var lp LpFilter1
	lp.Init(sr)
	for _, p := range [][3]float64{
		{0, 0.5, 1}, {sr / 2, 0.5, 1}, {1000, 0, 1}, {1000, 1, 1},
		{nan, 0.5, 1}, {1000, 0.5, inf}, {inf, 0.5, 1},
	} {
		assert.ErrorIs(t, lp.Set(p[0], p[1], p[2]), ErrInvalidParams, "lp %v", p)
	}

	var rs Resonator
	rs.Init(sr)
	for _, p := range [][3]float64{
		{-1, 100, 1}, {sr / 2, 100, 1}, {500, 0, 1}, {500, 100, 0},
		{nan, 100, 1}, {500, inf, 1}, {500, 100, nan},
	} {
		assert.ErrorIs(t, rs.Set(p[0], p[1], p[2]), ErrInvalidParams, "resonator %v", p)
	}
	require.NoError(t, rs.Set(0, 100, 1))
	assert.ErrorIs(t, rs.AdjustPeakGain(0), ErrInvalidParams)
	assert.ErrorIs(t, rs.AdjustPeakGain(inf), ErrInvalidParams)
	assert.ErrorIs(t, rs.AdjustPeakGain(nan), ErrInvalidParams)

	var ar AntiResonator
	ar.Init(sr)
	for _, p := range [][2]float64{{0, 100}, {sr / 2, 100}, {500, 0}, {nan, 100}, {500, inf}} {
		assert.ErrorIs(t, ar.Set(p[0], p[1]), ErrInvalidParams, "antiresonator %v", p)
	}
}

func TestTransferFunctionCoefficientsModes(t *testing.T) {
	var rs Resonator
	rs.Init(sr)
	tf := rs.TransferFunctionCoefficients()
	assert.Equal(t, []float64{1}, tf.Num)
	assert.Equal(t, []float64{1}, tf.Den)

	rs.SetMute()
	tf = rs.TransferFunctionCoefficients()
	assert.Equal(t, []float64{0}, tf.Num)
	assert.Equal(t, []float64{1}, tf.Den)

	require.NoError(t, rs.Set(500, 100, 1))
	tf = rs.TransferFunctionCoefficients()
	assert.Len(t, tf.Num, 1)
	assert.Len(t, tf.Den, 3)
	// DC gain of the fraction is 1
	assert.InDelta(t, 1.0, tf.Num[0]/(tf.Den[0]+tf.Den[1]+tf.Den[2]), 1e-12)

	var ar AntiResonator
	ar.Init(sr)
	require.NoError(t, ar.Set(500, 100))
	tf = ar.TransferFunctionCoefficients()
	assert.Len(t, tf.Num, 3)
	assert.InDelta(t, 1.0, tf.Num[0]+tf.Num[1]+tf.Num[2], 1e-12)
}

func TestImpulsiveGlottalSource(t *testing.T) {
	var gs ImpulsiveGlottalSource
	gs.Init(sr)
	assert.Equal(t, 0.0, gs.Next(), "idle before the first period")

	require.NoError(t, gs.StartPeriod(125))
	assert.Equal(t, 0.0, gs.Next())
	assert.Equal(t, 1.0, gs.Next(), "unity impulse gain")
	assert.Less(t, gs.Next(), 1.0)

	require.NoError(t, gs.StartPeriod(0))
	for i := 0; i < 5; i++ {
		assert.Equal(t, 0.0, gs.Next())
	}
}

func TestImpulsiveGlottalSourceRestart(t *testing.T) {
	var gs ImpulsiveGlottalSource
	gs.Init(sr)
	require.NoError(t, gs.StartPeriod(125))
	for i := 0; i < 5; i++ {
		gs.Next()
	}
	require.NoError(t, gs.StartPeriod(0))
	for i := 0; i < 179; i++ {
		gs.Next()
	}

	var fresh ImpulsiveGlottalSource
	fresh.Init(sr)
	require.NoError(t, gs.StartPeriod(125))
	require.NoError(t, fresh.StartPeriod(125))
	for i := 0; i < 10; i++ {
		assert.Equal(t, fresh.Next(), gs.Next(), "sample %d", i)
	}
}

func TestNaturalGlottalSource(t *testing.T) {
	var gs NaturalGlottalSource
	gs.Init()
	assert.Equal(t, 0.0, gs.Next())

	const opl = 10
	gs.StartPeriod(opl)
	assert.InDelta(t, -0.05, gs.B, 1e-15)
	assert.InDelta(t, 1.0/6, gs.A, 1e-15)
	out := make([]float64, 15)
	for i := range out {
		out[i] = gs.Next()
	}
	// positive rise, negative fall and an abrupt return to 0 at the end of the open phase
	assert.Greater(t, out[0], 0.0)
	assert.Less(t, out[opl-2], 0.0)
	for _, v := range out[opl-1:] {
		assert.Equal(t, 0.0, v)
	}
}

func TestLpNoiseSource(t *testing.T) {
	var ns LpNoiseSource
	require.NoError(t, ns.Init(sr, rand.New(rand.NewSource(3))))
	assert.Equal(t, Active, ns.LpFilter.Mode)
	for i := 0; i < 1000; i++ {
		v := ns.Next()
		assert.False(t, math.IsNaN(v))
		assert.LessOrEqual(t, math.Abs(v), 2.5*math.Pow(sr/10000.0, 0.33))
	}

	var low LpNoiseSource
	assert.ErrorIs(t, low.Init(2000, rand.New(rand.NewSource(3))), ErrInvalidParams)
}
