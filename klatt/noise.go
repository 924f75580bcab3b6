// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package klatt

import "math"

// Rand is the source of uniform random numbers in [0, 1) used for all noise.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// WhiteNoise returns a random number within the range -1 .. 1
func WhiteNoise(rnd Rand) float64 {
	return rnd.Float64()*2 - 1
}

// LpNoiseSource is a low-pass filtered noise source
type LpNoiseSource struct {
	LpFilter LpFilter1
	rnd      Rand
}

// Init configures the filter for the sample rate.
// The classic design used a first order LP filter with b = 0.75 at a sample rate of 10 kHz.
// The gain of that filter at 1000 Hz is used to build a filter with the same characteristic
// at our sample rate, with an extra gain to bring the output into the range -1 .. 1.
func (ns *LpNoiseSource) Init(sampleRate int, rnd Rand) error {
	const (
		oldB  = 0.75
		oldSr = 10000.0
		f     = 1000.0
	)
	ns.rnd = rnd
	g := (1 - oldB) / math.Sqrt(1-2*oldB*math.Cos(2*math.Pi*f/oldSr)+oldB*oldB)
	extraGain := 2.5 * math.Pow(float64(sampleRate)/10000, 0.33)
	ns.LpFilter.Init(sampleRate)
	return ns.LpFilter.Set(f, g, extraGain)
}

// Next returns the next LP filtered random number
func (ns *LpNoiseSource) Next() float64 {
	return ns.LpFilter.Step(WhiteNoise(ns.rnd))
}
