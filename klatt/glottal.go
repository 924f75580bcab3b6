// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package klatt

// ImpulsiveGlottalSource generates a glottal source signal by LP filtering a pulse train
type ImpulsiveGlottalSource struct {
	SampleRate int
	Resonator  Resonator // used as an LP filter
	Active     bool      // false = idle, output is 0
	Pos        int       // current sample position within F0 period
}

// Init sets the sample rate, the source is idle until StartPeriod
func (gs *ImpulsiveGlottalSource) Init(sampleRate int) {
	gs.SampleRate = sampleRate
	gs.Resonator.Init(sampleRate)
	gs.Active = false
	gs.Pos = 0
}

// StartPeriod starts a new F0 period with an open glottis phase of openPhaseLength samples.
// An open phase length of 0 makes the source idle and clears the resonator state.
func (gs *ImpulsiveGlottalSource) StartPeriod(openPhaseLength int) error {
	if openPhaseLength == 0 {
		gs.Active = false
		gs.Resonator.SetPassthrough()
		return nil
	}
	bw := float64(gs.SampleRate) / float64(openPhaseLength)
	if err := gs.Resonator.Set(0, bw, 1); err != nil {
		return err
	}
	gs.Resonator.AdjustImpulseGain(1)
	gs.Active = true
	gs.Pos = 0
	return nil
}

// Next returns the next glottal source sample
func (gs *ImpulsiveGlottalSource) Next() float64 {
	if !gs.Active {
		return 0
	}
	var pulse float64
	switch gs.Pos {
	case 1:
		pulse = 1
	case 2:
		pulse = -1
	}
	gs.Pos++
	return gs.Resonator.Step(pulse)
}

// NaturalGlottalSource generates a "natural" glottal source signal according to the KLGLOTT88 model.
// The glottal flow is t^2 - t^3 and its derivative 2t - 3t^2 is used as the source.
// At the end of the open phase the signal jumps from its minimum to zero, unsmoothed.
type NaturalGlottalSource struct {
	X               float64 // current signal value
	A               float64 // current first derivative
	B               float64 // current second derivative
	OpenPhaseLength int     // open glottis phase length in samples
	Pos             int     // current sample position within F0 period
}

// Init resets the source to an empty period
func (gs *NaturalGlottalSource) Init() {
	gs.StartPeriod(0)
}

// StartPeriod starts a new F0 period with an open glottis phase of openPhaseLength samples.
// The second derivative is -5 / openPhaseLength^2.
func (gs *NaturalGlottalSource) StartPeriod(openPhaseLength int) {
	const amplification = 5.0
	opl := float64(openPhaseLength)
	gs.OpenPhaseLength = openPhaseLength
	gs.X = 0
	gs.B = -amplification / (opl * opl)
	gs.A = -gs.B * opl / 3
	gs.Pos = 0
}

// Next returns the next glottal source sample
func (gs *NaturalGlottalSource) Next() float64 {
	gs.Pos++
	if gs.Pos >= gs.OpenPhaseLength {
		gs.X = 0
		return 0
	}
	gs.A += gs.B
	gs.X += gs.A
	return gs.X
}
