// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package klatt

import (
	"errors"
	"fmt"
	"math"

	"github.com/goki/ki/kit"
)

var (
	// ErrInvalidParams is returned when a filter or source is configured outside its valid domain
	ErrInvalidParams = errors.New("klatt: invalid filter parameters")

	// ErrInvalidMainParms is returned for a bad sample rate or glottal source type
	ErrInvalidMainParms = errors.New("klatt: invalid main parameters")

	// ErrFrameReused is returned when the previous frame parameters are submitted again
	ErrFrameReused = errors.New("klatt: frame parameters must not be re-used")
)

// MaxOralFormants is the number of oral formants in each branch
const MaxOralFormants = 6

// GlottalSourceType selects the excitation of the vocal tract
type GlottalSourceType int32

const (
	// Impulsive is an LP filtered pulse train
	Impulsive GlottalSourceType = iota

	// Natural is the KLGLOTT88 glottal flow derivative
	Natural

	// Noise is white noise
	Noise

	GlottalSourceTypeN
)

//go:generate stringer -type=GlottalSourceType

var KiT_GlottalSourceType = kit.Enums.AddEnum(GlottalSourceTypeN, kit.NotBitFlag, nil)

func (ev GlottalSourceType) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *GlottalSourceType) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// MainParms are the parameters for the whole sound
type MainParms struct {
	SampleRate        int               `desc:"sample rate in Hz"`
	GlottalSourceType GlottalSourceType `desc:"type of the glottal excitation"`
}

// Defaults sets a 44.1 kHz impulsive configuration
func (mp *MainParms) Defaults() {
	mp.SampleRate = 44100
	mp.GlottalSourceType = Impulsive
}

// Validate returns an error wrapping ErrInvalidMainParms if the parameters can not be used
func (mp *MainParms) Validate() error {
	if mp.SampleRate <= 0 {
		return fmt.Errorf("sample rate %d: %w", mp.SampleRate, ErrInvalidMainParms)
	}
	if mp.GlottalSourceType < 0 || mp.GlottalSourceType >= GlottalSourceTypeN {
		return fmt.Errorf("glottal source type %d: %w", mp.GlottalSourceType, ErrInvalidMainParms)
	}
	return nil
}

// FrameParms are the parameters for a sound frame.
// Levels are in dB, -99 and below or NaN mean off. Frequencies and bandwidths are in Hz,
// NaN disables the corresponding formant.
type FrameParms struct {
	Duration       float64 `desc:"frame duration in seconds"`
	F0             float64 `desc:"fundamental frequency in Hz"`
	FlutterLevel   float64 `desc:"F0 flutter level, 0 .. 1, typically 0.25"`
	OpenPhaseRatio float64 `desc:"relative length of the open phase of the glottis, 0 .. 1, typically 0.7"`
	BreathinessDb  float64 `desc:"breathiness in voicing (turbulence) in dB, positive to amplify or negative to attenuate"`
	TiltDb         float64 `desc:"spectral tilt for glottal source in dB, attenuation at 3 kHz, 0 = no tilt"`
	GainDb         float64 `desc:"overall gain (output gain) in dB, NaN for automatic gain control (AGC)"`
	AgcRmsLevel    float64 `desc:"RMS level for automatic gain control, only relevant when GainDb is NaN"`

	NasalFormantFreq float64   `desc:"nasal formant frequency in Hz, or NaN"`
	NasalFormantBw   float64   `desc:"nasal formant bandwidth in Hz, or NaN"`
	OralFormantFreq  []float64 `desc:"oral formant frequencies in Hz, or NaN"`
	OralFormantBw    []float64 `desc:"oral formant bandwidths in Hz, or NaN"`

	CascadeEnabled       bool    `desc:"cascade branch enabled"`
	CascadeVoicingDb     float64 `desc:"voicing amplitude for cascade branch in dB"`
	CascadeAspirationDb  float64 `desc:"aspiration (glottis noise) amplitude for cascade branch in dB"`
	CascadeAspirationMod float64 `desc:"amplitude modulation factor for aspiration in cascade branch, 0 = no modulation, 1 = maximum modulation"`
	NasalAntiformantFreq float64 `desc:"nasal antiformant frequency in Hz, or NaN"`
	NasalAntiformantBw   float64 `desc:"nasal antiformant bandwidth in Hz, or NaN"`

	ParallelEnabled       bool      `desc:"parallel branch enabled"`
	ParallelVoicingDb     float64   `desc:"voicing amplitude for parallel branch in dB"`
	ParallelAspirationDb  float64   `desc:"aspiration (glottis noise) amplitude for parallel branch in dB"`
	ParallelAspirationMod float64   `desc:"amplitude modulation factor for aspiration in parallel branch, 0 = no modulation, 1 = maximum modulation"`
	FricationDb           float64   `desc:"frication noise level in dB"`
	FricationMod          float64   `desc:"amplitude modulation factor for frication noise in parallel branch, 0 = no modulation, 1 = maximum modulation"`
	ParallelBypassDb      float64   `desc:"parallel bypass level in dB, bypasses the differentiated glottal and frication signals around resonators F2 to F6"`
	NasalFormantDb        float64   `desc:"nasal formant level in dB"`
	OralFormantDb         []float64 `desc:"oral formant levels in dB, or NaN"`
}

// Defaults sets a one second vowel at 247 Hz using both branches. The nasal formant and
// antiformant have a zero bandwidth and are therefore disabled.
func (fp *FrameParms) Defaults() {
	fp.Duration = 1
	fp.F0 = 247
	fp.FlutterLevel = 0.25
	fp.OpenPhaseRatio = 0.7
	fp.BreathinessDb = -25
	fp.TiltDb = 0
	fp.GainDb = -10
	fp.AgcRmsLevel = 0.18
	fp.NasalFormantFreq = 1
	fp.NasalFormantBw = 0
	fp.OralFormantFreq = []float64{520, 1006, 2831, 3168, 4135, 5020}
	fp.OralFormantBw = []float64{76, 102, 72, 102, 816, 596}

	fp.CascadeEnabled = true
	fp.CascadeVoicingDb = 0
	fp.CascadeAspirationDb = -25
	fp.CascadeAspirationMod = 0.5
	fp.NasalAntiformantFreq = 1
	fp.NasalAntiformantBw = 0

	fp.ParallelEnabled = true
	fp.ParallelVoicingDb = 0
	fp.ParallelAspirationDb = -25
	fp.ParallelAspirationMod = 0.5
	fp.FricationDb = -30
	fp.FricationMod = 0.5
	fp.ParallelBypassDb = -99
	fp.NasalFormantDb = 0
	fp.OralFormantDb = []float64{0, -8, -15, -19, -30, -35}
}

// Clone returns a deep copy of the frame parameters
func (fp *FrameParms) Clone() *FrameParms {
	nf := *fp
	nf.OralFormantFreq = append([]float64(nil), fp.OralFormantFreq...)
	nf.OralFormantBw = append([]float64(nil), fp.OralFormantBw...)
	nf.OralFormantDb = append([]float64(nil), fp.OralFormantDb...)
	return &nf
}

// Equal returns true if all values are equal, NaN is equal to NaN
func (fp *FrameParms) Equal(op *FrameParms) bool {
	if fp == op {
		return true
	}
	if fp == nil || op == nil {
		return false
	}
	return same(fp.Duration, op.Duration) &&
		same(fp.F0, op.F0) &&
		same(fp.FlutterLevel, op.FlutterLevel) &&
		same(fp.OpenPhaseRatio, op.OpenPhaseRatio) &&
		same(fp.BreathinessDb, op.BreathinessDb) &&
		same(fp.TiltDb, op.TiltDb) &&
		same(fp.GainDb, op.GainDb) &&
		same(fp.AgcRmsLevel, op.AgcRmsLevel) &&
		same(fp.NasalFormantFreq, op.NasalFormantFreq) &&
		same(fp.NasalFormantBw, op.NasalFormantBw) &&
		sameSlice(fp.OralFormantFreq, op.OralFormantFreq) &&
		sameSlice(fp.OralFormantBw, op.OralFormantBw) &&
		fp.CascadeEnabled == op.CascadeEnabled &&
		same(fp.CascadeVoicingDb, op.CascadeVoicingDb) &&
		same(fp.CascadeAspirationDb, op.CascadeAspirationDb) &&
		same(fp.CascadeAspirationMod, op.CascadeAspirationMod) &&
		same(fp.NasalAntiformantFreq, op.NasalAntiformantFreq) &&
		same(fp.NasalAntiformantBw, op.NasalAntiformantBw) &&
		fp.ParallelEnabled == op.ParallelEnabled &&
		same(fp.ParallelVoicingDb, op.ParallelVoicingDb) &&
		same(fp.ParallelAspirationDb, op.ParallelAspirationDb) &&
		same(fp.ParallelAspirationMod, op.ParallelAspirationMod) &&
		same(fp.FricationDb, op.FricationDb) &&
		same(fp.FricationMod, op.FricationMod) &&
		same(fp.ParallelBypassDb, op.ParallelBypassDb) &&
		same(fp.NasalFormantDb, op.NasalFormantDb) &&
		sameSlice(fp.OralFormantDb, op.OralFormantDb)
}

func same(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func sameSlice(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !same(a[i], b[i]) {
			return false
		}
	}
	return true
}

// oralFormant returns the frequency, bandwidth and level of oral formant i, NaN for missing entries
func (fp *FrameParms) oralFormant(i int) (f, bw, db float64) {
	return at(fp.OralFormantFreq, i), at(fp.OralFormantBw, i), at(fp.OralFormantDb, i)
}

func at(vals []float64, i int) float64 {
	if i < len(vals) {
		return vals[i]
	}
	return math.NaN()
}
