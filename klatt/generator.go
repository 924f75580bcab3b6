// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package klatt

import (
	"fmt"
	"math"
)

// FrameState holds the linear values of the currently active frame
type FrameState struct {
	BreathinessLin float64
	GainLin        float64

	CascadeVoicingLin    float64
	CascadeAspirationLin float64

	ParallelVoicingLin    float64
	ParallelAspirationLin float64
	FricationLin          float64
	ParallelBypassLin     float64
}

// Set derives the linear values from the dB values of fp.
// A non-finite gain (AGC) gives a linear gain of 1.
func (fs *FrameState) Set(fp *FrameParms) {
	fs.BreathinessLin = DbToLin(fp.BreathinessDb)
	fs.GainLin = DbToLin(gainDb(fp))

	fs.CascadeVoicingLin = DbToLin(fp.CascadeVoicingDb)
	fs.CascadeAspirationLin = DbToLin(fp.CascadeAspirationDb)

	fs.ParallelVoicingLin = DbToLin(fp.ParallelVoicingDb)
	fs.ParallelAspirationLin = DbToLin(fp.ParallelAspirationDb)
	fs.FricationLin = DbToLin(fp.FricationDb)
	fs.ParallelBypassLin = DbToLin(fp.ParallelBypassDb)
}

func gainDb(fp *FrameParms) float64 {
	if finite(fp.GainDb) {
		return fp.GainDb
	}
	return 0
}

// PeriodState holds the variables of the currently active F0 period (glottal period)
type PeriodState struct {
	F0              float64 // modulated fundamental frequency for this period, in Hz, or 0
	PeriodLength    int     // period length in samples
	OpenPhaseLength int     // open glottis phase length in samples
	Pos             int     // current sample position within F0 period
}

// Start computes the period for the modulated fundamental frequency f0
func (ps *PeriodState) Start(f0, openPhaseRatio float64, sampleRate int) {
	ps.F0 = f0
	ps.PeriodLength = 1
	if f0 > 0 {
		ps.PeriodLength = max(1, int(math.Round(float64(sampleRate)/f0)))
	}
	ps.OpenPhaseLength = 0
	if ps.PeriodLength > 1 {
		ps.OpenPhaseLength = int(math.Round(float64(ps.PeriodLength) * openPhaseRatio))
	}
	ps.Pos = 0
}

// SecondHalf is true in the second half of the period, where noise modulation applies
func (ps *PeriodState) SecondHalf() bool {
	return ps.Pos >= ps.PeriodLength/2
}

// OpenPhase is true while the glottis is open
func (ps *PeriodState) OpenPhase() bool {
	return ps.Pos < ps.OpenPhaseLength
}

// Generator is the sound generator controller.
// It is not safe for concurrent use, independent Generators share nothing.
type Generator struct {
	MParms            MainParms
	FState            FrameState
	PState            PeriodState
	AbsPos            int     // current absolute sample position
	FlutterTimeOffset float64 // random time offset for flutter, in seconds

	TiltFilter     LpFilter1 // spectral tilt filter
	OutputLpFilter Resonator // output low-pass filter

	ImpulsiveSource ImpulsiveGlottalSource
	NaturalSource   NaturalGlottalSource

	AspirationSourceCasc LpNoiseSource // noise source for aspiration in cascade branch
	AspirationSourcePar  LpNoiseSource // noise source for aspiration in parallel branch
	FricationSourcePar   LpNoiseSource // noise source for frication in parallel branch

	NasalFormantCasc     Resonator
	NasalAntiformantCasc AntiResonator
	OralFormantCasc      [MaxOralFormants]Resonator

	NasalFormantPar       Resonator
	OralFormantPar        [MaxOralFormants]Resonator
	DifferencingFilterPar DifferencingFilter

	fParms    *FrameParms // currently active frame parameters
	newFParms *FrameParms // frame parameters for the start of the next F0 period
	lastPtr   *FrameParms // frame submitted by the last GenerateFrame call
	last      *FrameParms // copy of lastPtr as it was submitted
	rnd       Rand
}

// NewGenerator returns a Generator for the main parameters, drawing all noise from rnd
func NewGenerator(mp *MainParms, rnd Rand) (*Generator, error) {
	if err := mp.Validate(); err != nil {
		return nil, err
	}
	if rnd == nil {
		return nil, fmt.Errorf("no random source: %w", ErrInvalidMainParms)
	}
	gen := &Generator{MParms: *mp, rnd: rnd}
	sr := mp.SampleRate
	gen.FlutterTimeOffset = rnd.Float64() * 1000

	gen.OutputLpFilter.Init(sr)
	if err := gen.OutputLpFilter.Set(0, float64(sr)/2, 1); err != nil {
		return nil, fmt.Errorf("output filter: %w", err)
	}
	gen.ImpulsiveSource.Init(sr)
	gen.NaturalSource.Init()

	for _, ns := range []*LpNoiseSource{&gen.AspirationSourceCasc, &gen.AspirationSourcePar, &gen.FricationSourcePar} {
		if err := ns.Init(sr, rnd); err != nil {
			return nil, fmt.Errorf("noise source: %w", err)
		}
	}
	gen.initFrameFilters(sr)
	return gen, nil
}

// initFrameFilters sets the sample rate of the filters that are tuned for each frame
func (gen *Generator) initFrameFilters(sr int) {
	gen.TiltFilter.Init(sr)
	gen.NasalFormantCasc.Init(sr)
	gen.NasalAntiformantCasc.Init(sr)
	gen.NasalFormantPar.Init(sr)
	for i := 0; i < MaxOralFormants; i++ {
		gen.OralFormantCasc[i].Init(sr)
		gen.OralFormantPar[i].Init(sr)
	}
}

// FrameParms returns the currently active frame parameters, nil before the first sample
func (gen *Generator) FrameParms() *FrameParms {
	return gen.fParms
}

// GenerateFrame generates a frame of the sound into out.
// The length of the frame is len(out), fp.Duration is ignored.
// New frame parameters only take effect at the start of the next F0 period.
// fp must differ from the frame parameters of the previous call.
// Invalid parameters are reported before any sample is written, and the generator
// keeps its previous state.
func (gen *Generator) GenerateFrame(fp *FrameParms, out []float64) error {
	if fp == nil {
		return fmt.Errorf("nil frame parameters: %w", ErrInvalidParams)
	}
	if gen.lastPtr != nil && (fp == gen.lastPtr || fp.Equal(gen.last)) {
		return ErrFrameReused
	}
	if err := checkFrame(fp); err != nil {
		return err
	}
	if err := gen.checkFilters(fp); err != nil {
		return err
	}
	gen.lastPtr = fp
	gen.last = fp.Clone()
	gen.newFParms = gen.last

	for i := range out {
		if gen.fParms == nil || gen.PState.Pos >= gen.PState.PeriodLength {
			if err := gen.startNewPeriod(); err != nil {
				return err
			}
		}
		out[i] = gen.nextSample()
		gen.PState.Pos++
		gen.AbsPos++
	}

	if math.IsNaN(fp.GainDb) {
		AdjustSignalGain(out, fp.AgcRmsLevel)
	}
	return nil
}

// checkFrame rejects frame values the period computation can not work with
func checkFrame(fp *FrameParms) error {
	if !finite(fp.F0, fp.FlutterLevel, fp.OpenPhaseRatio) || fp.OpenPhaseRatio < 0 || fp.OpenPhaseRatio > 1 {
		return fmt.Errorf("frame f0=%g flutter=%g openPhaseRatio=%g: %w", fp.F0, fp.FlutterLevel, fp.OpenPhaseRatio, ErrInvalidParams)
	}
	if math.IsNaN(fp.GainDb) && (!finite(fp.AgcRmsLevel) || fp.AgcRmsLevel < 0) {
		return fmt.Errorf("frame agc rms level %g: %w", fp.AgcRmsLevel, ErrInvalidParams)
	}
	return nil
}

// checkFilters tunes a scratch set of filters to fp
func (gen *Generator) checkFilters(fp *FrameParms) error {
	chk := Generator{MParms: gen.MParms}
	chk.initFrameFilters(gen.MParms.SampleRate)
	return chk.tuneFilters(fp)
}

// SampleNoise holds the random values of one sample
type SampleNoise struct {
	AspirationCasc float64
	AspirationPar  float64
	Frication      float64
	Breathiness    float64
	Glottal        float64 // only drawn for the Noise glottal source
}

// drawNoise draws the noise of one sample. The order of the draws does not depend on
// the enabled branches or the position in the period.
func (gen *Generator) drawNoise() SampleNoise {
	var sn SampleNoise
	sn.AspirationCasc = gen.AspirationSourceCasc.Next()
	sn.AspirationPar = gen.AspirationSourcePar.Next()
	sn.Frication = gen.FricationSourcePar.Next()
	sn.Breathiness = WhiteNoise(gen.rnd)
	if gen.MParms.GlottalSourceType == Noise {
		sn.Glottal = WhiteNoise(gen.rnd)
	}
	return sn
}

func (gen *Generator) nextSample() float64 {
	fp := gen.fParms
	sn := gen.drawNoise()
	voice := gen.glottalSource(sn.Glottal)

	voice = gen.TiltFilter.Step(voice)
	if gen.PState.OpenPhase() {
		voice += sn.Breathiness * gen.FState.BreathinessLin
	}

	var out float64
	if fp.CascadeEnabled {
		out += gen.cascadeBranch(voice, sn.AspirationCasc)
	}
	if fp.ParallelEnabled {
		out += gen.parallelBranch(voice, sn.AspirationPar, sn.Frication)
	}
	out = gen.OutputLpFilter.Step(out)
	return out * gen.FState.GainLin
}

func (gen *Generator) glottalSource(noise float64) float64 {
	switch gen.MParms.GlottalSourceType {
	case Impulsive:
		return gen.ImpulsiveSource.Next()
	case Natural:
		return gen.NaturalSource.Next()
	case Noise:
		return noise
	}
	return 0
}

// noiseMod returns the amplitude modulation factor for the current position in the period
func (gen *Generator) noiseMod(mod float64) float64 {
	if gen.PState.SecondHalf() {
		return 1 - mod
	}
	return 1
}

func (gen *Generator) cascadeBranch(voice, noise float64) float64 {
	fp := gen.fParms
	fs := &gen.FState
	aspiration := noise * fs.CascadeAspirationLin * gen.noiseMod(fp.CascadeAspirationMod)
	v := voice*fs.CascadeVoicingLin + aspiration
	v = gen.NasalAntiformantCasc.Step(v)
	v = gen.NasalFormantCasc.Step(v)
	for i := range gen.OralFormantCasc {
		v = gen.OralFormantCasc[i].Step(v)
	}
	return v
}

// parallelBranch applies the nasal formant and F1 to the source directly. F2 to F6 and
// the bypass get the differenced source plus frication (Klatt 1980).
func (gen *Generator) parallelBranch(voice, aspNoise, fricNoise float64) float64 {
	fp := gen.fParms
	fs := &gen.FState
	aspiration := aspNoise * fs.ParallelAspirationLin * gen.noiseMod(fp.ParallelAspirationMod)
	source := voice*fs.ParallelVoicingLin + aspiration
	sourceDiff := gen.DifferencingFilterPar.Step(source)
	frication := fricNoise * fs.FricationLin * gen.noiseMod(fp.FricationMod)
	source2 := sourceDiff + frication

	v := gen.NasalFormantPar.Step(source)
	v += gen.OralFormantPar[0].Step(source)
	for i := 1; i < MaxOralFormants; i++ {
		v += alternatingSign(i) * gen.OralFormantPar[i].Step(source2)
	}
	v += fs.ParallelBypassLin * source2
	return v
}

// alternatingSign is the sign of parallel oral formant i (zero based), see Klatt (1980) Fig. 13
func alternatingSign(i int) float64 {
	if i%2 == 0 {
		return 1
	}
	return -1
}

// startNewPeriod activates pending frame parameters and starts the next F0 period
func (gen *Generator) startNewPeriod() error {
	if gen.newFParms != nil {
		gen.fParms = gen.newFParms
		gen.newFParms = nil
		if err := gen.startUsingNewFrameParms(); err != nil {
			return err
		}
	}
	fp := gen.fParms
	sr := gen.MParms.SampleRate
	flutterTime := float64(gen.AbsPos)/float64(sr) + gen.FlutterTimeOffset
	f0 := PerformFrequencyModulation(fp.F0, fp.FlutterLevel, flutterTime)
	gen.PState.Start(f0, fp.OpenPhaseRatio, sr)
	return gen.startGlottalSourcePeriod()
}

func (gen *Generator) startUsingNewFrameParms() error {
	gen.FState.Set(gen.fParms)
	return gen.tuneFilters(gen.fParms)
}

// tuneFilters sets the tilt filter and the filters of both branches for fp
func (gen *Generator) tuneFilters(fp *FrameParms) error {
	sr := gen.MParms.SampleRate
	if err := setTiltFilter(&gen.TiltFilter, fp.TiltDb); err != nil {
		return fmt.Errorf("tilt filter: %w", err)
	}

	if err := setNasalFormantCasc(&gen.NasalFormantCasc, fp); err != nil {
		return fmt.Errorf("cascade nasal formant: %w", err)
	}
	if err := setNasalAntiformantCasc(&gen.NasalAntiformantCasc, fp); err != nil {
		return fmt.Errorf("cascade nasal antiformant: %w", err)
	}
	for i := range gen.OralFormantCasc {
		if err := setOralFormantCasc(&gen.OralFormantCasc[i], fp, i); err != nil {
			return fmt.Errorf("cascade formant F%d: %w", i+1, err)
		}
	}

	if err := setNasalFormantPar(&gen.NasalFormantPar, fp); err != nil {
		return fmt.Errorf("parallel nasal formant: %w", err)
	}
	for i := range gen.OralFormantPar {
		if err := setOralFormantPar(&gen.OralFormantPar[i], sr, fp, i); err != nil {
			return fmt.Errorf("parallel formant F%d: %w", i+1, err)
		}
	}
	return nil
}

func (gen *Generator) startGlottalSourcePeriod() error {
	switch gen.MParms.GlottalSourceType {
	case Impulsive:
		return gen.ImpulsiveSource.StartPeriod(gen.PState.OpenPhaseLength)
	case Natural:
		gen.NaturalSource.StartPeriod(gen.PState.OpenPhaseLength)
	}
	return nil
}

//////////////////////////////////////////////////////////////
//  filter setup

func setTiltFilter(lp *LpFilter1, tiltDb float64) error {
	if tiltDb == 0 {
		lp.SetPassthrough()
		return nil
	}
	return lp.Set(3000, DbToLin(-tiltDb), 1)
}

// usable is true for a finite, non-zero frequency and bandwidth
func usable(f, bw float64) bool {
	return finite(f, bw) && f != 0 && bw != 0
}

func setNasalFormantCasc(rs *Resonator, fp *FrameParms) error {
	if !usable(fp.NasalFormantFreq, fp.NasalFormantBw) {
		rs.SetPassthrough()
		return nil
	}
	return rs.Set(fp.NasalFormantFreq, fp.NasalFormantBw, 1)
}

func setNasalAntiformantCasc(ar *AntiResonator, fp *FrameParms) error {
	if !usable(fp.NasalAntiformantFreq, fp.NasalAntiformantBw) {
		ar.SetPassthrough()
		return nil
	}
	return ar.Set(fp.NasalAntiformantFreq, fp.NasalAntiformantBw)
}

func setOralFormantCasc(rs *Resonator, fp *FrameParms, i int) error {
	f, bw, _ := fp.oralFormant(i)
	if !finite(f, bw) {
		rs.SetPassthrough()
		return nil
	}
	return rs.Set(f, bw, 1)
}

func setNasalFormantPar(rs *Resonator, fp *FrameParms) error {
	peakGain := DbToLin(fp.NasalFormantDb)
	if !usable(fp.NasalFormantFreq, fp.NasalFormantBw) || peakGain == 0 {
		rs.SetMute()
		return nil
	}
	if err := rs.Set(fp.NasalFormantFreq, fp.NasalFormantBw, 1); err != nil {
		return err
	}
	return rs.AdjustPeakGain(peakGain)
}

// setOralFormantPar uses the dB level as the peak gain of the resonator, so that the output
// of the parallel branch matches the specified formant levels. For F2 to F6 the gain of the
// differencing filter at the formant frequency is compensated.
func setOralFormantPar(rs *Resonator, sampleRate int, fp *FrameParms, i int) error {
	f, bw, db := fp.oralFormant(i)
	peakGain := DbToLin(db)
	if !finite(f, bw, peakGain) || peakGain == 0 {
		rs.SetMute()
		return nil
	}
	if err := rs.Set(f, bw, 1); err != nil {
		return err
	}
	if i == 0 {
		return rs.AdjustPeakGain(peakGain)
	}
	w := 2 * math.Pi * f / float64(sampleRate)
	diffGain := math.Sqrt(2 - 2*math.Cos(w))
	return rs.AdjustPeakGain(peakGain / diffGain)
}

//////////////////////////////////////////////////////////////
//  GenerateSound

// FrameLength returns the number of samples of a frame of the given duration
func FrameLength(duration float64, sampleRate int) int {
	return int(math.Round(duration * float64(sampleRate)))
}

// GenerateSound generates a sound that consists of multiple frames, using a new Generator.
// Each frame gets FrameLength(Duration, SampleRate) samples of the returned buffer.
func GenerateSound(mp *MainParms, frames []*FrameParms, rnd Rand) ([]float64, error) {
	gen, err := NewGenerator(mp, rnd)
	if err != nil {
		return nil, err
	}
	lens := make([]int, len(frames))
	total := 0
	for i, fp := range frames {
		if fp == nil || !finite(fp.Duration) || fp.Duration < 0 {
			return nil, fmt.Errorf("frame %d duration: %w", i, ErrInvalidParams)
		}
		lens[i] = FrameLength(fp.Duration, mp.SampleRate)
		total += lens[i]
	}
	out := make([]float64, total)
	pos := 0
	for i, fp := range frames {
		if err := gen.GenerateFrame(fp, out[pos:pos+lens[i]]); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		pos += lens[i]
	}
	return out, nil
}
