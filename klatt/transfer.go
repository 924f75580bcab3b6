// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package klatt

import (
	"fmt"

	"github.com/emer/formant/polyreal"
)

// Eps is the coefficient tolerance used when composing transfer functions
const Eps = 1e-10

// VocalTractTransferFunctionCoefficients returns the z-plane transfer function of the whole
// synthesizer for one frame: glottal source, tilt filter, cascade and parallel branches,
// output LP filter and gain. Noise sources are not part of it.
// Coefficients are in ascending powers of z^-1.
func VocalTractTransferFunctionCoefficients(mp *MainParms, fp *FrameParms) (polyreal.Fraction, error) {
	if err := mp.Validate(); err != nil {
		return polyreal.Fraction{}, err
	}
	if fp == nil {
		return polyreal.Fraction{}, fmt.Errorf("nil frame parameters: %w", ErrInvalidParams)
	}
	sr := mp.SampleRate

	voice := polyreal.One()
	var tilt LpFilter1
	tilt.Init(sr)
	if err := setTiltFilter(&tilt, fp.TiltDb); err != nil {
		return polyreal.Fraction{}, fmt.Errorf("tilt filter: %w", err)
	}
	voice, err := polyreal.MultiplyFractions(voice, tilt.TransferFunctionCoefficients(), Eps)
	if err != nil {
		return polyreal.Fraction{}, err
	}

	cascade := polyreal.Zero()
	if fp.CascadeEnabled {
		if cascade, err = cascadeTransferFunction(sr, fp); err != nil {
			return polyreal.Fraction{}, err
		}
	}
	parallel := polyreal.Zero()
	if fp.ParallelEnabled {
		if parallel, err = parallelTransferFunction(sr, fp); err != nil {
			return polyreal.Fraction{}, err
		}
	}
	branches, err := polyreal.AddFractions(cascade, parallel, Eps)
	if err != nil {
		return polyreal.Fraction{}, err
	}
	out, err := polyreal.MultiplyFractions(voice, branches, Eps)
	if err != nil {
		return polyreal.Fraction{}, err
	}

	var outLp Resonator
	outLp.Init(sr)
	if err := outLp.Set(0, float64(sr)/2, 1); err != nil {
		return polyreal.Fraction{}, fmt.Errorf("output filter: %w", err)
	}
	if out, err = polyreal.MultiplyFractions(out, outLp.TransferFunctionCoefficients(), Eps); err != nil {
		return polyreal.Fraction{}, err
	}
	return polyreal.MultiplyFractions(out, polyreal.Const(DbToLin(gainDb(fp))), Eps)
}

func cascadeTransferFunction(sr int, fp *FrameParms) (polyreal.Fraction, error) {
	v := polyreal.Const(DbToLin(fp.CascadeVoicingDb))

	var ar AntiResonator
	ar.Init(sr)
	if err := setNasalAntiformantCasc(&ar, fp); err != nil {
		return polyreal.Fraction{}, fmt.Errorf("cascade nasal antiformant: %w", err)
	}
	stages := []polyreal.Fraction{ar.TransferFunctionCoefficients()}

	var rs Resonator
	rs.Init(sr)
	if err := setNasalFormantCasc(&rs, fp); err != nil {
		return polyreal.Fraction{}, fmt.Errorf("cascade nasal formant: %w", err)
	}
	stages = append(stages, rs.TransferFunctionCoefficients())

	for i := 0; i < MaxOralFormants; i++ {
		var of Resonator
		of.Init(sr)
		if err := setOralFormantCasc(&of, fp, i); err != nil {
			return polyreal.Fraction{}, fmt.Errorf("cascade formant F%d: %w", i+1, err)
		}
		stages = append(stages, of.TransferFunctionCoefficients())
	}

	var err error
	for _, st := range stages {
		if v, err = polyreal.MultiplyFractions(v, st, Eps); err != nil {
			return polyreal.Fraction{}, err
		}
	}
	return v, nil
}

func parallelTransferFunction(sr int, fp *FrameParms) (polyreal.Fraction, error) {
	source := polyreal.Const(DbToLin(fp.ParallelVoicingDb))
	var df DifferencingFilter
	source2, err := polyreal.MultiplyFractions(source, df.TransferFunctionCoefficients(), Eps)
	if err != nil {
		return polyreal.Fraction{}, err
	}

	v := polyreal.Zero()
	// add accumulates in * filter into v
	add := func(in, filter polyreal.Fraction) error {
		out, err := polyreal.MultiplyFractions(in, filter, Eps)
		if err != nil {
			return err
		}
		v, err = polyreal.AddFractions(v, out, Eps)
		return err
	}

	var nasal Resonator
	nasal.Init(sr)
	if err := setNasalFormantPar(&nasal, fp); err != nil {
		return polyreal.Fraction{}, fmt.Errorf("parallel nasal formant: %w", err)
	}
	if err := add(source, nasal.TransferFunctionCoefficients()); err != nil {
		return polyreal.Fraction{}, err
	}

	for i := 0; i < MaxOralFormants; i++ {
		var of Resonator
		of.Init(sr)
		if err := setOralFormantPar(&of, sr, fp, i); err != nil {
			return polyreal.Fraction{}, fmt.Errorf("parallel formant F%d: %w", i+1, err)
		}
		in := source2
		if i == 0 {
			in = source
		}
		signed, err := polyreal.MultiplyFractions(of.TransferFunctionCoefficients(), polyreal.Const(alternatingSign(i)), Eps)
		if err != nil {
			return polyreal.Fraction{}, err
		}
		if err := add(in, signed); err != nil {
			return polyreal.Fraction{}, err
		}
	}

	if err := add(source2, polyreal.Const(DbToLin(fp.ParallelBypassDb))); err != nil {
		return polyreal.Fraction{}, err
	}
	return v, nil
}
