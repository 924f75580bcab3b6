// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package klattcontrol loads and saves synthesizer runs: the main parameters and a
// sequence of frames, as JSON files or as tab separated frame tables.
package klattcontrol

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/emer/formant/klatt"
	"github.com/goki/gi/gi"
)

// NullFloat is a float64 that encodes NaN as JSON null
type NullFloat float64

func (nf NullFloat) MarshalJSON() ([]byte, error) {
	v := float64(nf)
	if math.IsNaN(v) {
		return []byte("null"), nil
	}
	if math.IsInf(v, 0) {
		return nil, fmt.Errorf("klattcontrol: %v can not be encoded", v)
	}
	return json.Marshal(v)
}

func (nf *NullFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*nf = NullFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*nf = NullFloat(v)
	return nil
}

// Frame is the JSON form of klatt.FrameParms. Missing fields keep their default value,
// null gives NaN (for GainDb that selects automatic gain control).
type Frame struct {
	Duration       NullFloat
	F0             NullFloat
	FlutterLevel   NullFloat
	OpenPhaseRatio NullFloat
	BreathinessDb  NullFloat
	TiltDb         NullFloat
	GainDb         NullFloat
	AgcRmsLevel    NullFloat

	NasalFormantFreq NullFloat
	NasalFormantBw   NullFloat
	OralFormantFreq  []NullFloat
	OralFormantBw    []NullFloat

	CascadeEnabled       bool
	CascadeVoicingDb     NullFloat
	CascadeAspirationDb  NullFloat
	CascadeAspirationMod NullFloat
	NasalAntiformantFreq NullFloat
	NasalAntiformantBw   NullFloat

	ParallelEnabled       bool
	ParallelVoicingDb     NullFloat
	ParallelAspirationDb  NullFloat
	ParallelAspirationMod NullFloat
	FricationDb           NullFloat
	FricationMod          NullFloat
	ParallelBypassDb      NullFloat
	NasalFormantDb        NullFloat
	OralFormantDb         []NullFloat
}

func toNull(vals []float64) []NullFloat {
	out := make([]NullFloat, len(vals))
	for i, v := range vals {
		out[i] = NullFloat(v)
	}
	return out
}

func fromNull(vals []NullFloat) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = float64(v)
	}
	return out
}

// NewFrame converts frame parameters to their JSON form
func NewFrame(fp *klatt.FrameParms) *Frame {
	return &Frame{
		Duration:              NullFloat(fp.Duration),
		F0:                    NullFloat(fp.F0),
		FlutterLevel:          NullFloat(fp.FlutterLevel),
		OpenPhaseRatio:        NullFloat(fp.OpenPhaseRatio),
		BreathinessDb:         NullFloat(fp.BreathinessDb),
		TiltDb:                NullFloat(fp.TiltDb),
		GainDb:                NullFloat(fp.GainDb),
		AgcRmsLevel:           NullFloat(fp.AgcRmsLevel),
		NasalFormantFreq:      NullFloat(fp.NasalFormantFreq),
		NasalFormantBw:        NullFloat(fp.NasalFormantBw),
		OralFormantFreq:       toNull(fp.OralFormantFreq),
		OralFormantBw:         toNull(fp.OralFormantBw),
		CascadeEnabled:        fp.CascadeEnabled,
		CascadeVoicingDb:      NullFloat(fp.CascadeVoicingDb),
		CascadeAspirationDb:   NullFloat(fp.CascadeAspirationDb),
		CascadeAspirationMod:  NullFloat(fp.CascadeAspirationMod),
		NasalAntiformantFreq:  NullFloat(fp.NasalAntiformantFreq),
		NasalAntiformantBw:    NullFloat(fp.NasalAntiformantBw),
		ParallelEnabled:       fp.ParallelEnabled,
		ParallelVoicingDb:     NullFloat(fp.ParallelVoicingDb),
		ParallelAspirationDb:  NullFloat(fp.ParallelAspirationDb),
		ParallelAspirationMod: NullFloat(fp.ParallelAspirationMod),
		FricationDb:           NullFloat(fp.FricationDb),
		FricationMod:          NullFloat(fp.FricationMod),
		ParallelBypassDb:      NullFloat(fp.ParallelBypassDb),
		NasalFormantDb:        NullFloat(fp.NasalFormantDb),
		OralFormantDb:         toNull(fp.OralFormantDb),
	}
}

// FrameParms converts back to synthesizer frame parameters
func (fr *Frame) FrameParms() *klatt.FrameParms {
	return &klatt.FrameParms{
		Duration:              float64(fr.Duration),
		F0:                    float64(fr.F0),
		FlutterLevel:          float64(fr.FlutterLevel),
		OpenPhaseRatio:        float64(fr.OpenPhaseRatio),
		BreathinessDb:         float64(fr.BreathinessDb),
		TiltDb:                float64(fr.TiltDb),
		GainDb:                float64(fr.GainDb),
		AgcRmsLevel:           float64(fr.AgcRmsLevel),
		NasalFormantFreq:      float64(fr.NasalFormantFreq),
		NasalFormantBw:        float64(fr.NasalFormantBw),
		OralFormantFreq:       fromNull(fr.OralFormantFreq),
		OralFormantBw:         fromNull(fr.OralFormantBw),
		CascadeEnabled:        fr.CascadeEnabled,
		CascadeVoicingDb:      float64(fr.CascadeVoicingDb),
		CascadeAspirationDb:   float64(fr.CascadeAspirationDb),
		CascadeAspirationMod:  float64(fr.CascadeAspirationMod),
		NasalAntiformantFreq:  float64(fr.NasalAntiformantFreq),
		NasalAntiformantBw:    float64(fr.NasalAntiformantBw),
		ParallelEnabled:       fr.ParallelEnabled,
		ParallelVoicingDb:     float64(fr.ParallelVoicingDb),
		ParallelAspirationDb:  float64(fr.ParallelAspirationDb),
		ParallelAspirationMod: float64(fr.ParallelAspirationMod),
		FricationDb:           float64(fr.FricationDb),
		FricationMod:          float64(fr.FricationMod),
		ParallelBypassDb:      float64(fr.ParallelBypassDb),
		NasalFormantDb:        float64(fr.NasalFormantDb),
		OralFormantDb:         fromNull(fr.OralFormantDb),
	}
}

// RunConfig is everything needed to synthesize one sound
type RunConfig struct {
	Main   klatt.MainParms     `desc:"sample rate and glottal source type"`
	Frames []*klatt.FrameParms `desc:"frames in playing order"`
}

type runConfigJSON struct {
	Main   klatt.MainParms
	Frames []json.RawMessage
}

// Defaults sets the default main parameters and a single default frame
func (rc *RunConfig) Defaults() {
	rc.Main.Defaults()
	fp := &klatt.FrameParms{}
	fp.Defaults()
	rc.Frames = []*klatt.FrameParms{fp}
}

func (rc *RunConfig) MarshalJSON() ([]byte, error) {
	out := struct {
		Main   klatt.MainParms
		Frames []*Frame
	}{Main: rc.Main, Frames: make([]*Frame, len(rc.Frames))}
	for i, fp := range rc.Frames {
		out.Frames[i] = NewFrame(fp)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a run. Fields missing from the main parameters or from a
// frame take their Defaults value.
func (rc *RunConfig) UnmarshalJSON(b []byte) error {
	var in runConfigJSON
	in.Main.Defaults()
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	frames := make([]*klatt.FrameParms, len(in.Frames))
	for i, raw := range in.Frames {
		def := &klatt.FrameParms{}
		def.Defaults()
		fr := NewFrame(def)
		if err := json.Unmarshal(raw, fr); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		frames[i] = fr.FrameParms()
	}
	rc.Main = in.Main
	rc.Frames = frames
	return nil
}

// OpenJSON opens a run from a JSON-formatted file
func (rc *RunConfig) OpenJSON(fn gi.FileName) error {
	b, err := os.ReadFile(string(fn))
	if err != nil {
		log.Printf("klattcontrol.OpenJSON: %v", err)
		return err
	}
	if err := json.Unmarshal(b, rc); err != nil {
		log.Printf("klattcontrol.OpenJSON: %s: %v", fn, err)
		return err
	}
	return nil
}

// SaveJSON saves the run to a JSON-formatted file
func (rc *RunConfig) SaveJSON(fn gi.FileName) error {
	b, err := json.MarshalIndent(rc, "", "  ")
	if err != nil {
		log.Printf("klattcontrol.SaveJSON: %v", err)
		return err
	}
	if err := os.WriteFile(string(fn), b, 0644); err != nil {
		log.Printf("klattcontrol.SaveJSON: %v", err)
		return err
	}
	return nil
}

// Generate synthesizes the whole run
func (rc *RunConfig) Generate(rnd klatt.Rand) ([]float64, error) {
	return klatt.GenerateSound(&rc.Main, rc.Frames, rnd)
}
