// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package klatt

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DbToLin converts a dB value into a linear value.
// dB values of -99 and below or NaN are converted to 0.
func DbToLin(db float64) float64 {
	if db <= -99 || math.IsNaN(db) {
		return 0
	}
	return math.Pow(10, db/20)
}

// PerformFrequencyModulation modulates the fundamental frequency f0.
// The sine wave frequencies of 12.7, 7.1 and 4.7 Hz give a long period before the
// perturbation repeats. A flutterLevel of 0.25 gives a realistic deviation from a constant pitch.
// time is the signal position in seconds.
func PerformFrequencyModulation(f0, flutterLevel, time float64) float64 {
	if flutterLevel <= 0 {
		return f0
	}
	w := 2 * math.Pi * time
	a := math.Sin(12.7*w) + math.Sin(7.1*w) + math.Sin(4.7*w)
	return f0 * (1 + a*flutterLevel/50)
}

// ComputeRms returns the root mean square of the buffer, 0 for an empty one
func ComputeRms(buf []float64) float64 {
	if len(buf) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(buf, buf) / float64(len(buf)))
}

// AdjustSignalGain scales buf in place to the targetRms level.
// Empty and silent buffers are left unchanged.
func AdjustSignalGain(buf []float64, targetRms float64) {
	if len(buf) == 0 {
		return
	}
	rms := ComputeRms(buf)
	if rms == 0 {
		return
	}
	floats.Scale(targetRms/rms, buf)
}
