// Copyright (c) 2026, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sound converts synthesized float sample buffers to and from PCM wave files.
package sound

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/chewxy/math32"
	"github.com/emer/etable/etensor"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrBitDepth is returned for sample sizes other than 16, 24 or 32 bits
var ErrBitDepth = errors.New("sound: unsupported bit depth")

// DefaultBitDepth is the sample size used for synthesized output
const DefaultBitDepth = 32

// Wave holds mono or interleaved multi channel PCM data
type Wave struct {
	Buf *audio.IntBuffer `inactive:"+"`
}

// maxAmp returns the full scale integer amplitude for bitDepth
func maxAmp(bitDepth int) (int, error) {
	switch bitDepth {
	case 16:
		return 0x7FFF, nil
	case 24:
		return 0x7FFFFF, nil
	case 32:
		return 0x7FFFFFFF, nil
	}
	return 0, fmt.Errorf("%d bits: %w", bitDepth, ErrBitDepth)
}

// FromSamples quantizes mono samples in the range -1..1 into the wave buffer.
// Values outside the range are clipped.
func (snd *Wave) FromSamples(samples []float64, sampleRate, bitDepth int) error {
	amp, err := maxAmp(bitDepth)
	if err != nil {
		return err
	}
	if sampleRate <= 0 {
		return fmt.Errorf("sound: invalid sample rate %d", sampleRate)
	}
	lim := float64(amp)
	data := make([]int, len(samples))
	for i, s := range samples {
		switch {
		case math.IsNaN(s):
			s = 0
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		data[i] = int(math.Round(s * lim))
	}
	snd.Buf = &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	return nil
}

// Load loads the sound file and decodes it
func (snd *Wave) Load(fn string) error {
	f, err := os.Open(fn)
	if err != nil {
		log.Printf("sound.Load: couldn't open %s %v", fn, err)
		return err
	}
	defer f.Close()
	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	if err == nil && buf.Format == nil {
		err = fmt.Errorf("sound.Load: %s has no format chunk", fn)
	}
	if err != nil {
		log.Printf("sound.Load: decoding %s failed: %v", fn, err)
		return err
	}
	snd.Buf = buf
	return nil
}

// Write encodes the buffer as a PCM wave stream
func (snd *Wave) Write(ws io.WriteSeeker) error {
	if snd.Buf == nil {
		return errors.New("sound.Write: no data")
	}
	PCM := 1
	e := wav.NewEncoder(ws, snd.SampleRate(), snd.Buf.SourceBitDepth, snd.Channels(), PCM)
	if err := e.Write(snd.Buf); err != nil {
		log.Printf("Encoding failed on write: %v", err)
		return err
	}
	if err := e.Close(); err != nil {
		log.Printf("could not close wav file encoder")
		return err
	}
	return nil
}

// WriteWave encodes the signal data and writes it to file using the sample rate and
// other values of the buf object
func (snd *Wave) WriteWave(fn string) error {
	out, err := os.Create(fn)
	if err != nil {
		log.Printf("unable to create %s: %v", fn, err)
		return err
	}
	if err = snd.Write(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// SampleRate returns the sample rate of the sound or 0 is snd is nil
func (snd *Wave) SampleRate() int {
	if snd == nil || snd.Buf == nil {
		log.Printf("sound.SampleRate: Sound is nil")
		return 0
	}
	return snd.Buf.Format.SampleRate
}

// Channels returns the number of channels in the wav data or 0 is snd is nil
func (snd *Wave) Channels() int {
	if snd == nil || snd.Buf == nil {
		log.Printf("sound.Channels: Sound is nil")
		return 0
	}
	return snd.Buf.Format.NumChannels
}

// NumFrames is the number of samples per channel
func (snd *Wave) NumFrames() int {
	if snd.Buf == nil {
		return 0
	}
	return snd.Buf.NumFrames()
}

// Samples returns the normalized samples of one channel
func (snd *Wave) Samples(channel int) []float64 {
	n := snd.NumFrames()
	nc := snd.Channels()
	if channel < 0 || channel >= nc {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(snd.FloatAtIdx(i*nc + channel))
	}
	return out
}

// SoundToTensor converts sound data to floating point etensor with normalized -1..1 values.
// A specific channel gives a one-dimensional tensor of frames,
// and -1 gets all available channels as a two-dimensional tensor with outer dimension as
// channels and inner dimension frames
func (snd *Wave) SoundToTensor(samples *etensor.Float64, channel int) bool {
	nFrames := snd.NumFrames()
	nc := snd.Channels()
	if nc == 0 {
		return false
	}
	if channel < 0 && nc > 1 {
		samples.SetShape([]int{nc, nFrames}, nil, []string{"Channel", "Frame"})
		idx := 0
		for i := 0; i < nFrames; i++ {
			for c := 0; c < nc; c, idx = c+1, idx+1 {
				samples.Set([]int{c, i}, float64(snd.FloatAtIdx(idx)))
			}
		}
		return true
	}
	if channel < 0 {
		channel = 0
	}
	if channel >= nc {
		return false
	}
	samples.SetShape([]int{nFrames}, nil, []string{"Frame"})
	for i := 0; i < nFrames; i++ {
		samples.SetFloat1D(i, float64(snd.FloatAtIdx(i*nc+channel)))
	}
	return true
}

// FloatAtIdx returns the raw sample at idx scaled to -1..1.
// The most negative integer of a foreign file is clipped to -1.
func (snd *Wave) FloatAtIdx(idx int) float32 {
	amp, err := maxAmp(snd.Buf.SourceBitDepth)
	if err != nil {
		return 0
	}
	return math32.Max(-1, float32(snd.Buf.Data[idx])/float32(amp))
}
