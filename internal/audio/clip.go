// Package audio implements the PCM processing chain used to turn a
// synthesized vocal and a style-specific backing bed into the final
// mixed track.
package audio

import (
	"math"
	"time"
)

// DefaultSampleRate is the sample rate of every generated clip.
const DefaultSampleRate = 44100

// Clip is a mono PCM buffer with samples in [-1, 1].
type Clip struct {
	SampleRate int
	Samples    []float64
}

// Silence returns a clip of the given duration containing silence.
func Silence(d time.Duration, rate int) Clip {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	n := int(float64(rate) * d.Seconds())
	if n < 0 {
		n = 0
	}
	return Clip{SampleRate: rate, Samples: make([]float64, n)}
}

// Duration returns the clip length.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}

// Empty reports whether the clip holds no samples.
func (c Clip) Empty() bool {
	return len(c.Samples) == 0
}

// clone returns an independent copy of the samples.
func (c Clip) clone() Clip {
	out := Clip{SampleRate: c.SampleRate, Samples: make([]float64, len(c.Samples))}
	copy(out.Samples, c.Samples)
	return out
}

// Gain returns a copy with the given gain in decibels applied.
func (c Clip) Gain(db float64) Clip {
	factor := math.Pow(10, db/20)
	out := c.clone()
	for i := range out.Samples {
		out.Samples[i] *= factor
	}
	return out
}

// Overlay mixes other on top of the clip sample-wise. The result has
// the length of the longer input.
func (c Clip) Overlay(other Clip) Clip {
	n := len(c.Samples)
	if len(other.Samples) > n {
		n = len(other.Samples)
	}
	out := Clip{SampleRate: c.SampleRate, Samples: make([]float64, n)}
	if out.SampleRate <= 0 {
		out.SampleRate = other.SampleRate
	}
	copy(out.Samples, c.Samples)
	for i, s := range other.Samples {
		out.Samples[i] += s
	}
	return out
}

// Normalize scales the clip so its peak amplitude equals peak. A
// silent clip is returned unchanged.
func (c Clip) Normalize(peak float64) Clip {
	var max float64
	for _, s := range c.Samples {
		if a := math.Abs(s); a > max {
			max = a
		}
	}
	if max == 0 {
		return c.clone()
	}
	out := c.clone()
	factor := peak / max
	for i := range out.Samples {
		out.Samples[i] *= factor
	}
	return out
}

// Clamp limits every sample to [-1, 1], removing clipping introduced
// by overlays and gain.
func (c Clip) Clamp() Clip {
	out := c.clone()
	for i, s := range out.Samples {
		if s > 1 {
			out.Samples[i] = 1
		} else if s < -1 {
			out.Samples[i] = -1
		}
	}
	return out
}

// PadTo extends the clip with trailing silence to at least n samples.
func (c Clip) PadTo(n int) Clip {
	if len(c.Samples) >= n {
		return c.clone()
	}
	out := Clip{SampleRate: c.SampleRate, Samples: make([]float64, n)}
	copy(out.Samples, c.Samples)
	return out
}

// PitchShift changes the perceived pitch by factor (0.9 lowers, 1.2
// raises) by resampling. Duration changes inversely with the factor,
// the same trade the frame-rate trick makes.
func (c Clip) PitchShift(factor float64) Clip {
	if factor <= 0 || len(c.Samples) == 0 {
		return c.clone()
	}
	n := int(float64(len(c.Samples)) / factor)
	if n <= 0 {
		return Clip{SampleRate: c.SampleRate}
	}
	out := Clip{SampleRate: c.SampleRate, Samples: make([]float64, n)}
	for i := range out.Samples {
		pos := float64(i) * factor
		j := int(pos)
		if j >= len(c.Samples)-1 {
			out.Samples[i] = c.Samples[len(c.Samples)-1]
			continue
		}
		frac := pos - float64(j)
		out.Samples[i] = c.Samples[j]*(1-frac) + c.Samples[j+1]*frac
	}
	return out
}

// LowPass applies a single-pole low-pass filter with the given cutoff
// frequency in Hz.
func (c Clip) LowPass(cutoff float64) Clip {
	if cutoff <= 0 || len(c.Samples) == 0 {
		return c.clone()
	}
	rc := 1 / (2 * math.Pi * cutoff)
	dt := 1 / float64(c.SampleRate)
	alpha := dt / (rc + dt)

	out := Clip{SampleRate: c.SampleRate, Samples: make([]float64, len(c.Samples))}
	prev := 0.0
	for i, s := range c.Samples {
		prev += alpha * (s - prev)
		out.Samples[i] = prev
	}
	return out
}
