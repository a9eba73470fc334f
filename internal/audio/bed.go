package audio

import (
	"math"
	"time"
)

// bedPeak is the normalization target of a generated backing bed.
const bedPeak = 0.7

// tone describes one sine layer of a backing bed.
type tone struct {
	freq float64
	amp  float64
}

// bedLayers returns the sine stack for a music style. Frequencies
// follow the style's root note: epic on C3, dark on A2, emotional on
// C4, everything else on G3.
func bedLayers(style string) []tone {
	switch style {
	case "epic":
		return []tone{
			{130.81, 0.3},        // C3 root
			{130.81 * 1.5, 0.2},  // perfect fifth
		}
	case "dark":
		return []tone{
			{110, 0.4},       // A2 root
			{110 * 0.5, 0.3}, // sub-bass octave below
		}
	case "emotional":
		return []tone{
			{261.63, 0.3},        // C4 root
			{261.63 * 1.25, 0.2}, // string-like third
		}
	default:
		return []tone{
			{196, 0.3},        // G3 root
			{196 * 1.33, 0.2}, // fourth
		}
	}
}

// Bed synthesizes the backing track for a music style at the given
// duration, normalized to a fixed peak so every style sits at the same
// level under the vocal.
func Bed(style string, d time.Duration) Clip {
	c := Silence(d, DefaultSampleRate)
	if len(c.Samples) == 0 {
		return c
	}

	for _, layer := range bedLayers(style) {
		w := 2 * math.Pi * layer.freq
		for i := range c.Samples {
			t := float64(i) / float64(c.SampleRate)
			c.Samples[i] += math.Sin(w*t) * layer.amp
		}
	}

	// Epic beds carry a slow pulsing rhythm layer.
	if style == "epic" {
		for i := range c.Samples {
			t := float64(i) / float64(c.SampleRate)
			c.Samples[i] += math.Pow(math.Sin(2*math.Pi*2*t), 8) * 0.1
		}
	}

	return c.Normalize(bedPeak)
}
