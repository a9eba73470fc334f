package audio

import (
	"math"
	"testing"
	"time"
)

func sine(freq float64, d time.Duration) Clip {
	c := Silence(d, DefaultSampleRate)
	for i := range c.Samples {
		t := float64(i) / float64(c.SampleRate)
		c.Samples[i] = math.Sin(2 * math.Pi * freq * t)
	}
	return c
}

func peak(c Clip) float64 {
	var max float64
	for _, s := range c.Samples {
		if a := math.Abs(s); a > max {
			max = a
		}
	}
	return max
}

func TestSilence(t *testing.T) {
	c := Silence(2*time.Second, DefaultSampleRate)
	if len(c.Samples) != 2*DefaultSampleRate {
		t.Errorf("len = %d, want %d", len(c.Samples), 2*DefaultSampleRate)
	}
	if got := c.Duration(); got != 2*time.Second {
		t.Errorf("duration = %v", got)
	}
}

func TestGain(t *testing.T) {
	c := sine(440, 100*time.Millisecond)

	louder := c.Gain(6)
	if got := peak(louder); math.Abs(got-1.995) > 0.01 {
		t.Errorf("+6dB peak = %v, want ~1.995", got)
	}

	quieter := c.Gain(-6)
	if got := peak(quieter); math.Abs(got-0.501) > 0.01 {
		t.Errorf("-6dB peak = %v, want ~0.501", got)
	}

	// Original untouched.
	if got := peak(c); math.Abs(got-1) > 0.01 {
		t.Errorf("source clip modified: peak = %v", got)
	}
}

func TestNormalize(t *testing.T) {
	c := sine(440, 100*time.Millisecond).Gain(-20)
	n := c.Normalize(0.7)
	if got := peak(n); math.Abs(got-0.7) > 0.001 {
		t.Errorf("normalized peak = %v, want 0.7", got)
	}

	s := Silence(10*time.Millisecond, DefaultSampleRate).Normalize(0.7)
	if got := peak(s); got != 0 {
		t.Errorf("normalizing silence produced peak %v", got)
	}
}

func TestOverlayAndClamp(t *testing.T) {
	a := sine(440, 100*time.Millisecond)
	b := sine(440, 50*time.Millisecond)

	mixed := a.Overlay(b)
	if len(mixed.Samples) != len(a.Samples) {
		t.Errorf("overlay length = %d, want %d", len(mixed.Samples), len(a.Samples))
	}
	if got := peak(mixed); got <= 1 {
		t.Errorf("in-phase overlay peak = %v, want > 1 before clamping", got)
	}
	if got := peak(mixed.Clamp()); got > 1 {
		t.Errorf("clamped peak = %v", got)
	}
}

func TestPitchShift(t *testing.T) {
	c := sine(440, time.Second)

	lower := c.PitchShift(0.9)
	wantLen := int(float64(len(c.Samples)) / 0.9)
	if math.Abs(float64(len(lower.Samples)-wantLen)) > 1 {
		t.Errorf("0.9 shift length = %d, want ~%d", len(lower.Samples), wantLen)
	}

	higher := c.PitchShift(1.2)
	wantLen = int(float64(len(c.Samples)) / 1.2)
	if math.Abs(float64(len(higher.Samples)-wantLen)) > 1 {
		t.Errorf("1.2 shift length = %d, want ~%d", len(higher.Samples), wantLen)
	}
}

// TestLowPassAttenuatesHighs checks the filter passes a low tone
// mostly intact while strongly reducing one above the cutoff.
func TestLowPassAttenuatesHighs(t *testing.T) {
	low := sine(200, 200*time.Millisecond).LowPass(3000)
	high := sine(12000, 200*time.Millisecond).LowPass(3000)

	if got := peak(low); got < 0.8 {
		t.Errorf("200Hz peak after filter = %v, want > 0.8", got)
	}
	if got := peak(high); got > 0.4 {
		t.Errorf("12kHz peak after filter = %v, want < 0.4", got)
	}
}

func TestPadTo(t *testing.T) {
	c := sine(440, 50*time.Millisecond)
	padded := c.PadTo(len(c.Samples) + 100)
	if len(padded.Samples) != len(c.Samples)+100 {
		t.Errorf("padded length = %d", len(padded.Samples))
	}
	for _, s := range padded.Samples[len(c.Samples):] {
		if s != 0 {
			t.Fatal("padding not silent")
		}
	}

	same := c.PadTo(10)
	if len(same.Samples) != len(c.Samples) {
		t.Errorf("padding to shorter length changed size: %d", len(same.Samples))
	}
}
