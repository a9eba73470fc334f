package audio

import (
	"math"
	"testing"
	"time"
)

func TestBedDurationAndLevel(t *testing.T) {
	styles := []string{"epic", "dark", "emotional", "pop", "gregorian", "fantasy", "gladiator"}
	for _, style := range styles {
		bed := Bed(style, 2*time.Second)
		if len(bed.Samples) != 2*DefaultSampleRate {
			t.Errorf("%s: length = %d", style, len(bed.Samples))
		}
		if got := peak(bed); math.Abs(got-0.7) > 0.001 {
			t.Errorf("%s: peak = %v, want 0.7", style, got)
		}
	}
}

func TestBedStylesDiffer(t *testing.T) {
	epic := Bed("epic", 500*time.Millisecond)
	dark := Bed("dark", 500*time.Millisecond)

	var diff float64
	for i := range epic.Samples {
		diff += math.Abs(epic.Samples[i] - dark.Samples[i])
	}
	if diff < 1 {
		t.Error("epic and dark beds are indistinguishable")
	}
}

func TestBedZeroDuration(t *testing.T) {
	bed := Bed("epic", 0)
	if !bed.Empty() {
		t.Errorf("zero-duration bed has %d samples", len(bed.Samples))
	}
}

func TestMixLevels(t *testing.T) {
	vocal := sine(440, time.Second).Gain(-6)
	bed := Bed("epic", 2*time.Second)

	mixed := Mix(vocal, bed)
	if len(mixed.Samples) != len(bed.Samples) {
		t.Errorf("mix length = %d, want bed length %d", len(mixed.Samples), len(bed.Samples))
	}
	if got := peak(mixed); got > 1 {
		t.Errorf("mix peak = %v, want <= 1", got)
	}

	// Past the vocal only the attenuated bed remains.
	tail := Clip{SampleRate: mixed.SampleRate, Samples: mixed.Samples[len(vocal.Samples):]}
	want := 0.7 * math.Pow(10, -15.0/20)
	if got := peak(tail); math.Abs(got-want) > 0.05 {
		t.Errorf("tail peak = %v, want ~%v", got, want)
	}
}
