package audio

import (
	"bytes"
	"math"
	"testing"
	"time"
)

func TestWAVRoundTrip(t *testing.T) {
	src := sine(440, 100*time.Millisecond).Gain(-6)

	var buf bytes.Buffer
	if err := EncodeWAV(&buf, src); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if buf.Len() != 44+len(src.Samples)*2 {
		t.Errorf("encoded size = %d, want %d", buf.Len(), 44+len(src.Samples)*2)
	}

	got, err := DecodeWAV(&buf)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if got.SampleRate != DefaultSampleRate {
		t.Errorf("sample rate = %d", got.SampleRate)
	}
	if len(got.Samples) != len(src.Samples) {
		t.Fatalf("sample count = %d, want %d", len(got.Samples), len(src.Samples))
	}
	for i := range got.Samples {
		if math.Abs(got.Samples[i]-src.Samples[i]) > 0.001 {
			t.Fatalf("sample %d = %v, want %v", i, got.Samples[i], src.Samples[i])
		}
	}
}

func TestDecodeWAVStereoDownmix(t *testing.T) {
	// Hand-build a 2-channel PCM16 file with left=0.5, right=-0.5.
	frames := 100
	data := make([]byte, frames*4)
	for i := 0; i < frames; i++ {
		left := int16(16384)
		right := int16(-16384)
		data[i*4] = byte(left)
		data[i*4+1] = byte(left >> 8)
		data[i*4+2] = byte(right)
		data[i*4+3] = byte(uint16(right) >> 8)
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	writeU32 := func(v uint32) {
		buf.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
	}
	writeU16 := func(v uint16) {
		buf.Write([]byte{byte(v), byte(v >> 8)})
	}
	writeU32(uint32(36 + len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	writeU32(16)
	writeU16(1)
	writeU16(2)
	writeU32(44100)
	writeU32(44100 * 4)
	writeU16(4)
	writeU16(16)
	buf.WriteString("data")
	writeU32(uint32(len(data)))
	buf.Write(data)

	got, err := DecodeWAV(&buf)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if len(got.Samples) != frames {
		t.Fatalf("frames = %d, want %d", len(got.Samples), frames)
	}
	// Opposite channels cancel to roughly zero.
	if math.Abs(got.Samples[0]) > 0.001 {
		t.Errorf("downmixed sample = %v, want ~0", got.Samples[0])
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, err := DecodeWAV(bytes.NewReader([]byte("not a wav file at all"))); err == nil {
		t.Fatal("expected error for non-WAV input")
	}
}
