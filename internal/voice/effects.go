package voice

import "github.com/aranel/songsmith/internal/audio"

// ApplyStyle runs the effect chain for a voice style over a raw
// spoken clip. Unknown styles pass through unchanged.
func ApplyStyle(clip audio.Clip, style string) audio.Clip {
	switch style {
	case "heroic_male":
		// Lower pitch, slight volume boost.
		return clip.PitchShift(0.9).Gain(3)
	case "soprano":
		return clip.PitchShift(1.2)
	case "choir":
		// Detuned copies under the lead build the ensemble.
		high := clip.PitchShift(1.05).Gain(-6)
		low := clip.PitchShift(0.95).Gain(-6)
		return clip.Overlay(high).Overlay(low).Clamp()
	case "whisper":
		return clip.Gain(-10).LowPass(3000)
	default:
		return clip
	}
}
