package audio

// bedGainDB is how far the backing bed sits under the vocal.
const bedGainDB = -15

// Mix combines a vocal clip and a backing bed into the final track.
// The shorter input is padded with silence, the bed is dropped well
// below the vocal, and the sum is clamped to the PCM range.
func Mix(vocal, bed Clip) Clip {
	n := len(vocal.Samples)
	if len(bed.Samples) > n {
		n = len(bed.Samples)
	}
	v := vocal.PadTo(n)
	b := bed.PadTo(n).Gain(bedGainDB)
	return v.Overlay(b).Clamp()
}
