package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// EncodeWAV writes the clip as a 16-bit PCM mono WAV file.
func EncodeWAV(w io.Writer, c Clip) error {
	rate := c.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}

	dataLen := len(c.Samples) * 2
	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], 1) // mono
	binary.LittleEndian.PutUint32(header[24:28], uint32(rate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(rate*2))
	binary.LittleEndian.PutUint16(header[32:34], 2)
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("writing WAV header: %w", err)
	}

	buf := make([]byte, dataLen)
	for i, s := range c.Samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(math.Round(s * 32767))
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("writing WAV samples: %w", err)
	}
	return nil
}

// DecodeWAV reads a 16-bit PCM WAV file. Multi-channel input is
// averaged down to mono.
func DecodeWAV(r io.Reader) (Clip, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return Clip{}, fmt.Errorf("reading RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return Clip{}, fmt.Errorf("not a WAV file")
	}

	var (
		rate     int
		channels int
		bits     int
		data     []byte
	)

	// Walk chunks until fmt and data are both seen.
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return Clip{}, fmt.Errorf("reading chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return Clip{}, fmt.Errorf("reading fmt chunk: %w", err)
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			if format != 1 {
				return Clip{}, fmt.Errorf("unsupported WAV format %d (want PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			rate = int(binary.LittleEndian.Uint32(body[4:8]))
			bits = int(binary.LittleEndian.Uint16(body[14:16]))
		case "data":
			data = make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return Clip{}, fmt.Errorf("reading data chunk: %w", err)
			}
		default:
			if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
				return Clip{}, fmt.Errorf("skipping %q chunk: %w", id, err)
			}
		}

		if rate > 0 && data != nil {
			break
		}
	}

	if rate == 0 || data == nil {
		return Clip{}, fmt.Errorf("WAV missing fmt or data chunk")
	}
	if bits != 16 {
		return Clip{}, fmt.Errorf("unsupported sample width %d bits (want 16)", bits)
	}
	if channels < 1 {
		return Clip{}, fmt.Errorf("invalid channel count %d", channels)
	}

	frameBytes := channels * 2
	frames := len(data) / frameBytes
	c := Clip{SampleRate: rate, Samples: make([]float64, frames)}
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			off := i*frameBytes + ch*2
			v := int16(binary.LittleEndian.Uint16(data[off : off+2]))
			sum += float64(v) / 32767
		}
		c.Samples[i] = sum / float64(channels)
	}
	return c, nil
}
