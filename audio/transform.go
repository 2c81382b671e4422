package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"

	"github.com/voicewire/voicewire/events"
)

// Fixed stream rates: microphone frames go out at 16 kHz, playback frames
// arrive at 24 kHz.
const (
	InputRate    = 16000
	PlaybackRate = 24000
)

// ErrChunkTooLarge is returned when an encoded frame exceeds the per-chunk
// ceiling. Callers drop the frame rather than send it.
var ErrChunkTooLarge = errors.New("encoded audio chunk exceeds size limit")

// ResampleNearest converts a window of samples between rates by
// nearest-sample selection. Voice-band content tolerates the approximation;
// no interpolation is done. Output sample i is input sample
// floor(i * srcRate / dstRate).
func ResampleNearest(in []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate || len(in) == 0 {
		out := make([]float32, len(in))
		copy(out, in)
		return out
	}

	outLen := (len(in)*dstRate + srcRate - 1) / srcRate
	out := make([]float32, outLen)
	for i := range out {
		srcIndex := i * srcRate / dstRate
		if srcIndex < len(in) {
			out[i] = in[srcIndex]
		}
	}
	return out
}

// QuantizePCM16 converts float samples in [-1, 1] to signed 16-bit with
// saturation at [-32768, 32767].
func QuantizePCM16(in []float32) []int16 {
	out := make([]int16, len(in))
	for i, s := range in {
		v := int32(s * 32768)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}

// PCM16Bytes serializes samples as little-endian PCM16.
func PCM16Bytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// DecodePCM16 parses little-endian PCM16 bytes. A trailing odd byte is
// dropped.
func DecodePCM16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return out
}

// Float32FromPCM16 converts samples back to float range for playback.
func Float32FromPCM16(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768
	}
	return out
}

// EncodeFrame runs the full capture transform for one window: resample from
// the device rate to the fixed outbound rate, quantize, serialize, base64.
// Returns ErrChunkTooLarge when the encoded text would exceed the per-chunk
// ceiling.
func EncodeFrame(window []float32, srcRate int) (string, error) {
	resampled := ResampleNearest(window, srcRate, InputRate)
	pcm := PCM16Bytes(QuantizePCM16(resampled))
	encoded := base64.StdEncoding.EncodeToString(pcm)
	if len(encoded) > events.MaxChunkBytes {
		return "", ErrChunkTooLarge
	}
	return encoded, nil
}

// DecodeFrame reverses the transport encoding of an inbound frame into
// float samples at the playback rate.
func DecodeFrame(content string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, err
	}
	return Float32FromPCM16(DecodePCM16(raw)), nil
}
