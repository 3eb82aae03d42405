package audio

import "encoding/binary"

const wavHeaderSize = 44

// WAVEncoder writes 16-bit little-endian PCM in a RIFF/WAVE container.
type WAVEncoder struct {
	sampleRate int
	channels   int
}

// NewWAVEncoder creates a PCM WAV encoder.
func NewWAVEncoder(sampleRate, channels int) *WAVEncoder {
	return &WAVEncoder{sampleRate: sampleRate, channels: channels}
}

// Header returns the RIFF header with zero sizes; Seal fills them in.
func (w *WAVEncoder) Header() []byte {
	h := make([]byte, wavHeaderSize)
	copy(h[0:], "RIFF")
	copy(h[8:], "WAVE")
	copy(h[12:], "fmt ")
	binary.LittleEndian.PutUint32(h[16:], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(h[20:], 1)  // PCM
	binary.LittleEndian.PutUint16(h[22:], uint16(w.channels))
	binary.LittleEndian.PutUint32(h[24:], uint32(w.sampleRate))
	binary.LittleEndian.PutUint32(h[28:], uint32(w.sampleRate*w.channels*2))
	binary.LittleEndian.PutUint16(h[32:], uint16(w.channels*2))
	binary.LittleEndian.PutUint16(h[34:], 16)
	copy(h[36:], "data")
	return h
}

func (w *WAVEncoder) Encode(pcm []int16) ([]byte, error) {
	out := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out, nil
}

func (w *WAVEncoder) Trailer() ([]byte, error) { return nil, nil }

// Seal writes the RIFF and data chunk sizes of a complete object.
func (w *WAVEncoder) Seal(object []byte) {
	if len(object) < wavHeaderSize {
		return
	}
	binary.LittleEndian.PutUint32(object[4:], uint32(len(object)-8))
	binary.LittleEndian.PutUint32(object[40:], uint32(len(object)-wavHeaderSize))
}
