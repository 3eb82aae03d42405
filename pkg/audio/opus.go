//go:build !noaudio

package audio

import (
	"fmt"

	"github.com/hraban/opus"
)

const opusBitrate = 32000 // speech for transcription, not conversation

// opusEncoder wraps an Opus encoder tuned for dictation.
type opusEncoder struct {
	enc *opus.Encoder
	buf []byte // reusable output buffer
}

func newOpusPacketEncoder() (packetEncoder, error) {
	enc, err := opus.NewEncoder(SampleRate, Channels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("audio: new opus encoder: %w", err)
	}
	_ = enc.SetBitrate(opusBitrate)

	return &opusEncoder{
		enc: enc,
		buf: make([]byte, 1275), // max Opus packet size
	}, nil
}

func (e *opusEncoder) EncodePacket(pcm []int16) ([]byte, error) {
	n, err := e.enc.Encode(pcm, e.buf)
	if err != nil {
		return nil, fmt.Errorf("audio: encode: %w", err)
	}
	out := make([]byte, n)
	copy(out, e.buf[:n])
	return out, nil
}
