// Package audio captures microphone PCM and packages it into an uploadable
// audio object.
package audio

import (
	"context"
	"errors"
	"math"
)

const (
	SampleRate = 48000
	Channels   = 1
	FrameSize  = 960 // 20ms at 48kHz
)

// Device acquisition failures. Each maps to distinct guidance for the user.
var (
	ErrPermissionDenied = errors.New("audio: microphone access denied")
	ErrNoDevice         = errors.New("audio: no input device")
	ErrUnsupported      = errors.New("audio: capture not supported in this build")
)

// Capturer is an acquired, running input device.
type Capturer interface {
	// ReadFrame blocks until one frame of FrameSize mono samples is available.
	ReadFrame() ([]int16, error)
	// Close stops capture and releases the device. It is safe to call more
	// than once.
	Close() error
}

// Opener acquires an input device and starts capture on it.
type Opener interface {
	Open(ctx context.Context) (Capturer, error)
}

// Level computes the RMS of a frame, for input meters.
func Level(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}
	var sum float64
	for _, s := range pcm {
		f := float64(s)
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(pcm)))
}
