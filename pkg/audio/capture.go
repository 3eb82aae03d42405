//go:build !noaudio

package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// CaptureDevice captures PCM audio from an input device.
type CaptureDevice struct {
	stream     *portaudio.Stream
	sampleRate float64
	frameSize  int
	buffer     []int16
	deviceName string // empty = default
	mu         sync.Mutex
	running    bool
	closed     bool
}

// NewCaptureDevice creates a capture device and takes a PortAudio
// reference that Close gives back.
// frameSize is the number of samples per frame (e.g., 960 for 20ms at 48kHz).
// deviceName may be empty to use the system default.
func NewCaptureDevice(sampleRate float64, frameSize int, deviceName string) (*CaptureDevice, error) {
	// Wait for the background PreInitAudio to finish (blocks until ready)
	WaitPreInit()

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return &CaptureDevice{
		sampleRate: sampleRate,
		frameSize:  frameSize,
		buffer:     make([]int16, frameSize),
		deviceName: deviceName,
	}, nil
}

// Start begins audio capture. Call ReadFrame() to get captured audio.
func (c *CaptureDevice) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var input *portaudio.DeviceInfo
	if c.deviceName != "" {
		input = FindDevice(c.deviceName)
		if input == nil {
			slog.Warn("configured input device not found, using default", "device", c.deviceName)
		}
	}
	if input == nil {
		var err error
		input, err = portaudio.DefaultInputDevice()
		if err != nil || input == nil {
			return fmt.Errorf("%w: %v", ErrNoDevice, err)
		}
	}

	// Build input-only stream parameters
	params := portaudio.LowLatencyParameters(input, nil)
	params.Input.Channels = Channels
	params.Output.Device = nil
	params.Output.Channels = 0
	params.SampleRate = c.sampleRate
	params.FramesPerBuffer = c.frameSize

	stream, err := portaudio.OpenStream(params, c.buffer)
	if err != nil {
		return classify("open capture stream", err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return classify("start capture", err)
	}

	c.stream = stream
	c.running = true
	slog.Debug("audio capture started", "device", input.Name, "rate", c.sampleRate)
	return nil
}

// ReadFrame reads one frame of PCM audio. Blocks until a frame is available.
// An input overflow drops samples but still yields a usable frame.
func (c *CaptureDevice) ReadFrame() ([]int16, error) {
	if err := c.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return nil, fmt.Errorf("audio: read frame: %w", err)
	}
	frame := make([]int16, len(c.buffer))
	copy(frame, c.buffer)
	return frame, nil
}

// Stop stops audio capture.
func (c *CaptureDevice) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked()
}

func (c *CaptureDevice) stopLocked() error {
	if !c.running {
		return nil
	}
	c.running = false

	if c.stream != nil {
		_ = c.stream.Stop()
		_ = c.stream.Close()
		c.stream = nil
	}
	return nil
}

// Close stops capture and returns the PortAudio reference. Later calls are
// no-ops.
func (c *CaptureDevice) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.stopLocked()
	slog.Debug("audio capture released")
	return portaudio.Terminate()
}

// PortAudioOpener opens the named input device, or the default when empty.
type PortAudioOpener struct {
	DeviceName string
}

// Open acquires and starts the device. The device is released again if
// starting fails.
func (o PortAudioOpener) Open(ctx context.Context) (Capturer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dev, err := NewCaptureDevice(SampleRate, FrameSize, o.DeviceName)
	if err != nil {
		return nil, err
	}
	if err := dev.Start(); err != nil {
		_ = dev.Close()
		return nil, err
	}
	return dev, nil
}

// classify maps PortAudio failures onto the acquisition taxonomy. Host APIs
// report refused microphone access only through their error text.
func classify(op string, err error) error {
	var paErr portaudio.Error
	if errors.As(err, &paErr) {
		switch paErr {
		case portaudio.InvalidDevice, portaudio.DeviceUnavailable:
			return fmt.Errorf("%w: %s: %v", ErrNoDevice, op, err)
		case portaudio.NotInitialized, portaudio.HostApiNotFound:
			return fmt.Errorf("%w: %s: %v", ErrUnsupported, op, err)
		}
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"permission", "denied", "not authorized", "not permitted"} {
		if strings.Contains(msg, hint) {
			return fmt.Errorf("%w: %s: %v", ErrPermissionDenied, op, err)
		}
	}
	return fmt.Errorf("audio: %s: %w", op, err)
}
