//go:build noaudio

package audio

import "context"

// PreInitAudio is a no-op without an audio backend.
func PreInitAudio() {}

// DeviceEntry holds basic info about an input device.
type DeviceEntry struct {
	Name      string
	MaxInputs int
	IsDefault bool
}

// ListInputDevices always fails without an audio backend.
func ListInputDevices() ([]DeviceEntry, error) { return nil, ErrUnsupported }

// PortAudioOpener reports ErrUnsupported in builds without PortAudio.
type PortAudioOpener struct {
	DeviceName string
}

func (PortAudioOpener) Open(context.Context) (Capturer, error) { return nil, ErrUnsupported }

func newOpusPacketEncoder() (packetEncoder, error) { return nil, ErrUnsupported }
