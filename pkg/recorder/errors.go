package recorder

import (
	"context"
	"errors"

	"github.com/NicolasHaas/medscribe/pkg/api"
	"github.com/NicolasHaas/medscribe/pkg/audio"
)

var (
	ErrPermissionDenied = audio.ErrPermissionDenied
	ErrNoDevice         = audio.ErrNoDevice
	ErrUnsupported      = audio.ErrUnsupported

	ErrNotSignedIn     = errors.New("recorder: not signed in")
	ErrInsecureContext = errors.New("recorder: backend connection is not secure")
	ErrNoAudio         = errors.New("recorder: no audio captured")
	ErrEmptyAudio      = errors.New("recorder: no audio data")
	ErrUpload          = errors.New("recorder: transcription request failed")
	ErrTranscription   = errors.New("recorder: transcription failed")
)

// TranscriptionError is a transcription service reply without usable text.
type TranscriptionError struct {
	Reason string
}

func (e *TranscriptionError) Error() string {
	if e.Reason == "" {
		return ErrTranscription.Error()
	}
	return ErrTranscription.Error() + ": " + e.Reason
}

func (e *TranscriptionError) Unwrap() error { return ErrTranscription }

// Message maps a recorder error to the text shown to the user.
func Message(err error) string {
	var trErr *TranscriptionError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotSignedIn):
		return "Please login first"
	case errors.Is(err, ErrPermissionDenied):
		return "Microphone access denied. Allow microphone access for this app in your system privacy settings."
	case errors.Is(err, ErrNoDevice):
		return "No microphone found. Connect a microphone and try again."
	case errors.Is(err, ErrInsecureContext):
		return "HTTPS required. Voice notes are only sent to servers over a secure connection."
	case errors.Is(err, ErrUnsupported):
		return "Voice recording is not supported on this system. Please type notes manually."
	case errors.Is(err, ErrNoAudio):
		return "Recording failed - no audio captured"
	case errors.Is(err, ErrEmptyAudio):
		return "Recording failed - no audio data"
	case errors.As(err, &trErr):
		reason := trErr.Reason
		if reason == "" {
			reason = "Please try again or type manually"
		}
		return "Transcription failed: " + reason
	case errors.Is(err, ErrUpload):
		return "Error Processing Audio. Try typing manually."
	case errors.Is(err, api.ErrUnauthorized):
		return "Session expired. Please sign in again."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Recording cancelled."
	default:
		return "Microphone error. Please type notes manually."
	}
}
