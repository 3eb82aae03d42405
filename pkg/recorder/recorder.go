// Package recorder implements voice dictation: capture from the microphone,
// buffer encoded chunks, and submit the finished recording for
// transcription.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/NicolasHaas/medscribe/pkg/api"
	"github.com/NicolasHaas/medscribe/pkg/audio"
	"github.com/NicolasHaas/medscribe/pkg/model"
)

// DefaultFlushInterval bounds how much encoded audio sits outside the
// buffer at any time.
const DefaultFlushInterval = 100 * time.Millisecond

// Status texts shown while a recording progresses.
const (
	StatusRecording  = "Recording... Click Stop when done"
	StatusProcessing = "Processing audio..."
	StatusDone       = "Transcription complete"
)

// State is the recorder's re-entrancy guard.
type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// Transcriber turns an audio object into text. *api.Client implements it.
type Transcriber interface {
	Transcribe(ctx context.Context, up api.Upload) (*model.Transcription, error)
}

// Config wires a Recorder to its collaborators.
type Config struct {
	Opener      audio.Opener
	Transcriber Transcriber
	// Preference lists capture MIME types from most to least preferred.
	Preference []string
	// Resolve picks the format; audio.SelectFormat when nil.
	Resolve       func(prefs []string) audio.Format
	FlushInterval time.Duration
	// Secure reports whether the transcription transport protects audio in
	// transit. Nil means secure.
	Secure func() bool
	// Ready is checked before the microphone is opened; an error wrapping
	// ErrNotSignedIn refuses the recording.
	Ready func() error
}

// Recorder runs one recording at a time.
type Recorder struct {
	cfg Config

	mu      sync.Mutex
	state   State
	format  audio.Format
	enc     audio.Encoder
	chunks  [][]byte
	stop    chan struct{}
	done    chan struct{}
	loopErr error

	// Callbacks for UI updates
	OnStatus       func(text string)
	OnLevel        func(rms float64)
	OnCaptureError func(err error)
}

// New creates an idle recorder.
func New(cfg Config) *Recorder {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.Resolve == nil {
		cfg.Resolve = audio.SelectFormat
	}
	if len(cfg.Preference) == 0 {
		cfg.Preference = audio.DefaultPreference
	}
	return &Recorder{cfg: cfg}
}

// State returns the current state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start acquires the microphone and begins buffering. It is a no-op while
// already recording.
func (r *Recorder) Start(ctx context.Context) error {
	err := r.start(ctx)
	if err != nil {
		slog.Warn("recording not started", "err", err)
		r.status(Message(err))
		return err
	}
	r.status(StatusRecording)
	return nil
}

func (r *Recorder) start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Recording {
		return nil
	}
	if r.cfg.Ready != nil {
		if err := r.cfg.Ready(); err != nil {
			return err
		}
	}
	if r.cfg.Secure != nil && !r.cfg.Secure() {
		return ErrInsecureContext
	}
	if r.cfg.Opener == nil {
		return ErrUnsupported
	}

	capt, err := r.cfg.Opener.Open(ctx)
	if err != nil {
		return err
	}

	format := r.cfg.Resolve(r.cfg.Preference)
	enc, err := format.New()
	if err != nil {
		_ = capt.Close()
		return fmt.Errorf("recorder: create %s encoder: %w", format.MIMEType, err)
	}

	r.state = Recording
	r.format = format
	r.enc = enc
	r.chunks = nil
	r.loopErr = nil
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	slog.Info("recording started", "format", format.MIMEType)
	go r.captureLoop(capt, enc, r.stop, r.done)
	return nil
}

// captureLoop owns the device: it is the only reader and it always closes it.
func (r *Recorder) captureLoop(capt audio.Capturer, enc audio.Encoder, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer func() {
		if err := capt.Close(); err != nil {
			slog.Warn("release microphone", "err", err)
		}
	}()

	header := enc.Header()
	var pending []byte
	frames := 0
	flush := func() {
		if frames == 0 {
			return
		}
		chunk := pending
		if header != nil {
			chunk = append(header, pending...)
			header = nil
		}
		r.mu.Lock()
		r.chunks = append(r.chunks, chunk)
		r.mu.Unlock()
		pending = nil
		frames = 0
	}

	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			flush()
			return
		default:
		}
		select {
		case <-ticker.C:
			flush()
		default:
		}

		// a frame delivered after Stop is kept and flushed on the next pass
		pcm, err := capt.ReadFrame()
		if err != nil {
			flush()
			r.captureFailed(err)
			return
		}
		if r.OnLevel != nil {
			r.OnLevel(audio.Level(pcm))
		}

		out, err := enc.Encode(pcm)
		if err != nil {
			flush()
			r.captureFailed(err)
			return
		}
		pending = append(pending, out...)
		frames++
	}
}

func (r *Recorder) captureFailed(err error) {
	slog.Error("capture failed", "err", err)
	r.mu.Lock()
	r.loopErr = err
	r.mu.Unlock()
	if r.OnCaptureError != nil {
		r.OnCaptureError(err)
	}
}

// Stop ends the recording, releases the microphone, and transcribes what was
// captured. It returns "" and nil when idle.
func (r *Recorder) Stop(ctx context.Context) (string, error) {
	text, err := r.finish(ctx)
	switch {
	case err != nil:
		slog.Warn("dictation failed", "err", err)
		r.status(Message(err))
	case text != "":
		r.status(StatusDone)
	}
	return text, err
}

func (r *Recorder) finish(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.state != Recording {
		r.mu.Unlock()
		return "", nil
	}
	r.state = Idle
	close(r.stop)
	done := r.done
	r.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	chunks := r.chunks
	r.chunks = nil
	enc, format, loopErr := r.enc, r.format, r.loopErr
	r.enc = nil
	r.mu.Unlock()

	if len(chunks) == 0 {
		if loopErr != nil {
			return "", fmt.Errorf("%w (capture: %v)", ErrNoAudio, loopErr)
		}
		return "", ErrNoAudio
	}

	tail, err := enc.Trailer()
	if err != nil {
		return "", fmt.Errorf("recorder: finish %s: %w", format.MIMEType, err)
	}
	size := len(tail)
	for _, c := range chunks {
		size += len(c)
	}
	object := make([]byte, 0, size)
	for _, c := range chunks {
		object = append(object, c...)
	}
	object = append(object, tail...)
	enc.Seal(object)

	if len(object) == 0 {
		return "", ErrEmptyAudio
	}

	slog.Info("recording stopped", "chunks", len(chunks), "bytes", len(object), "format", format.MIMEType)
	r.status(StatusProcessing)

	return r.transcribe(ctx, api.Upload{
		Data:        object,
		FileName:    format.FileName(),
		ContentType: format.MIMEType,
	})
}

func (r *Recorder) transcribe(ctx context.Context, up api.Upload) (string, error) {
	if r.cfg.Transcriber == nil {
		return "", fmt.Errorf("%w: no transcriber configured", ErrUpload)
	}
	tr, err := r.cfg.Transcriber.Transcribe(ctx, up)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if !tr.Succeeded() {
		reason := tr.Error
		if reason == "" {
			reason = tr.Detail
		}
		return "", &TranscriptionError{Reason: reason}
	}
	return tr.Text, nil
}

func (r *Recorder) status(text string) {
	if r.OnStatus != nil {
		r.OnStatus(text)
	}
}
