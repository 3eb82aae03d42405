package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/NicolasHaas/medscribe/pkg/api"
	"github.com/NicolasHaas/medscribe/pkg/audio"
	"github.com/NicolasHaas/medscribe/pkg/model"
)

// fakeCapture yields silent frames every millisecond until closed. With a
// gate, each ReadFrame blocks until the gate delivers or closes.
type fakeCapture struct {
	mu      sync.Mutex
	closed  int
	reads   int
	waiting int
	failAt  int // ReadFrame fails on this read (1-based); 0 never
	gate    chan struct{}
	readErr error
}

func (f *fakeCapture) ReadFrame() ([]int16, error) {
	if f.gate != nil {
		f.mu.Lock()
		f.waiting++
		f.mu.Unlock()
		<-f.gate
	}
	f.mu.Lock()
	f.reads++
	n := f.reads
	f.mu.Unlock()
	if f.failAt > 0 && n >= f.failAt {
		return nil, f.readErr
	}
	time.Sleep(time.Millisecond)
	return make([]int16, audio.FrameSize), nil
}

func (f *fakeCapture) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeCapture) waitingReads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waiting
}

func (f *fakeCapture) closedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeOpener struct {
	capture *fakeCapture
	err     error
	opens   int
}

func (o *fakeOpener) Open(context.Context) (audio.Capturer, error) {
	o.opens++
	if o.err != nil {
		return nil, o.err
	}
	return o.capture, nil
}

type fakeTranscriber struct {
	mu      sync.Mutex
	uploads []api.Upload
	reply   *model.Transcription
	err     error
}

func (t *fakeTranscriber) Transcribe(_ context.Context, up api.Upload) (*model.Transcription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.uploads = append(t.uploads, up)
	if t.err != nil {
		return nil, t.err
	}
	return t.reply, nil
}

func (t *fakeTranscriber) calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.uploads)
}

func wavOnly([]string) audio.Format { return audio.WAV }

func newTestRecorder(t *testing.T, capt *fakeCapture, tr *fakeTranscriber) (*Recorder, *fakeOpener) {
	t.Helper()
	op := &fakeOpener{capture: capt}
	r := New(Config{
		Opener:        op,
		Transcriber:   tr,
		Resolve:       wavOnly,
		FlushInterval: 5 * time.Millisecond,
	})
	return r, op
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStopWhileIdleIsNoop(t *testing.T) {
	tr := &fakeTranscriber{}
	r, op := newTestRecorder(t, &fakeCapture{}, tr)

	text, err := r.Stop(context.Background())
	if text != "" || err != nil {
		t.Errorf("Stop() = %q, %v; want empty, nil", text, err)
	}
	if op.opens != 0 || tr.calls() != 0 {
		t.Errorf("idle Stop touched device (%d) or transcriber (%d)", op.opens, tr.calls())
	}
}

func TestStartWhileRecordingIsNoop(t *testing.T) {
	capt := &fakeCapture{}
	tr := &fakeTranscriber{reply: &model.Transcription{Status: "success", Text: "ok"}}
	r, op := newTestRecorder(t, capt, tr)
	ctx := context.Background()

	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if op.opens != 1 {
		t.Errorf("device opened %d times, want 1", op.opens)
	}
	if r.State() != Recording {
		t.Errorf("state = %v", r.State())
	}
	waitFor(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return len(r.chunks) > 0
	})
	if _, err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if capt.closedCount() != 1 {
		t.Errorf("device released %d times, want 1", capt.closedCount())
	}
}

func TestRecordAndTranscribe(t *testing.T) {
	capt := &fakeCapture{}
	tr := &fakeTranscriber{reply: &model.Transcription{Status: "success", Text: "patient reports mild fever"}}
	r, _ := newTestRecorder(t, capt, tr)

	var statuses []string
	var mu sync.Mutex
	r.OnStatus = func(s string) {
		mu.Lock()
		statuses = append(statuses, s)
		mu.Unlock()
	}

	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// the periodic flush moves audio into the buffer while recording
	waitFor(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return len(r.chunks) >= 2
	})

	text, err := r.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if text != "patient reports mild fever" {
		t.Errorf("text = %q", text)
	}
	if capt.closedCount() != 1 {
		t.Errorf("device released %d times, want 1", capt.closedCount())
	}
	if r.chunks != nil {
		t.Errorf("buffer not cleared: %d chunks", len(r.chunks))
	}

	up := tr.uploads[0]
	if up.FileName != "recording.wav" || up.ContentType != "audio/wav" {
		t.Errorf("upload name/type = %q %q", up.FileName, up.ContentType)
	}
	if !bytes.HasPrefix(up.Data, []byte("RIFF")) {
		t.Errorf("upload is not a WAV object")
	}
	if pcm := len(up.Data) - 44; pcm <= 0 || pcm%(audio.FrameSize*2) != 0 {
		t.Errorf("upload carries %d PCM bytes, want whole frames", pcm)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{StatusRecording, StatusProcessing, StatusDone}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %q, want %q", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("status[%d] = %q, want %q", i, statuses[i], want[i])
		}
	}
}

func TestStopKeepsFrameInFlight(t *testing.T) {
	capt := &fakeCapture{gate: make(chan struct{})}
	tr := &fakeTranscriber{reply: &model.Transcription{Status: "success", Text: "short note"}}
	r, _ := newTestRecorder(t, capt, tr)
	ctx := context.Background()

	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool { return capt.waitingReads() == 1 })

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := r.Stop(ctx)
		done <- result{text, err}
	}()
	waitFor(t, func() bool { return r.State() == Idle })
	capt.gate <- struct{}{}

	var res result
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	if res.err != nil {
		t.Fatalf("Stop: %v", res.err)
	}
	if res.text != "short note" {
		t.Errorf("text = %q", res.text)
	}
	if tr.calls() != 1 {
		t.Fatalf("transcriber called %d times, want 1", tr.calls())
	}
	if got, want := len(tr.uploads[0].Data), 44+audio.FrameSize*2; got != want {
		t.Errorf("upload is %d bytes, want %d (header plus one frame)", got, want)
	}
	if capt.closedCount() != 1 {
		t.Errorf("device released %d times, want 1", capt.closedCount())
	}
}

func TestZeroChunksNeverTranscribes(t *testing.T) {
	// the device stops without ever delivering a frame
	capt := &fakeCapture{gate: make(chan struct{}), failAt: 1, readErr: errors.New("stream stopped")}
	tr := &fakeTranscriber{}
	r, _ := newTestRecorder(t, capt, tr)
	ctx := context.Background()

	var last string
	r.OnStatus = func(s string) { last = s }

	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := r.Stop(ctx)
		errc <- err
	}()
	waitFor(t, func() bool { return r.State() == Idle })
	close(capt.gate)

	if err := <-errc; !errors.Is(err, ErrNoAudio) {
		t.Fatalf("Stop() error = %v, want ErrNoAudio", err)
	}
	if tr.calls() != 0 {
		t.Errorf("transcriber called %d times", tr.calls())
	}
	if last != "Recording failed - no audio captured" {
		t.Errorf("status = %q", last)
	}
	if capt.closedCount() != 1 {
		t.Errorf("device released %d times, want 1", capt.closedCount())
	}
}

func TestCaptureErrorReleasesDevice(t *testing.T) {
	capt := &fakeCapture{failAt: 1, readErr: errors.New("device unplugged")}
	tr := &fakeTranscriber{}
	r, _ := newTestRecorder(t, capt, tr)

	failed := make(chan error, 1)
	r.OnCaptureError = func(err error) { failed <- err }

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-failed:
	case <-time.After(2 * time.Second):
		t.Fatal("capture error not reported")
	}
	waitFor(t, func() bool { return capt.closedCount() == 1 })

	_, err := r.Stop(context.Background())
	if !errors.Is(err, ErrNoAudio) {
		t.Errorf("Stop() error = %v, want ErrNoAudio", err)
	}
	if capt.closedCount() != 1 {
		t.Errorf("device released %d times, want 1", capt.closedCount())
	}
}

type emptyEncoder struct{}

func (emptyEncoder) Header() []byte                 { return nil }
func (emptyEncoder) Encode([]int16) ([]byte, error) { return nil, nil }
func (emptyEncoder) Trailer() ([]byte, error)       { return nil, nil }
func (emptyEncoder) Seal([]byte)                    {}

func TestEmptyObjectNeverTranscribes(t *testing.T) {
	tr := &fakeTranscriber{}
	r := New(Config{
		Opener:      &fakeOpener{capture: &fakeCapture{}},
		Transcriber: tr,
		Resolve: func([]string) audio.Format {
			return audio.Format{MIMEType: "audio/test", Extension: "bin", New: func() (audio.Encoder, error) { return emptyEncoder{}, nil }}
		},
		FlushInterval: time.Millisecond,
	})
	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return len(r.chunks) > 0
	})
	if _, err := r.Stop(ctx); !errors.Is(err, ErrEmptyAudio) {
		t.Fatalf("Stop() error = %v, want ErrEmptyAudio", err)
	}
	if tr.calls() != 0 {
		t.Errorf("transcriber called for empty object")
	}
}

func TestTranscriptionFailures(t *testing.T) {
	type tcase struct {
		tr      *fakeTranscriber
		wantErr error
		wantMsg string
	}
	tcases := map[string]tcase{
		"error_payload": {
			tr:      &fakeTranscriber{reply: &model.Transcription{Status: "error", Error: "Sarvam API error: 429"}},
			wantErr: ErrTranscription,
			wantMsg: "Transcription failed: Sarvam API error: 429",
		},
		"success_without_text": {
			tr:      &fakeTranscriber{reply: &model.Transcription{Status: "success"}},
			wantErr: ErrTranscription,
			wantMsg: "Transcription failed: Please try again or type manually",
		},
		"non_2xx": {
			tr:      &fakeTranscriber{err: &api.Error{Status: 500}},
			wantErr: ErrUpload,
			wantMsg: "Error Processing Audio. Try typing manually.",
		},
		"session_expired": {
			tr:      &fakeTranscriber{err: api.ErrUnauthorized},
			wantErr: api.ErrUnauthorized,
			wantMsg: "Session expired. Please sign in again.",
		},
	}

	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			r, _ := newTestRecorder(t, &fakeCapture{}, tc.tr)
			ctx := context.Background()
			if err := r.Start(ctx); err != nil {
				t.Fatalf("Start: %v", err)
			}
			waitFor(t, func() bool {
				r.mu.Lock()
				defer r.mu.Unlock()
				return len(r.chunks) > 0
			})
			text, err := r.Stop(ctx)
			if text != "" || !errors.Is(err, tc.wantErr) {
				t.Fatalf("Stop() = %q, %v; want error %v", text, err, tc.wantErr)
			}
			if got := Message(err); got != tc.wantMsg {
				t.Errorf("Message = %q, want %q", got, tc.wantMsg)
			}
		})
	}
}

func TestStartFailures(t *testing.T) {
	type tcase struct {
		opener  *fakeOpener
		secure  func() bool
		ready   func() error
		wantErr error
		wantMsg string
	}
	tcases := map[string]tcase{
		"signed_out": {
			opener:  &fakeOpener{capture: &fakeCapture{}},
			ready:   func() error { return fmt.Errorf("%w: no session", ErrNotSignedIn) },
			wantErr: ErrNotSignedIn,
			wantMsg: "Please login first",
		},
		"insecure": {
			opener:  &fakeOpener{capture: &fakeCapture{}},
			secure:  func() bool { return false },
			wantErr: ErrInsecureContext,
			wantMsg: "HTTPS required. Voice notes are only sent to servers over a secure connection.",
		},
		"permission": {
			opener:  &fakeOpener{err: audio.ErrPermissionDenied},
			wantErr: ErrPermissionDenied,
			wantMsg: "Microphone access denied. Allow microphone access for this app in your system privacy settings.",
		},
		"no_device": {
			opener:  &fakeOpener{err: audio.ErrNoDevice},
			wantErr: ErrNoDevice,
			wantMsg: "No microphone found. Connect a microphone and try again.",
		},
		"unsupported": {
			opener:  &fakeOpener{err: audio.ErrUnsupported},
			wantErr: ErrUnsupported,
			wantMsg: "Voice recording is not supported on this system. Please type notes manually.",
		},
		"unknown": {
			opener:  &fakeOpener{err: errors.New("host error -9999")},
			wantMsg: "Microphone error. Please type notes manually.",
		},
	}

	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			r := New(Config{Opener: tc.opener, Transcriber: &fakeTranscriber{}, Resolve: wavOnly, Secure: tc.secure, Ready: tc.ready})
			var status string
			r.OnStatus = func(s string) { status = s }

			err := r.Start(context.Background())
			if err == nil {
				t.Fatal("Start succeeded")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("Start() error = %v, want %v", err, tc.wantErr)
			}
			if status != tc.wantMsg {
				t.Errorf("status = %q, want %q", status, tc.wantMsg)
			}
			if r.State() != Idle {
				t.Errorf("state = %v after failed start", r.State())
			}
		})
	}

	insecure := &fakeOpener{capture: &fakeCapture{}}
	r := New(Config{Opener: insecure, Secure: func() bool { return false }})
	_ = r.Start(context.Background())
	if insecure.opens != 0 {
		t.Error("microphone acquired for an insecure backend")
	}

	signedOut := &fakeOpener{capture: &fakeCapture{}}
	r = New(Config{Opener: signedOut, Ready: func() error { return ErrNotSignedIn }})
	_ = r.Start(context.Background())
	if signedOut.opens != 0 {
		t.Error("microphone acquired without a session")
	}
}

func TestEncoderFailureReleasesDevice(t *testing.T) {
	capt := &fakeCapture{}
	r := New(Config{
		Opener: &fakeOpener{capture: capt},
		Resolve: func([]string) audio.Format {
			return audio.Format{MIMEType: "audio/broken", New: func() (audio.Encoder, error) { return nil, errors.New("no codec") }}
		},
	})
	if err := r.Start(context.Background()); err == nil {
		t.Fatal("Start succeeded without an encoder")
	}
	if capt.closedCount() != 1 {
		t.Errorf("device released %d times, want 1", capt.closedCount())
	}
}

func TestStopWithCancelledContextSkipsUpload(t *testing.T) {
	capt := &fakeCapture{}
	tr := &fakeTranscriber{reply: &model.Transcription{Status: "success", Text: "ok"}}
	r, _ := newTestRecorder(t, capt, tr)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool {
		capt.mu.Lock()
		defer capt.mu.Unlock()
		return capt.reads > 3
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Stop(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Stop err = %v, want context.Canceled", err)
	}
	waitFor(t, func() bool { return capt.closedCount() == 1 })
	if tr.calls() != 0 {
		t.Errorf("transcriber called %d times after cancel", tr.calls())
	}
	if r.State() != Idle {
		t.Errorf("state = %v, want idle", r.State())
	}
}
