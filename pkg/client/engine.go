package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/NicolasHaas/medscribe/pkg/api"
	"github.com/NicolasHaas/medscribe/pkg/audio"
	"github.com/NicolasHaas/medscribe/pkg/audit"
	"github.com/NicolasHaas/medscribe/pkg/model"
	"github.com/NicolasHaas/medscribe/pkg/recorder"
	"github.com/NicolasHaas/medscribe/pkg/session"
)

// MsgInvalidLogin is shown when the backend rejects the credentials without
// a detail of its own.
const MsgInvalidLogin = "Invalid email or password"

// Navigator moves the user between screens.
type Navigator interface {
	ToLogin()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

func (f NavigatorFunc) ToLogin() { f() }

// Auditor records audit events. *audit.Log implements it.
type Auditor interface {
	Record(ctx context.Context, ev audit.Event) error
}

// Config wires an Engine to its collaborators.
type Config struct {
	Settings  *Settings
	Sessions  *session.Manager
	Navigator Navigator
	// Audit is optional.
	Audit Auditor
	// Transport overrides the HTTP transport, mostly for tests.
	Transport http.RoundTripper
}

// Engine is the client core shared by the desktop app and the CLI: it owns
// the session, the API client, and the audit trail.
type Engine struct {
	mu sync.RWMutex

	settings  *Settings
	sessions  *session.Manager
	nav       Navigator
	auditor   Auditor
	transport http.RoundTripper
	api       *api.Client
}

// NewEngine creates an engine talking to settings.ServerURL.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("client: session manager is required")
	}
	if cfg.Settings == nil {
		cfg.Settings = DefaultSettings()
	}
	if cfg.Navigator == nil {
		cfg.Navigator = NavigatorFunc(func() {})
	}
	e := &Engine{
		settings:  cfg.Settings,
		sessions:  cfg.Sessions,
		nav:       cfg.Navigator,
		auditor:   cfg.Audit,
		transport: cfg.Transport,
	}
	if err := e.SetServer(cfg.Settings.ServerURL); err != nil {
		return nil, err
	}
	return e, nil
}

// SetServer points the engine at another backend. The session is kept; the
// caller decides whether it still applies.
func (e *Engine) SetServer(baseURL string) error {
	opts := []api.Option{
		api.WithTimeouts(e.settings.RequestTimeout, e.settings.UploadTimeout),
		api.WithUnauthorizedHandler(e.expire),
	}
	if e.transport != nil {
		opts = append(opts, api.WithTransport(e.transport))
	}
	c, err := api.New(strings.TrimSpace(baseURL), api.TokenFunc(e.sessions.Token), opts...)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	e.mu.Lock()
	e.api = c
	e.mu.Unlock()
	return nil
}

// API returns the current backend client.
func (e *Engine) API() *api.Client {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.api
}

// Settings returns the engine's settings.
func (e *Engine) Settings() *Settings {
	return e.settings
}

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Guard returns the signed-in identity. Without a complete session it
// navigates to login and returns session.ErrNoSession; callers must stop
// before touching the network.
func (e *Engine) Guard() (session.Record, error) {
	rec, err := e.sessions.Current()
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			slog.Error("read session", "err", err)
		}
		e.nav.ToLogin()
		return session.Record{}, session.ErrNoSession
	}
	return rec, nil
}

// Login exchanges credentials for a session and stores it.
func (e *Engine) Login(ctx context.Context, email, password string) (session.Record, error) {
	req := model.LoginRequest{Email: strings.TrimSpace(email), Password: password}
	if err := req.Validate(); err != nil {
		return session.Record{}, err
	}

	resp, err := e.API().Login(ctx, req)
	if err != nil {
		e.record(ctx, audit.Event{Kind: audit.KindLoginFailed, Outcome: audit.OutcomeFailed, Detail: failureDetail(err)})
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized && apiErr.Detail == "" {
			apiErr.Detail = MsgInvalidLogin
		}
		return session.Record{}, err
	}

	rec := session.Record{
		AccessToken: resp.AccessToken,
		UserID:      resp.User.ID,
		UserName:    resp.User.Name,
		Role:        resp.User.Role,
	}
	if err := e.sessions.Establish(rec); err != nil {
		e.record(ctx, audit.Event{Kind: audit.KindLoginFailed, UserID: rec.UserID, Outcome: audit.OutcomeFailed, Detail: "incomplete login response"})
		return session.Record{}, fmt.Errorf("client: login: %w", err)
	}
	e.record(ctx, audit.Event{Kind: audit.KindLogin, UserID: rec.UserID})
	return rec, nil
}

// LoginMessage maps a Login error to the text shown next to the form.
func LoginMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrEmailEmpty), errors.Is(err, model.ErrPasswordEmpty):
		return "Please enter email and password"
	case errors.Is(err, model.ErrEmailInvalid):
		return "Please enter a valid email address"
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return api.DetailOr(err, "Login failed. Please try again.")
	}
	if api.IsTransport(err) {
		return "Could not reach the server. Check the address and try again."
	}
	return "Login failed. Please try again."
}

// Logout clears the session and returns to login.
func (e *Engine) Logout(ctx context.Context) error {
	rec, _ := e.sessions.Current()
	if err := e.sessions.Clear(); err != nil {
		return err
	}
	e.record(ctx, audit.Event{Kind: audit.KindLogout, UserID: rec.UserID})
	e.nav.ToLogin()
	return nil
}

// expire is the uniform session-expired transition, run by the API client
// on any 401.
func (e *Engine) expire(requestID string) {
	rec, _ := e.sessions.Current()
	if err := e.sessions.Expire("unauthorized"); err != nil {
		slog.Error("clear expired session", "err", err)
	}
	e.record(context.Background(), audit.Event{
		Kind:      audit.KindSessionExpired,
		UserID:    rec.UserID,
		RequestID: requestID,
	})
	e.nav.ToLogin()
}

// NewRecorder builds a dictation recorder using the configured input
// device and format preference. Transcription outcomes are audited.
func (e *Engine) NewRecorder() *recorder.Recorder {
	return recorder.New(recorder.Config{
		Opener:      audio.PortAudioOpener{DeviceName: e.settings.AudioInput},
		Transcriber: auditedTranscriber{e: e},
		Preference:  e.settings.FormatPreference(),
		Secure:      func() bool { return e.API().Secure() },
		Ready: func() error {
			if _, err := e.Guard(); err != nil {
				return fmt.Errorf("%w: %w", recorder.ErrNotSignedIn, err)
			}
			return nil
		},
	})
}

type auditedTranscriber struct {
	e *Engine
}

func (t auditedTranscriber) Transcribe(ctx context.Context, up api.Upload) (*model.Transcription, error) {
	rec, err := t.e.Guard()
	if err != nil {
		return nil, api.ErrUnauthorized
	}
	out, err := t.e.API().Transcribe(ctx, up)
	ev := audit.Event{Kind: audit.KindTranscriptionOK, UserID: rec.UserID}
	switch {
	case err != nil:
		ev.Kind, ev.Outcome, ev.Detail = audit.KindTranscriptionFailed, audit.OutcomeFailed, failureDetail(err)
	case !out.Succeeded():
		ev.Kind, ev.Outcome, ev.Detail = audit.KindTranscriptionFailed, audit.OutcomeFailed, "status "+out.Status
	}
	t.e.record(ctx, ev)
	return out, err
}

func (e *Engine) record(ctx context.Context, ev audit.Event) {
	if e.auditor == nil {
		return
	}
	if err := e.auditor.Record(context.WithoutCancel(ctx), ev); err != nil {
		slog.Warn("audit record failed", "kind", ev.Kind, "err", err)
	}
}

// failureDetail summarises an error for the audit trail without copying
// server text that could carry clinical content.
func failureDetail(err error) string {
	var apiErr *api.Error
	switch {
	case errors.As(err, &apiErr):
		return fmt.Sprintf("status %d", apiErr.Status)
	case errors.Is(err, api.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case api.IsTransport(err):
		return "transport error"
	default:
		return "error"
	}
}
