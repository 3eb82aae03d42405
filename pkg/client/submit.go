package client

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/NicolasHaas/medscribe/pkg/api"
	"github.com/NicolasHaas/medscribe/pkg/audit"
	"github.com/NicolasHaas/medscribe/pkg/model"
	"github.com/NicolasHaas/medscribe/pkg/rbac"
	"github.com/NicolasHaas/medscribe/pkg/session"
)

// MsgGenericError is shown when a submission fails before the server
// answers.
const MsgGenericError = "An error occurred. Please try again."

// Fallback messages for non-2xx answers without a detail.
const (
	MsgAddPatientFailed = "Failed to add patient"
	MsgAddNoteFailed    = "Failed to add note"
	MsgLogVitalsFailed  = "Failed to log vitals"
	MsgShareFailed      = "Failed to share"
	MsgRevokeFailed     = "Failed to revoke access"
)

// FormView is the part of a form a submission drives.
type FormView interface {
	ClearError()
	ShowError(msg string)
	Close()
	Reset()
}

// Submission describes one form post.
type Submission struct {
	Method  string
	Path    string
	Payload any
	// FallbackError is shown for non-2xx answers without a string detail.
	FallbackError string
	// OnSuccess runs after the form is closed and reset, usually a reload.
	OnSuccess func(ctx context.Context) error

	// Audited as Kind with PatientID when set.
	Kind      audit.Kind
	PatientID int64
}

// Submitter posts forms on behalf of the signed-in user.
type Submitter struct {
	e *Engine
}

// Submitter returns the engine's form submitter.
func (e *Engine) Submitter() *Submitter {
	return &Submitter{e: e}
}

// Submit sends sub and drives form through the outcome. On success the form
// is closed and reset before OnSuccess runs; on failure it stays open with
// an inline message.
func (s *Submitter) Submit(ctx context.Context, form FormView, sub Submission) error {
	rec, err := s.e.Guard()
	if err != nil {
		return err
	}
	return s.submit(ctx, rec, form, sub)
}

func (s *Submitter) submit(ctx context.Context, rec session.Record, form FormView, sub Submission) error {
	form.ClearError()

	resp, err := s.e.API().Do(ctx, sub.Method, sub.Path, sub.Payload)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		slog.Warn("submit", "method", sub.Method, "path", sub.Path, "err", err)
		s.audit(ctx, rec, sub, audit.OutcomeFailed, failureDetail(err), "")
		form.ShowError(MsgGenericError)
		return err
	}
	if err := resp.Err(); err != nil {
		slog.Info("submit rejected", "path", sub.Path, "status", resp.Status, "request_id", resp.RequestID)
		s.audit(ctx, rec, sub, audit.OutcomeFailed, failureDetail(err), resp.RequestID)
		form.ShowError(api.DetailOr(err, sub.FallbackError))
		return err
	}

	s.audit(ctx, rec, sub, audit.OutcomeOK, "", resp.RequestID)
	form.Close()
	form.Reset()
	if sub.OnSuccess != nil {
		return sub.OnSuccess(ctx)
	}
	return nil
}

func (s *Submitter) audit(ctx context.Context, rec session.Record, sub Submission, outcome, detail, requestID string) {
	if sub.Kind == "" {
		return
	}
	s.e.record(ctx, audit.Event{
		Kind:      sub.Kind,
		UserID:    rec.UserID,
		PatientID: sub.PatientID,
		Outcome:   outcome,
		RequestID: requestID,
		Detail:    detail,
	})
}

// invalid shows a local validation failure without contacting the server.
func invalid(form FormView, err error) error {
	form.ClearError()
	form.ShowError(sentence(err.Error()))
	return err
}

// permitted checks the role matrix; the surfaces hide these actions
// already, so this only trips on a stale screen.
func permitted(form FormView, rec session.Record, perm rbac.Permission) bool {
	if rbac.Can(rec.Role, perm) {
		return true
	}
	form.ClearError()
	form.ShowError(sentence(rbac.Require(rec.Role, perm)))
	return false
}

// RegisterPatient adds a patient owned by the signed-in physician.
func (s *Submitter) RegisterPatient(ctx context.Context, form FormView, req model.RegisterPatientRequest, reload func(ctx context.Context) error) error {
	rec, err := s.e.Guard()
	if err != nil {
		return err
	}
	if !permitted(form, rec, rbac.PermRegisterPatient) {
		return errors.New("client: " + rbac.Require(rec.Role, rbac.PermRegisterPatient))
	}
	req.Name = strings.TrimSpace(req.Name)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.PhysicianID = rec.UserID
	if err := req.Validate(); err != nil {
		return invalid(form, err)
	}
	return s.submit(ctx, rec, form, Submission{
		Method:        http.MethodPost,
		Path:          api.RegisterPatientPath(),
		Payload:       req,
		FallbackError: MsgAddPatientFailed,
		OnSuccess:     reload,
		Kind:          audit.KindPatientRegistered,
	})
}

// AddNote records a note for a patient. Empty raw notes are allowed.
func (s *Submitter) AddNote(ctx context.Context, form FormView, req model.NoteRequest, reload func(ctx context.Context) error) error {
	rec, err := s.e.Guard()
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return invalid(form, err)
	}
	return s.submit(ctx, rec, form, Submission{
		Method:        http.MethodPost,
		Path:          api.CreateNotePath(rec.UserID),
		Payload:       req,
		FallbackError: MsgAddNoteFailed,
		OnSuccess:     reload,
		Kind:          audit.KindNoteCreated,
		PatientID:     req.PatientID,
	})
}

// LogVitals records a set of measurements. Absent values are sent as null.
func (s *Submitter) LogVitals(ctx context.Context, form FormView, req model.VitalsRequest, reload func(ctx context.Context) error) error {
	rec, err := s.e.Guard()
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return invalid(form, err)
	}
	return s.submit(ctx, rec, form, Submission{
		Method:        http.MethodPost,
		Path:          api.CreateVitalsPath(rec.UserID),
		Payload:       req,
		FallbackError: MsgLogVitalsFailed,
		OnSuccess:     reload,
		Kind:          audit.KindVitalsLogged,
		PatientID:     req.PatientID,
	})
}

// Share grants another user access to a patient record.
func (s *Submitter) Share(ctx context.Context, form FormView, patientID int64, req model.ShareRequest, reload func(ctx context.Context) error) error {
	rec, err := s.e.Guard()
	if err != nil {
		return err
	}
	if !permitted(form, rec, rbac.PermSharePatient) {
		return errors.New("client: " + rbac.Require(rec.Role, rbac.PermSharePatient))
	}
	req.UserEmail = strings.TrimSpace(req.UserEmail)
	if err := req.Validate(); err != nil {
		return invalid(form, err)
	}
	return s.submit(ctx, rec, form, Submission{
		Method:        http.MethodPost,
		Path:          api.SharePath(patientID),
		Payload:       req,
		FallbackError: MsgShareFailed,
		OnSuccess:     reload,
		Kind:          audit.KindAccessShared,
		PatientID:     patientID,
	})
}

// Revoke removes a user's access. Callers confirm with the user first.
func (s *Submitter) Revoke(ctx context.Context, form FormView, patientID, userID int64, reload func(ctx context.Context) error) error {
	rec, err := s.e.Guard()
	if err != nil {
		return err
	}
	if !permitted(form, rec, rbac.PermRevokeAccess) {
		return errors.New("client: " + rbac.Require(rec.Role, rbac.PermRevokeAccess))
	}
	return s.submit(ctx, rec, form, Submission{
		Method:        http.MethodDelete,
		Path:          api.RevokePath(patientID, userID),
		FallbackError: MsgRevokeFailed,
		OnSuccess:     reload,
		Kind:          audit.KindAccessRevoked,
		PatientID:     patientID,
	})
}

// ParseInt reads an optional integer field. Blank or malformed input is
// absent (nil); zero is a value.
func ParseInt(s string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &v
}

// ParseFloat reads an optional decimal field the same way as ParseInt.
func ParseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// OptionalText reads an optional free-text field. Blank input is absent.
func OptionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func sentence(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
