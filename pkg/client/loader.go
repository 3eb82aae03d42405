package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/NicolasHaas/medscribe/pkg/api"
	"github.com/NicolasHaas/medscribe/pkg/model"
)

// ErrNotList is returned when a collection endpoint answers with something
// other than a JSON array, typically a {"detail": ...} object.
var ErrNotList = errors.New("client: response is not a list")

// Resource names the messages a loader shows for one kind of data.
type Resource struct {
	// LoadError replaces the data on a transport or decode failure.
	LoadError string
	// ListError replaces the data when the payload is not a list.
	ListError string
}

var (
	Patients    = Resource{LoadError: "Error loading patients", ListError: "Error retrieving patient list"}
	PatientInfo = Resource{LoadError: "Error loading patient info", ListError: "Error loading patient info"}
	Notes       = Resource{LoadError: "Error loading notes", ListError: "Error retrieving notes list"}
	Vitals      = Resource{LoadError: "Error loading vitals", ListError: "Error retrieving vitals list"}
	ShareList   = Resource{LoadError: "Error loading share list", ListError: "Error retrieving share list"}
)

// ListView renders a collection or a message in its place.
type ListView[T any] interface {
	ShowItems(items []T)
	ShowError(msg string)
}

// ObjectView renders a single object or a message in its place.
type ObjectView[T any] interface {
	Show(item T)
	ShowError(msg string)
}

// LoadList fetches a collection and hands it to view. Missing sessions and
// 401s end at the login screen without touching view; every other failure
// is rendered as res's message.
func LoadList[T any](ctx context.Context, e *Engine, res Resource, path string, view ListView[T]) error {
	if _, err := e.Guard(); err != nil {
		return err
	}

	resp, err := e.API().Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		slog.Warn("load list", "path", path, "err", err)
		view.ShowError(res.LoadError)
		return err
	}

	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 || body[0] != '[' {
		slog.Warn("unexpected list payload", "path", path, "status", resp.Status, "request_id", resp.RequestID)
		view.ShowError(res.ListError)
		return fmt.Errorf("%w: %s returned status %d", ErrNotList, path, resp.Status)
	}

	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		slog.Warn("decode list", "path", path, "err", err)
		view.ShowError(res.LoadError)
		return fmt.Errorf("client: decode %s: %w", path, err)
	}
	if items == nil {
		items = []T{}
	}
	view.ShowItems(items)
	return nil
}

// LoadOne fetches a single object and hands it to view.
func LoadOne[T any](ctx context.Context, e *Engine, res Resource, path string, view ObjectView[T]) error {
	if _, err := e.Guard(); err != nil {
		return err
	}

	var item T
	if err := e.API().GetJSON(ctx, path, &item); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return err
		}
		slog.Warn("load object", "path", path, "err", err)
		view.ShowError(api.DetailOr(err, res.LoadError))
		return err
	}
	view.Show(item)
	return nil
}

// LoadPatients loads the signed-in user's patients.
func (e *Engine) LoadPatients(ctx context.Context, view ListView[model.Patient]) error {
	rec, err := e.Guard()
	if err != nil {
		return err
	}
	return LoadList(ctx, e, Patients, api.PatientsPath(rec.UserID), view)
}

// SearchPatients filters the patient list by name or phone. A blank query
// reloads the full list.
func (e *Engine) SearchPatients(ctx context.Context, query string, view ListView[model.Patient]) error {
	rec, err := e.Guard()
	if err != nil {
		return err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return LoadList(ctx, e, Patients, api.PatientsPath(rec.UserID), view)
	}
	return LoadList(ctx, e, Patients, api.SearchPatientsPath(rec.UserID, query), view)
}

// LoadPatient loads one patient record, including the caller's access level.
func (e *Engine) LoadPatient(ctx context.Context, patientID int64, view ObjectView[model.PatientDetail]) error {
	return LoadOne(ctx, e, PatientInfo, api.PatientPath(patientID), view)
}

// LoadNotes loads a patient's notes, newest first.
func (e *Engine) LoadNotes(ctx context.Context, patientID int64, view ListView[model.Note]) error {
	return LoadList(ctx, e, Notes, api.NotesPath(patientID), view)
}

// LoadVitals loads a patient's vitals, newest first.
func (e *Engine) LoadVitals(ctx context.Context, patientID int64, view ListView[model.Vitals]) error {
	return LoadList(ctx, e, Vitals, api.VitalsPath(patientID), view)
}

// LoadShares loads who a patient record is shared with.
func (e *Engine) LoadShares(ctx context.Context, patientID int64, view ListView[model.SharedAccess]) error {
	return LoadList(ctx, e, ShareList, api.AccessPath(patientID), view)
}
