package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/NicolasHaas/medscribe/pkg/model"
)

// Paths of the backend REST surface.

func PatientsPath(userID int64) string { return fmt.Sprintf("/users/%d/patients", userID) }

func SearchPatientsPath(userID int64, q string) string {
	return fmt.Sprintf("/users/%d/patients/search?q=%s", userID, url.QueryEscape(q))
}

func RegisterPatientPath() string { return "/register_patient" }

func PatientPath(id int64) string { return fmt.Sprintf("/patients/%d", id) }

func NotesPath(patientID int64) string { return fmt.Sprintf("/patients/%d/notes", patientID) }

func VitalsPath(patientID int64) string { return fmt.Sprintf("/patients/%d/vitals", patientID) }

func AccessPath(patientID int64) string { return fmt.Sprintf("/patients/%d/access", patientID) }

func CreateNotePath(userID int64) string { return fmt.Sprintf("/users/%d/notes", userID) }

func CreateVitalsPath(userID int64) string { return fmt.Sprintf("/users/%d/vitals", userID) }

func SharePath(patientID int64) string { return fmt.Sprintf("/patients/%d/share", patientID) }

func RevokePath(patientID, userID int64) string {
	return fmt.Sprintf("/patients/%d/share/%d", patientID, userID)
}

// ReportPath builds the report query. Dates are only sent for a custom period.
func ReportPath(req model.ReportRequest) string {
	q := url.Values{}
	q.Set("period", string(req.Period))
	if req.Period == model.PeriodCustom {
		q.Set("start_date", req.Start)
		q.Set("end_date", req.End)
	}
	return fmt.Sprintf("/patients/%d/report?%s", req.PatientID, q.Encode())
}

const TranscribePath = "/transcribe"

// Login exchanges credentials for a token. It is the one call where 401
// means bad credentials rather than an expired session, so it bypasses the
// unauthorized handler and reports an *Error instead.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("api: encode login: %w", err)
	}
	resp, err := c.send(ctx, c.http, http.MethodPost, "/login", bytes.NewReader(data), "application/json", false)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	var out model.LoginResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("api: decode login: %w", err)
	}
	return &out, nil
}

// Report downloads a generated patient report and returns the document bytes.
func (c *Client) Report(ctx context.Context, req model.ReportRequest) ([]byte, error) {
	resp, err := c.Do(ctx, http.MethodGet, ReportPath(req), nil)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Upload is an audio object sent for transcription.
type Upload struct {
	Data        []byte
	FileName    string
	ContentType string
}

// Transcribe posts audio as multipart field "file" and decodes the result.
// A 2xx carrying an error payload is returned as-is; callers check
// Transcription.Succeeded.
func (c *Client) Transcribe(ctx context.Context, up Upload) (*model.Transcription, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, up.FileName))
	ct := up.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("api: create upload part: %w", err)
	}
	if _, err := part.Write(up.Data); err != nil {
		return nil, fmt.Errorf("api: write upload part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("api: close multipart: %w", err)
	}

	resp, err := c.send(ctx, c.upload, http.MethodPost, TranscribePath, &buf, mw.FormDataContentType(), true)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	var out model.Transcription
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("api: decode transcription: %w", err)
	}
	return &out, nil
}
