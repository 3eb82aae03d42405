package model

import "errors"

var ErrMissingPatient = errors.New("patient id must be set")

// Note is a consultation note. RawNotes holds free text; the SOAP fields are
// filled when the note was structured.
type Note struct {
	ID             int64     `json:"id"`
	PhysicianID    int64     `json:"physician_id"`
	PatientID      int64     `json:"patient_id"`
	ChiefComplaint string    `json:"chief_complaint"`
	Subjective     string    `json:"subjective"`
	Objective      string    `json:"objective"`
	Assessment     string    `json:"assessment"`
	Plan           string    `json:"plan"`
	RawNotes       string    `json:"raw_notes"`
	CreatedAt      Timestamp `json:"created_at"`
	PhysicianName  string    `json:"physician_name"`
}

// NoteRequest is the body of POST /users/{id}/notes. An empty RawNotes is
// accepted by the backend.
type NoteRequest struct {
	PatientID      int64   `json:"patient_id"`
	RawNotes       string  `json:"raw_notes"`
	ChiefComplaint *string `json:"chief_complaint,omitempty"`
	Subjective     *string `json:"subjective,omitempty"`
	Objective      *string `json:"objective,omitempty"`
	Assessment     *string `json:"assessment,omitempty"`
	Plan           *string `json:"plan,omitempty"`
}

// Validate checks that the note targets a patient.
func (r NoteRequest) Validate() error {
	if r.PatientID <= 0 {
		return ErrMissingPatient
	}
	return nil
}

// Vitals is one set of measurements. Any measurement may be absent.
type Vitals struct {
	ID          int64     `json:"id"`
	PhysicianID int64     `json:"physician_id"`
	PatientID   int64     `json:"patient_id"`
	SystolicBP  *int      `json:"systolic_bp"`
	DiastolicBP *int      `json:"diastolic_bp"`
	HeartRate   *int      `json:"heart_rate"`
	Temperature *float64  `json:"temperature"`
	SpO2        *int      `json:"spo2"`
	CreatedAt   Timestamp `json:"created_at"`
}

// VitalsRequest is the body of POST /users/{id}/vitals. Nil fields are sent
// as JSON null.
type VitalsRequest struct {
	PatientID   int64    `json:"patient_id"`
	SystolicBP  *int     `json:"systolic_bp"`
	DiastolicBP *int     `json:"diastolic_bp"`
	HeartRate   *int     `json:"heart_rate"`
	Temperature *float64 `json:"temperature"`
	SpO2        *int     `json:"spo2"`
}

// Validate checks that the measurements target a patient.
func (r VitalsRequest) Validate() error {
	if r.PatientID <= 0 {
		return ErrMissingPatient
	}
	return nil
}
