// Package model defines the wire types exchanged with the clinical records backend.
package model

import "errors"

var ErrPatientNameEmpty = errors.New("patient name must not be empty")
var ErrPatientPhoneEmpty = errors.New("phone number must not be empty")

// Timestamp is a backend datetime kept verbatim. The backend emits naive
// ISO-8601 values that are UTC; see view.ParseServerTime.
type Timestamp string

// Patient is one row of a patient list.
type Patient struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	PhysicianID int64  `json:"physician_id"`
}

// PatientDetail is the single-patient view including the caller's access level.
type PatientDetail struct {
	ID              int64       `json:"id"`
	Name            string      `json:"name"`
	PhoneNumber     string      `json:"phone_number"`
	MembershipPrice *float64    `json:"membership_price"`
	PhysicianID     int64       `json:"physician_id"`
	PermissionLevel AccessLevel `json:"permission_level"`
}

// RegisterPatientRequest is the body of POST /register_patient.
type RegisterPatientRequest struct {
	Name            string   `json:"name"`
	PhoneNumber     string   `json:"phone_number"`
	MembershipPrice *float64 `json:"membership_price"`
	PhysicianID     int64    `json:"physician_id"`
}

// Validate checks the required fields.
func (r RegisterPatientRequest) Validate() error {
	if r.Name == "" {
		return ErrPatientNameEmpty
	}
	if r.PhoneNumber == "" {
		return ErrPatientPhoneEmpty
	}
	return nil
}
