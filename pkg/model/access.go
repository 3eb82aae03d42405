package model

import "errors"

var ErrInvalidSharePermission = errors.New("permission must be VIEW or EDIT")

// SharedAccess is one grant on a patient record.
type SharedAccess struct {
	ID         int64       `json:"id"`
	PatientID  int64       `json:"patient_id"`
	UserID     int64       `json:"user_id"`
	GrantedBy  int64       `json:"granted_by"`
	Permission AccessLevel `json:"permission"`
	CreatedAt  Timestamp   `json:"created_at"`
	UserName   string      `json:"user_name"`
	UserEmail  string      `json:"user_email"`
}

// ShareRequest is the body of POST /patients/{id}/share.
type ShareRequest struct {
	UserEmail  string      `json:"user_email"`
	Permission AccessLevel `json:"permission"`
}

// Validate checks the target email and that the grant is VIEW or EDIT.
func (r ShareRequest) Validate() error {
	if err := ValidateEmail(r.UserEmail); err != nil {
		return err
	}
	if r.Permission != AccessView && r.Permission != AccessEdit {
		return ErrInvalidSharePermission
	}
	return nil
}
