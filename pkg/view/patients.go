package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/NicolasHaas/medscribe/pkg/model"
	"github.com/NicolasHaas/medscribe/pkg/rbac"
)

// PatientRow is one entry of the patient list.
type PatientRow struct {
	ID     int64
	Name   string
	Phone  string
	Shared bool // owned by another physician and shared with the viewer
}

// PatientRows marks each patient not owned by me as shared.
func PatientRows(items []model.Patient, me int64) []PatientRow {
	rows := make([]PatientRow, 0, len(items))
	for _, p := range items {
		rows = append(rows, PatientRow{
			ID:     p.ID,
			Name:   p.Name,
			Phone:  p.PhoneNumber,
			Shared: p.PhysicianID != me,
		})
	}
	return rows
}

// EmptyPatientsText is shown for an empty patient list. Staff cannot add
// patients, so they get no call to action.
func EmptyPatientsText(role model.Role) string {
	if role.IsStaff() {
		return "No patients assigned to you yet."
	}
	return "No patients found. Add your first patient!"
}

// EmptySearchText is shown when a search matches nothing.
func EmptySearchText(query string) string {
	return fmt.Sprintf("No patients found matching %q", query)
}

// Welcome is the dashboard greeting.
func Welcome(name string, role model.Role) string {
	if role == model.RolePhysician {
		return "Welcome, Dr. " + name
	}
	return "Welcome, " + name
}

// PatientHeader summarises a patient record for the record screen.
type PatientHeader struct {
	Title      string
	Subtitle   string
	Membership string
	CanWrite   bool
}

// Header builds the record screen header. Write affordances follow the
// viewer's access level on this record.
func Header(p model.PatientDetail) PatientHeader {
	h := PatientHeader{
		Title:    p.Name,
		Subtitle: fmt.Sprintf("ID: %d • %s", p.ID, p.PhoneNumber),
		CanWrite: rbac.CanWrite(p.PermissionLevel),
	}
	if p.MembershipPrice != nil {
		h.Membership = "Membership: " + strconv.FormatFloat(*p.MembershipPrice, 'f', 2, 64)
	}
	if p.PermissionLevel != "" && p.PermissionLevel != model.AccessOwner {
		h.Subtitle += " • " + strings.ToLower(string(p.PermissionLevel)) + " access"
	}
	return h
}
