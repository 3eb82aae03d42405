package rbac

import (
	"testing"

	"github.com/NicolasHaas/medscribe/pkg/model"
)

func TestCan(t *testing.T) {
	tests := []struct {
		name string
		role model.Role
		perm Permission
		want bool
	}{
		{"physician registers", model.RolePhysician, PermRegisterPatient, true},
		{"physician shares", model.RolePhysician, PermSharePatient, true},
		{"staff cannot register", model.RoleStaff, PermRegisterPatient, false},
		{"staff cannot share", model.RoleStaff, PermSharePatient, false},
		{"nurse cannot share", model.RoleNurse, PermSharePatient, false},
		{"nurse reports", model.RoleNurse, PermGenerateReport, true},
		{"unknown role", model.RoleUnknown, PermGenerateReport, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Can(tt.role, tt.perm); got != tt.want {
				t.Errorf("Can(%v, %d) = %v, want %v", tt.role, tt.perm, got, tt.want)
			}
		})
	}
}

func TestCanWrite(t *testing.T) {
	tests := []struct {
		level model.AccessLevel
		want  bool
	}{
		{model.AccessOwner, true},
		{model.AccessEdit, true},
		{model.AccessView, false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			if got := CanWrite(tt.level); got != tt.want {
				t.Errorf("CanWrite(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestRequire(t *testing.T) {
	if msg := Require(model.RolePhysician, PermSharePatient); msg != "" {
		t.Errorf("Require(physician) = %q, want empty", msg)
	}
	want := "permission denied: share_patient is not available to staff"
	if msg := Require(model.RoleStaff, PermSharePatient); msg != want {
		t.Errorf("Require(staff) = %q, want %q", msg, want)
	}
}
