// Package rbac decides which affordances a signed-in user is shown.
package rbac

import "github.com/NicolasHaas/medscribe/pkg/model"

// Permission is an action a role may be offered in the UI.
type Permission int

const (
	PermRegisterPatient Permission = iota
	PermSharePatient
	PermRevokeAccess
	PermGenerateReport
	PermDictate
)

// roleMatrix maps roles to their allowed permissions.
var roleMatrix = map[model.Role]map[Permission]bool{
	model.RolePhysician: {
		PermRegisterPatient: true,
		PermSharePatient:    true,
		PermRevokeAccess:    true,
		PermGenerateReport:  true,
		PermDictate:         true,
	},
	model.RoleStaff: {
		PermGenerateReport: true,
		PermDictate:        true,
	},
	model.RoleNurse: {
		PermGenerateReport: true,
		PermDictate:        true,
	},
}

// Can checks if a role has a specific permission. Unknown roles have none.
func Can(role model.Role, perm Permission) bool {
	perms, ok := roleMatrix[role]
	if !ok {
		return false
	}
	return perms[perm]
}

// CanWrite reports whether notes and vitals may be added at the given
// record access level. VIEW grants are read-only.
func CanWrite(level model.AccessLevel) bool {
	return level == model.AccessOwner || level == model.AccessEdit
}

// Require returns an error message if the role lacks the permission, or empty string if allowed.
func Require(role model.Role, perm Permission) string {
	if Can(role, perm) {
		return ""
	}
	return "permission denied: " + permName(perm) + " is not available to " + role.String()
}

func permName(p Permission) string {
	switch p {
	case PermRegisterPatient:
		return "register_patient"
	case PermSharePatient:
		return "share_patient"
	case PermRevokeAccess:
		return "revoke_access"
	case PermGenerateReport:
		return "generate_report"
	case PermDictate:
		return "dictate"
	default:
		return "unknown"
	}
}
