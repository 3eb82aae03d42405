package model

import "strings"

// Role is the clinical role of a signed-in user. It gates UI affordances only;
// the backend enforces access on its own.
type Role int

const (
	RoleUnknown   Role = iota // Missing or unrecognised role string
	RolePhysician             // Owns patients, full affordances
	RoleStaff                 // Front desk, no registration or sharing
	RoleNurse                 // Same affordances as staff
)

func (r Role) String() string {
	switch r {
	case RolePhysician:
		return "physician"
	case RoleStaff:
		return "staff"
	case RoleNurse:
		return "nurse"
	default:
		return "unknown"
	}
}

// ParseRole converts a backend role string to a Role. Matching ignores case
// and surrounding whitespace; anything else maps to RoleUnknown.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "physician":
		return RolePhysician
	case "staff":
		return RoleStaff
	case "nurse":
		return RoleNurse
	default:
		return RoleUnknown
	}
}

// Valid returns true if the role is physician, staff, or nurse.
func (r Role) Valid() bool {
	return r >= RolePhysician && r <= RoleNurse
}

// IsStaff reports whether the role has the reduced front-desk view.
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleNurse
}

// MarshalText implements encoding.TextMarshaler so roles round-trip through
// JSON and YAML as their lowercase names.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return []byte{}, nil
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names decode to
// RoleUnknown rather than failing.
func (r *Role) UnmarshalText(text []byte) error {
	*r = ParseRole(string(text))
	return nil
}

// AccessLevel is the viewer's permission on a single patient record.
type AccessLevel string

const (
	AccessOwner AccessLevel = "OWNER"
	AccessEdit  AccessLevel = "EDIT"
	AccessView  AccessLevel = "VIEW"
)

// Valid returns true for OWNER, EDIT, and VIEW.
func (l AccessLevel) Valid() bool {
	switch l {
	case AccessOwner, AccessEdit, AccessView:
		return true
	}
	return false
}
