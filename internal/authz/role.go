package authz

// RoleLevel is the integer role stored on a user account. It is not a
// foreign key: the mapping to a role record goes through the role name.
type RoleLevel int

const (
	// RoleUnrecognized is any persisted value outside the known levels.
	// It always resolves to zero permissions.
	RoleUnrecognized RoleLevel = 0

	RoleAdministrator RoleLevel = 1
	RoleManager       RoleLevel = 2
	RoleUser          RoleLevel = 3
)

var roleNames = map[RoleLevel]string{
	RoleAdministrator: "Administrator",
	RoleManager:       "Manager",
	RoleUser:          "User",
}

// RoleLevelFromInt maps a persisted integer to its role level. The
// mapping is total: every value outside {1,2,3} yields RoleUnrecognized.
func RoleLevelFromInt(v int) RoleLevel {
	l := RoleLevel(v)
	if _, ok := roleNames[l]; !ok {
		return RoleUnrecognized
	}
	return l
}

// Known reports whether the level maps to a named role.
func (l RoleLevel) Known() bool {
	_, ok := roleNames[l]
	return ok
}

// Name returns the role name used as the lookup key into the role store,
// or "unknown" for unrecognized levels.
func (l RoleLevel) Name() string {
	if name, ok := roleNames[l]; ok {
		return name
	}
	return "unknown"
}
