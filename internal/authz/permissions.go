package authz

// Fine-grained permissions expanded from the coarse categories. Route
// declarations reference these constants rather than raw strings.
const (
	PermStaffRead     = "staff.read"
	PermStaffCreate   = "staff.create"
	PermStaffUpdate   = "staff.update"
	PermStaffDelete   = "staff.delete"
	PermRecordsRead   = "records.read"
	PermRecordsCreate = "records.create"
	PermRecordsUpdate = "records.update"
	PermRecordsDelete = "records.delete"

	PermTasksRead     = "tasks.read"
	PermTasksCreate   = "tasks.create"
	PermTasksUpdate   = "tasks.update"
	PermTasksDelete   = "tasks.delete"
	PermPeriodsRead   = "periods.read"
	PermPeriodsCreate = "periods.create"
	PermPeriodsUpdate = "periods.update"
	PermPeriodsDelete = "periods.delete"

	PermRolesRead       = "roles.read"
	PermRolesCreate     = "roles.create"
	PermRolesUpdate     = "roles.update"
	PermRolesDelete     = "roles.delete"
	PermPermissionsRead = "permissions.read"

	PermUsersRead   = "users.read"
	PermUsersCreate = "users.create"
	PermUsersUpdate = "users.update"
	PermUsersDelete = "users.delete"
)

// categoryGrants maps each category to the fine-grained permissions it
// expands to. Reading periods is granted by both content and taxonomy:
// record entry screens need the period list even without catalogue access.
var categoryGrants = map[Category][]string{
	CategoryContent: {
		PermStaffRead, PermStaffCreate, PermStaffUpdate, PermStaffDelete,
		PermRecordsRead, PermRecordsCreate, PermRecordsUpdate, PermRecordsDelete,
		PermPeriodsRead,
	},
	CategoryTaxonomy: {
		PermTasksRead, PermTasksCreate, PermTasksUpdate, PermTasksDelete,
		PermPeriodsRead, PermPeriodsCreate, PermPeriodsUpdate, PermPeriodsDelete,
	},
	CategoryRoles: {
		PermRolesRead, PermRolesCreate, PermRolesUpdate, PermRolesDelete,
		PermPermissionsRead,
	},
	CategoryUsers: {
		PermUsersRead, PermUsersCreate, PermUsersUpdate, PermUsersDelete,
	},
}

// Expand derives the flat permission list for a category set. Categories
// are visited in ascending order so the result is deterministic; grants
// shared by several categories appear once.
func Expand(s CategorySet) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range s.Categories() {
		for _, p := range categoryGrants[c] {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
