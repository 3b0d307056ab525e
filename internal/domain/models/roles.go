// internal/domain/models/roles.go
package models

// Role names stored on sessions and fee collections.
//
// There is exactly one HOD for the whole department; teachers and reps
// are each scoped to a single class.
const (
	RoleHOD     = "hod"
	RoleTeacher = "teacher"
	RoleRep     = "rep"
)

// ValidRole reports whether s is one of the three known roles.
func ValidRole(s string) bool {
	return s == RoleHOD || s == RoleTeacher || s == RoleRep
}
