// Package accesspolicy decides whether a caller may perform an action on
// a target entity. It is the single authorization authority for the API:
// handlers resolve the target from storage, then ask Decide.
//
// The package is pure: no database, no request context, no clock. The
// session and the target's relevant fields are passed in explicitly so
// every rule is testable in isolation.
//
// Role model:
//   - hod:     one per department, unscoped, full authority.
//   - teacher: scoped to exactly one class.
//   - rep:     scoped to exactly one class; may edit/delete only
//     collections created by a rep.
//
// A class mismatch (target's owning class differs from the session's)
// is a structural denial for teacher and rep, applied before any
// per-action rule can allow.
package accesspolicy

import "github.com/classtally/classtally/internal/domain/models"

// Session is the caller's identity as decoded from the session cookie.
// A zero Session is anonymous.
type Session struct {
	Authenticated bool
	Role          string
	ClassID       string // hex; empty for hod and anonymous
}

// Anonymous is the no-session caller.
var Anonymous = Session{}

// Target carries the fields of the resolved entity that authorization
// depends on. ClassID is the owning class (hex); empty means the target
// is class-less (a general collection, or an action with no entity such
// as CreateClass). CreatedByRole is set for fee collections only.
type Target struct {
	ClassID       string
	General       bool // collection explicitly marked class-less
	CreatedByRole string
}

// Action enumerates every operation the policy knows about.
type Action int

const (
	ReadStudents Action = iota
	ReadCollections
	CreateClass
	DeleteClass
	ResetTeacherCredential
	ResetRepCredential
	CreateStudent
	EditStudent
	DeleteStudent
	CreateCollection
	EditCollection
	DeleteCollection
)

// Decision is the outcome of an authorization check. Allow permits the
// operation; Forbidden and Unauthenticated are distinguishable terminal
// denials (403 vs 401 at the HTTP boundary).
type Decision int

const (
	Allow Decision = iota
	Forbidden
	Unauthenticated
)

// Decide evaluates whether sess may perform act on tgt.
//
// Rule order: open reads first, then the authentication gate, then HOD's
// blanket authority, then the structural class-mismatch denial, then the
// per-action role rules. First match wins.
func Decide(sess Session, act Action, tgt Target) Decision {
	// Reads are open to everyone, anonymous included (legacy behavior;
	// scoping is applied separately via ForcedClassFilter).
	if act == ReadStudents || act == ReadCollections {
		return Allow
	}

	if !sess.Authenticated || !models.ValidRole(sess.Role) {
		return Unauthenticated
	}

	if sess.Role == models.RoleHOD {
		return Allow
	}

	// Teacher/rep beyond this point. Class mismatch dominates every
	// per-action rule: a target owned by another class (or by no class
	// at all) is out of scope.
	if tgt.ClassID == "" || tgt.ClassID != sess.ClassID {
		return Forbidden
	}

	switch act {
	case CreateStudent, EditStudent, DeleteStudent:
		return Allow

	case CreateCollection:
		if tgt.General {
			// Only the HOD may create general (class-less) collections.
			return Forbidden
		}
		return Allow

	case EditCollection, DeleteCollection:
		if sess.Role == models.RoleTeacher {
			return Allow
		}
		// Reps may touch only rep-created collections, including ones
		// created by another rep of the same class, but never ones
		// created by their teacher or the HOD.
		if tgt.CreatedByRole == models.RoleRep {
			return Allow
		}
		return Forbidden

	case ResetRepCredential:
		// The class-match check above already pinned tgt to the
		// caller's own class; only the teacher manages its rep slot.
		if sess.Role == models.RoleTeacher {
			return Allow
		}
		return Forbidden

	case CreateClass, DeleteClass, ResetTeacherCredential:
		return Forbidden
	}

	return Forbidden
}

// ForcedClassFilter returns the class filter a list query must use for
// this session. Teachers and reps always see their own class regardless
// of any client-supplied filter; the HOD and anonymous callers keep the
// requested filter (possibly empty, meaning unfiltered).
func ForcedClassFilter(sess Session, requested string) string {
	if sess.Authenticated && sess.Role != models.RoleHOD && models.ValidRole(sess.Role) {
		return sess.ClassID
	}
	return requested
}
