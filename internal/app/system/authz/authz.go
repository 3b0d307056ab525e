// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/classtally/classtally/internal/app/policy/accesspolicy"
	"github.com/classtally/classtally/internal/app/system/auth"
	"github.com/classtally/classtally/internal/app/system/webjson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PolicySession converts the request's session (if any) into the form the
// access policy evaluates. Anonymous requests yield accesspolicy.Anonymous.
// The role is normalized to lowercase for consistent comparison.
func PolicySession(r *http.Request) accesspolicy.Session {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return accesspolicy.Anonymous
	}
	return accesspolicy.Session{
		Authenticated: true,
		Role:          strings.ToLower(user.Role),
		ClassID:       user.ClassID,
	}
}

// UserCtx returns the session's role (lowercased), class ObjectID, and a
// found flag. A teacher or rep session with a malformed class ID reports
// ok=false, so callers can trust that ok=true means a usable identity.
// The HOD carries no class; its class ID is NilObjectID.
func UserCtx(r *http.Request) (role string, classID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", primitive.NilObjectID, false
	}
	role = strings.ToLower(user.Role)
	if user.ClassID == "" {
		return role, primitive.NilObjectID, true
	}
	classID, err := primitive.ObjectIDFromHex(user.ClassID)
	if err != nil {
		// Malformed class ID in session - fail closed.
		return "visitor", primitive.NilObjectID, false
	}
	return role, classID, true
}

// Require evaluates the access policy for the request and writes the
// 401/403 error envelope on denial. Returns true when the handler may
// proceed.
func Require(w http.ResponseWriter, r *http.Request, act accesspolicy.Action, tgt accesspolicy.Target) bool {
	switch accesspolicy.Decide(PolicySession(r), act, tgt) {
	case accesspolicy.Allow:
		return true
	case accesspolicy.Unauthenticated:
		webjson.Unauthenticated(w, "")
	default:
		webjson.Forbidden(w, "")
	}
	return false
}

// IsHOD reports whether the current request carries an HOD session.
func IsHOD(r *http.Request) bool {
	role, _, ok := UserCtx(r)
	return ok && role == "hod"
}

// IsTeacher reports whether the current request carries a teacher session.
func IsTeacher(r *http.Request) bool {
	role, _, ok := UserCtx(r)
	return ok && role == "teacher"
}

// IsRep reports whether the current request carries a rep session.
func IsRep(r *http.Request) bool {
	role, _, ok := UserCtx(r)
	return ok && role == "rep"
}
