package testutil

import (
	"context"
	"net/http"

	"github.com/classtally/classtally/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// AsHOD attaches an HOD session to the request.
func AsHOD(r *http.Request) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{Role: "hod", Name: "HOD"})
}

// AsTeacher attaches a teacher session scoped to classID.
func AsTeacher(r *http.Request, classID primitive.ObjectID) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{Role: "teacher", ClassID: classID.Hex(), Name: "Teacher"})
}

// AsRep attaches a rep session scoped to classID.
func AsRep(r *http.Request, classID primitive.ObjectID) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{Role: "rep", ClassID: classID.Hex(), Name: "Rep"})
}
