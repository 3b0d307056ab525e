// internal/app/features/classes/handler.go
package classes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/classtally/classtally/internal/app/policy/accesspolicy"
	classstore "github.com/classtally/classtally/internal/app/store/classes"
	"github.com/classtally/classtally/internal/app/system/authz"
	"github.com/classtally/classtally/internal/app/system/timeouts"
	"github.com/classtally/classtally/internal/app/system/webjson"
	"github.com/classtally/classtally/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Log     *zap.Logger
	Classes *classstore.Store
}

func NewHandler(log *zap.Logger, classes *classstore.Store) *Handler {
	return &Handler{Log: log, Classes: classes}
}

// classView is the admin view of a class: slot metadata without the
// passwords themselves.
type classView struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	TeacherPasswordSet     bool   `json:"teacherPasswordSet"`
	TeacherPasswordExpires string `json:"teacherPasswordExpires,omitempty"`
	TeacherPasswordRevoked bool   `json:"teacherPasswordRevoked"`
	RepPasswordSet         bool   `json:"repPasswordSet"`
	RepPasswordExpires     string `json:"repPasswordExpires,omitempty"`
	RepPasswordRevoked     bool   `json:"repPasswordRevoked"`
}

func toView(c models.Class) classView {
	v := classView{
		ID:                     c.ID.Hex(),
		Name:                   c.Name,
		TeacherPasswordSet:     c.TeacherPassword != "",
		TeacherPasswordRevoked: c.TeacherPasswordRevoked,
		RepPasswordSet:         c.RepPassword != "",
		RepPasswordRevoked:     c.RepPasswordRevoked,
	}
	if c.TeacherPasswordExpires != nil {
		v.TeacherPasswordExpires = c.TeacherPasswordExpires.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	if c.RepPasswordExpires != nil {
		v.RepPasswordExpires = c.RepPasswordExpires.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return v
}

// HandleList handles GET /classes (HOD administration view).
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !authz.IsHOD(r) {
		if _, _, ok := authz.UserCtx(r); !ok {
			webjson.Unauthenticated(w, "")
			return
		}
		webjson.Forbidden(w, "")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list classes")
	defer cancel()

	classes, err := h.Classes.List(ctx)
	if err != nil {
		webjson.Internal(w, h.Log, "list classes", err)
		return
	}
	out := make([]classView, 0, len(classes))
	for _, c := range classes {
		out = append(out, toView(c))
	}
	webjson.OK(w, http.StatusOK, out)
}

// HandleCreate handles POST /classes.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !authz.Require(w, r, accesspolicy.CreateClass, accesspolicy.Target{}) {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Invalid(w, "malformed request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		webjson.Invalid(w, "name is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create class")
	defer cancel()

	created, err := h.Classes.Create(ctx, req.Name)
	if err != nil {
		if errors.Is(err, classstore.ErrDuplicateClassName) {
			webjson.Conflict(w, err.Error())
			return
		}
		webjson.Internal(w, h.Log, "create class", err)
		return
	}
	h.Log.Info("class created", zap.String("name", created.Name))
	webjson.OK(w, http.StatusCreated, toView(created))
}

// HandleDelete handles DELETE /classes/{id}.
//
// Deletion does not cascade: students and collections still pointing at
// the removed class are left in place rather than silently destroyed.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !authz.Require(w, r, accesspolicy.DeleteClass, accesspolicy.Target{}) {
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webjson.Invalid(w, "malformed class id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete class")
	defer cancel()

	n, err := h.Classes.Delete(ctx, id)
	if err != nil {
		webjson.Internal(w, h.Log, "delete class", err)
		return
	}
	if n == 0 {
		webjson.NotFound(w, "class not found")
		return
	}

	h.Log.Info("class deleted", zap.String("class_id", id.Hex()))
	webjson.OK(w, http.StatusOK, map[string]string{"deleted": id.Hex()})
}

// HandlePasswords handles PUT /classes/{id}/passwords.
//
// Body: { "role": "teacher"|"rep", "action": "update"|"revoke", "password": "..." }.
// An update installs the new password with a fresh six-month expiry and
// clears any revocation; a revoke disables logins until the next update.
func (h *Handler) HandlePasswords(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webjson.Invalid(w, "malformed class id")
		return
	}

	var req struct {
		Role     string `json:"role"`
		Action   string `json:"action"`
		Password string `json:"password"`
	}
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Invalid(w, "malformed request body")
		return
	}
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))

	var act accesspolicy.Action
	switch req.Role {
	case models.RoleTeacher:
		act = accesspolicy.ResetTeacherCredential
	case models.RoleRep:
		act = accesspolicy.ResetRepCredential
	default:
		webjson.Invalid(w, "role must be teacher or rep")
		return
	}
	if !authz.Require(w, r, act, accesspolicy.Target{ClassID: id.Hex()}) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update class passwords")
	defer cancel()

	switch req.Action {
	case "update":
		if req.Password == "" {
			webjson.Invalid(w, "password is required for an update")
			return
		}
		if _, err := h.Classes.RefreshSlot(ctx, id, req.Role, req.Password); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				webjson.NotFound(w, "class not found")
				return
			}
			webjson.Internal(w, h.Log, "refresh credential slot", err)
			return
		}
	case "revoke":
		if err := h.Classes.RevokeSlot(ctx, id, req.Role); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				webjson.NotFound(w, "class not found")
				return
			}
			webjson.Internal(w, h.Log, "revoke credential slot", err)
			return
		}
	default:
		webjson.Invalid(w, "action must be update or revoke")
		return
	}

	class, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		webjson.Internal(w, h.Log, "reload class", err)
		return
	}
	h.Log.Info("credential slot changed",
		zap.String("class", class.Name),
		zap.String("role", req.Role),
		zap.String("action", req.Action))
	webjson.OK(w, http.StatusOK, toView(class))
}
