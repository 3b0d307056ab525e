// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"
	"strings"
	"time"

	classstore "github.com/classtally/classtally/internal/app/store/classes"
	"github.com/classtally/classtally/internal/app/system/auth"
	"github.com/classtally/classtally/internal/app/system/credentials"
	"github.com/classtally/classtally/internal/app/system/timeouts"
	"github.com/classtally/classtally/internal/app/system/webjson"
	"github.com/classtally/classtally/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Classes    *classstore.Store

	// HODPassword is the department head's process-wide password from
	// configuration. Empty means HOD login is disabled.
	HODPassword string
}

func NewHandler(log *zap.Logger, sm *auth.SessionManager, classes *classstore.Store, hodPassword string) *Handler {
	return &Handler{Log: log, SessionMgr: sm, Classes: classes, HODPassword: hodPassword}
}

type loginRequest struct {
	Role     string `json:"role"`
	ClassID  string `json:"classId"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Role          string `json:"role,omitempty"`
	ClassID       string `json:"classId,omitempty"`
	Name          string `json:"name,omitempty"`
}

// HandleLogin handles POST /auth/login.
//
// The HOD signs in with the configured department password and no class.
// Teachers and reps sign in against their class credential slot; the
// denial message distinguishes unconfigured, wrong, revoked, and expired
// passwords, but all of them answer 401.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Invalid(w, "malformed login request")
		return
	}
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if !models.ValidRole(req.Role) {
		webjson.Invalid(w, "role must be hod, teacher, or rep")
		return
	}

	if req.Role == models.RoleHOD {
		h.loginHOD(w, r, req)
		return
	}
	h.loginClassRole(w, r, req)
}

func (h *Handler) loginHOD(w http.ResponseWriter, r *http.Request, req loginRequest) {
	if h.HODPassword == "" {
		webjson.Unauthenticated(w, credentials.ErrNotConfigured.Error())
		return
	}
	if req.Password != h.HODPassword {
		webjson.Unauthenticated(w, credentials.ErrInvalid.Error())
		return
	}
	u := &auth.SessionUser{Role: models.RoleHOD, Name: "HOD"}
	if err := h.SessionMgr.SignIn(w, r, u); err != nil {
		webjson.Internal(w, h.Log, "hod sign-in", err)
		return
	}
	h.Log.Info("hod signed in")
	webjson.OK(w, http.StatusOK, sessionResponse{Authenticated: true, Role: u.Role, Name: u.Name})
}

func (h *Handler) loginClassRole(w http.ResponseWriter, r *http.Request, req loginRequest) {
	classID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ClassID))
	if err != nil {
		webjson.Invalid(w, "classId is required for teacher and rep logins")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login class lookup")
	defer cancel()

	class, err := h.Classes.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.NotFound(w, "class not found")
			return
		}
		webjson.Internal(w, h.Log, "login class lookup", err)
		return
	}

	slot, _ := class.SlotFor(req.Role)
	if err := credentials.ValidateSlot(slot, req.Password, time.Now().UTC()); err != nil {
		h.Log.Info("login denied",
			zap.String("role", req.Role),
			zap.String("class", class.Name),
			zap.String("reason", err.Error()))
		webjson.Unauthenticated(w, err.Error())
		return
	}

	u := &auth.SessionUser{Role: req.Role, ClassID: class.ID.Hex(), Name: class.Name}
	if err := h.SessionMgr.SignIn(w, r, u); err != nil {
		webjson.Internal(w, h.Log, "sign-in", err)
		return
	}
	h.Log.Info("signed in",
		zap.String("role", req.Role),
		zap.String("class", class.Name))
	webjson.OK(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		Role:          u.Role,
		ClassID:       u.ClassID,
		Name:          u.Name,
	})
}

// HandleSession handles GET /auth/session: it reports the caller's
// current session, or authenticated:false for anonymous callers.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		webjson.OK(w, http.StatusOK, sessionResponse{})
		return
	}
	webjson.OK(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		Role:          u.Role,
		ClassID:       u.ClassID,
		Name:          u.Name,
	})
}

// HandleLogout handles POST /auth/logout. Signing out without a session
// is a no-op success.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		webjson.Internal(w, h.Log, "sign-out", err)
		return
	}
	webjson.OK(w, http.StatusOK, sessionResponse{})
}

type classOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// HandleClasses handles GET /auth/classes: the public id/name list the
// login screen uses to populate its class picker. No credential fields
// are exposed.
func (h *Handler) HandleClasses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "login class list")
	defer cancel()

	classes, err := h.Classes.List(ctx)
	if err != nil {
		webjson.Internal(w, h.Log, "login class list", err)
		return
	}
	out := make([]classOption, 0, len(classes))
	for _, c := range classes {
		out = append(out, classOption{ID: c.ID.Hex(), Name: c.Name})
	}
	webjson.OK(w, http.StatusOK, out)
}
