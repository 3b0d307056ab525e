// internal/app/features/students/handler.go
package students

import (
	"errors"
	"net/http"
	"strings"

	"github.com/classtally/classtally/internal/app/policy/accesspolicy"
	studentstore "github.com/classtally/classtally/internal/app/store/students"
	"github.com/classtally/classtally/internal/app/system/authz"
	"github.com/classtally/classtally/internal/app/system/paystatus"
	"github.com/classtally/classtally/internal/app/system/timeouts"
	"github.com/classtally/classtally/internal/app/system/webjson"
	"github.com/classtally/classtally/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Log      *zap.Logger
	Students *studentstore.Store
}

func NewHandler(log *zap.Logger, students *studentstore.Store) *Handler {
	return &Handler{Log: log, Students: students}
}

// studentView is the wire shape of a student. Payments are normalized to
// status strings so clients never see the legacy boolean encoding.
type studentView struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	RegisterNumber string            `json:"registerNumber"`
	ClassID        string            `json:"classId,omitempty"`
	Payments       map[string]string `json:"payments"`
	NotApplicable  map[string]bool   `json:"notApplicable"`
}

func toView(st models.Student) studentView {
	v := studentView{
		ID:             st.ID.Hex(),
		Name:           st.Name,
		RegisterNumber: st.RegisterNumber,
		Payments:       make(map[string]string, len(st.Payments)),
		NotApplicable:  st.NotApplicable,
	}
	if st.ClassID != nil {
		v.ClassID = st.ClassID.Hex()
	}
	if v.NotApplicable == nil {
		v.NotApplicable = map[string]bool{}
	}
	for cid, raw := range st.Payments {
		if paystatus.Normalize(raw) == paystatus.Paid {
			v.Payments[cid] = string(paystatus.Paid)
		}
	}
	return v
}

// HandleList handles GET /students?classId=…
//
// Reads are open. Teachers and reps are pinned to their own class no
// matter what classId they ask for; the HOD and anonymous callers get
// the requested filter (or everything).
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	requested := query.Get(r, "classId")
	effective := accesspolicy.ForcedClassFilter(authz.PolicySession(r), requested)

	var classID *primitive.ObjectID
	if effective != "" {
		oid, err := primitive.ObjectIDFromHex(effective)
		if err != nil {
			webjson.Invalid(w, "malformed classId")
			return
		}
		classID = &oid
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list students")
	defer cancel()

	students, err := h.Students.List(ctx, classID)
	if err != nil {
		webjson.Internal(w, h.Log, "list students", err)
		return
	}
	out := make([]studentView, 0, len(students))
	for _, st := range students {
		out = append(out, toView(st))
	}
	webjson.OK(w, http.StatusOK, out)
}

// HandleCreate handles POST /students.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"name"`
		RegisterNumber string `json:"registerNumber"`
		ClassID        string `json:"classId"`
	}
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Invalid(w, "malformed request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.RegisterNumber) == "" {
		webjson.Invalid(w, "name and registerNumber are required")
		return
	}
	classID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ClassID))
	if err != nil {
		webjson.Invalid(w, "classId is required")
		return
	}
	if !authz.Require(w, r, accesspolicy.CreateStudent, accesspolicy.Target{ClassID: classID.Hex()}) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create student")
	defer cancel()

	created, err := h.Students.Create(ctx, models.Student{
		Name:           req.Name,
		RegisterNumber: req.RegisterNumber,
		ClassID:        &classID,
	})
	if err != nil {
		if errors.Is(err, studentstore.ErrDuplicateRegisterNumber) {
			webjson.Conflict(w, err.Error())
			return
		}
		webjson.Internal(w, h.Log, "create student", err)
		return
	}
	webjson.OK(w, http.StatusCreated, toView(created))
}

// load resolves the {id} student and checks act against its class.
// Writes the error response and returns ok=false on any failure.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, act accesspolicy.Action) (models.Student, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webjson.Invalid(w, "malformed student id")
		return models.Student{}, false
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load student")
	defer cancel()

	st, err := h.Students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.NotFound(w, "student not found")
			return models.Student{}, false
		}
		webjson.Internal(w, h.Log, "load student", err)
		return models.Student{}, false
	}

	tgt := accesspolicy.Target{}
	if st.ClassID != nil {
		tgt.ClassID = st.ClassID.Hex()
	}
	if !authz.Require(w, r, act, tgt) {
		return models.Student{}, false
	}
	return st, true
}

// HandleUpdate handles PUT /students/{id}. Identity fields only; payment
// state is changed through the status endpoint.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	st, ok := h.load(w, r, accesspolicy.EditStudent)
	if !ok {
		return
	}

	var req struct {
		Name           string `json:"name"`
		RegisterNumber string `json:"registerNumber"`
	}
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Invalid(w, "malformed request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update student")
	defer cancel()

	if err := h.Students.UpdateInfo(ctx, st.ID, req.Name, req.RegisterNumber, nil); err != nil {
		if errors.Is(err, studentstore.ErrDuplicateRegisterNumber) {
			webjson.Conflict(w, err.Error())
			return
		}
		webjson.Internal(w, h.Log, "update student", err)
		return
	}

	updated, err := h.Students.GetByID(ctx, st.ID)
	if err != nil {
		webjson.Internal(w, h.Log, "reload student", err)
		return
	}
	webjson.OK(w, http.StatusOK, toView(updated))
}

// HandleDelete handles DELETE /students/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	st, ok := h.load(w, r, accesspolicy.DeleteStudent)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete student")
	defer cancel()

	if _, err := h.Students.Delete(ctx, st.ID); err != nil {
		webjson.Internal(w, h.Log, "delete student", err)
		return
	}
	h.Log.Info("student deleted",
		zap.String("student_id", st.ID.Hex()),
		zap.String("register_number", st.RegisterNumber))
	webjson.OK(w, http.StatusOK, map[string]bool{"deleted": true})
}

// HandleStatus handles PATCH /students/status.
//
// Body: { "studentId": "...", "collectionId": "...", "status": "PAID"|"NA"|"APPLICABLE"|"" }.
// An empty or omitted status reverts the collection to pending. Every
// transition touches a single map key, so repeated requests are
// idempotent and concurrent changes for other collections are safe.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StudentID    string `json:"studentId"`
		CollectionID string `json:"collectionId"`
		Status       string `json:"status"`
	}
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Invalid(w, "malformed request body")
		return
	}

	studentID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.StudentID))
	if err != nil {
		webjson.Invalid(w, "malformed studentId")
		return
	}
	collectionID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.CollectionID))
	if err != nil {
		webjson.Invalid(w, "malformed collectionId")
		return
	}
	change, err := paystatus.ParseChange(req.Status)
	if err != nil {
		webjson.Invalid(w, err.Error())
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "student status change")
	defer cancel()

	st, err := h.Students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.NotFound(w, "student not found")
			return
		}
		webjson.Internal(w, h.Log, "load student", err)
		return
	}
	tgt := accesspolicy.Target{}
	if st.ClassID != nil {
		tgt.ClassID = st.ClassID.Hex()
	}
	if !authz.Require(w, r, accesspolicy.EditStudent, tgt) {
		return
	}

	if err := h.Students.ApplyStatus(ctx, studentID, collectionID.Hex(), change); err != nil {
		webjson.Internal(w, h.Log, "apply status", err)
		return
	}

	updated, err := h.Students.GetByID(ctx, studentID)
	if err != nil {
		webjson.Internal(w, h.Log, "reload student", err)
		return
	}
	webjson.OK(w, http.StatusOK, toView(updated))
}
