// internal/app/features/collections/handler.go
package collections

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/classtally/classtally/internal/app/policy/accesspolicy"
	collectionstore "github.com/classtally/classtally/internal/app/store/collections"
	studentstore "github.com/classtally/classtally/internal/app/store/students"
	"github.com/classtally/classtally/internal/app/system/auth"
	"github.com/classtally/classtally/internal/app/system/authz"
	"github.com/classtally/classtally/internal/app/system/timeouts"
	"github.com/classtally/classtally/internal/app/system/webjson"
	"github.com/classtally/classtally/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Bulk action names accepted by HandleBulk.
const (
	BulkMarkAllNA         = "MARK_ALL_NA"
	BulkMarkAllApplicable = "MARK_ALL_APPLICABLE"
)

type Handler struct {
	Log         *zap.Logger
	Collections *collectionstore.Store
	Students    *studentstore.Store
}

func NewHandler(log *zap.Logger, collections *collectionstore.Store, students *studentstore.Store) *Handler {
	return &Handler{Log: log, Collections: collections, Students: students}
}

type collectionView struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Amount        float64   `json:"amount"`
	Date          time.Time `json:"date"`
	ClassID       string    `json:"classId,omitempty"`
	General       bool      `json:"general"`
	CreatedByRole string    `json:"createdByRole"`
}

func toView(fc models.FeeCollection) collectionView {
	v := collectionView{
		ID:            fc.ID.Hex(),
		Title:         fc.Title,
		Amount:        fc.Amount,
		Date:          fc.Date,
		General:       fc.IsGeneral(),
		CreatedByRole: fc.CreatedByRole,
	}
	if fc.ClassID != nil {
		v.ClassID = fc.ClassID.Hex()
	}
	return v
}

// HandleList handles GET /collections?classId=…
//
// Reads are open. With a class filter the result is the class's own
// collections plus the general ones; teachers and reps are pinned to
// their own class.
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list collections")
	defer cancel()

	collections, err := h.Collections.ListForClass(ctx, classID)
	if err != nil {
		webjson.Internal(w, h.Log, "list collections", err)
		return
	}
	out := make([]collectionView, 0, len(collections))
	for _, fc := range collections {
		out = append(out, toView(fc))
	}
	webjson.OK(w, http.StatusOK, out)
}

// HandleCreate handles POST /collections. An empty classId creates a
// general collection, which only the HOD may do.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string  `json:"title"`
		Amount  float64 `json:"amount"`
		Date    string  `json:"date"`
		ClassID string  `json:"classId"`
	}
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Invalid(w, "malformed request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		webjson.Invalid(w, "title is required")
		return
	}
	if req.Amount <= 0 {
		webjson.Invalid(w, "amount must be a positive number")
		return
	}

	var date time.Time
	if req.Date != "" {
		var err error
		date, err = time.Parse(time.RFC3339, req.Date)
		if err != nil {
			webjson.Invalid(w, "date must be RFC 3339")
			return
		}
	}

	tgt := accesspolicy.Target{General: true}
	var classID *primitive.ObjectID
	if strings.TrimSpace(req.ClassID) != "" {
		oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ClassID))
		if err != nil {
			webjson.Invalid(w, "malformed classId")
			return
		}
		classID = &oid
		tgt = accesspolicy.Target{ClassID: oid.Hex()}
	}
	if !authz.Require(w, r, accesspolicy.CreateCollection, tgt) {
		return
	}

	user, _ := auth.CurrentUser(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create collection")
	defer cancel()

	created, err := h.Collections.Create(ctx, models.FeeCollection{
		Title:         req.Title,
		Amount:        req.Amount,
		Date:          date,
		ClassID:       classID,
		CreatedByRole: strings.ToLower(user.Role),
		CreatedByID:   user.ClassID,
	})
	if err != nil {
		webjson.Internal(w, h.Log, "create collection", err)
		return
	}
	h.Log.Info("collection created",
		zap.String("title", created.Title),
		zap.Bool("general", created.IsGeneral()),
		zap.String("created_by_role", created.CreatedByRole))
	webjson.OK(w, http.StatusCreated, toView(created))
}

// load resolves the {id} collection and checks act against its class and
// creator role. Writes the error response and returns ok=false on failure.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, act accesspolicy.Action) (models.FeeCollection, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webjson.Invalid(w, "malformed collection id")
		return models.FeeCollection{}, false
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "load collection")
	defer cancel()

	fc, err := h.Collections.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.NotFound(w, "collection not found")
			return models.FeeCollection{}, false
		}
		webjson.Internal(w, h.Log, "load collection", err)
		return models.FeeCollection{}, false
	}

	tgt := accesspolicy.Target{General: fc.IsGeneral(), CreatedByRole: fc.CreatedByRole}
	if fc.ClassID != nil {
		tgt.ClassID = fc.ClassID.Hex()
	}
	if !authz.Require(w, r, act, tgt) {
		return models.FeeCollection{}, false
	}
	return fc, true
}

// HandleUpdate handles PUT /collections/{id}. Title, amount, and date
// only; the owning class and creator role are immutable.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	fc, ok := h.load(w, r, accesspolicy.EditCollection)
	if !ok {
		return
	}

	var req struct {
		Title  string  `json:"title"`
		Amount float64 `json:"amount"`
		Date   string  `json:"date"`
	}
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Invalid(w, "malformed request body")
		return
	}
	if req.Amount < 0 {
		webjson.Invalid(w, "amount must be a positive number")
		return
	}
	var date time.Time
	if req.Date != "" {
		var err error
		date, err = time.Parse(time.RFC3339, req.Date)
		if err != nil {
			webjson.Invalid(w, "date must be RFC 3339")
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update collection")
	defer cancel()

	if err := h.Collections.UpdateInfo(ctx, fc.ID, req.Title, req.Amount, date); err != nil {
		webjson.Internal(w, h.Log, "update collection", err)
		return
	}
	updated, err := h.Collections.GetByID(ctx, fc.ID)
	if err != nil {
		webjson.Internal(w, h.Log, "reload collection", err)
		return
	}
	webjson.OK(w, http.StatusOK, toView(updated))
}

// HandleDelete handles DELETE /collections/{id}. Per-student status
// entries keyed by the deleted collection stay behind as inert map
// entries; they are invisible once the collection is gone.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	fc, ok := h.load(w, r, accesspolicy.DeleteCollection)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete collection")
	defer cancel()

	if _, err := h.Collections.Delete(ctx, fc.ID); err != nil {
		webjson.Internal(w, h.Log, "delete collection", err)
		return
	}
	h.Log.Info("collection deleted",
		zap.String("collection_id", fc.ID.Hex()),
		zap.String("title", fc.Title))
	webjson.OK(w, http.StatusOK, map[string]bool{"deleted": true})
}

// HandleBulk handles PUT /collections/bulk.
//
// Body: { "collectionId": "...", "action": "MARK_ALL_NA"|"MARK_ALL_APPLICABLE" }.
// MARK_ALL_NA flags every student in the collection's scope that has not
// paid; students already paid (legacy boolean true included) are left
// alone. MARK_ALL_APPLICABLE clears the flag unconditionally. Both are
// best-effort sweeps, not transactions: the response carries how many
// students actually changed.
func (h *Handler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CollectionID string `json:"collectionId"`
		Action       string `json:"action"`
	}
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Invalid(w, "malformed request body")
		return
	}
	if req.Action != BulkMarkAllNA && req.Action != BulkMarkAllApplicable {
		webjson.Invalid(w, "action must be MARK_ALL_NA or MARK_ALL_APPLICABLE")
		return
	}
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.CollectionID))
	if err != nil {
		webjson.Invalid(w, "malformed collectionId")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "bulk status change")
	defer cancel()

	fc, err := h.Collections.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.NotFound(w, "collection not found")
			return
		}
		webjson.Internal(w, h.Log, "load collection", err)
		return
	}

	// Bulk changes rewrite student statuses, so they are authorized like
	// student edits against the collection's class. General collections
	// span every class and stay HOD-only.
	tgt := accesspolicy.Target{General: fc.IsGeneral()}
	if fc.ClassID != nil {
		tgt.ClassID = fc.ClassID.Hex()
	}
	if !authz.Require(w, r, accesspolicy.EditStudent, tgt) {
		return
	}

	var modified int64
	switch req.Action {
	case BulkMarkAllNA:
		modified, err = h.Students.BulkMarkNA(ctx, fc.ClassID, fc.ID.Hex())
	case BulkMarkAllApplicable:
		modified, err = h.Students.BulkMarkApplicable(ctx, fc.ClassID, fc.ID.Hex())
	}
	if err != nil {
		webjson.Internal(w, h.Log, "bulk status change", err)
		return
	}

	h.Log.Info("bulk status change",
		zap.String("collection_id", fc.ID.Hex()),
		zap.String("action", req.Action),
		zap.Int64("modified", modified))
	webjson.OK(w, http.StatusOK, map[string]int64{"modified": modified})
}
