// internal/app/features/export/handler.go
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	collectionstore "github.com/classtally/classtally/internal/app/store/collections"
	studentstore "github.com/classtally/classtally/internal/app/store/students"
	"github.com/classtally/classtally/internal/app/system/paystatus"
	"github.com/classtally/classtally/internal/app/system/timeouts"
	"github.com/classtally/classtally/internal/app/system/webjson"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Log         *zap.Logger
	Collections *collectionstore.Store
	Students    *studentstore.Store
}

func NewHandler(log *zap.Logger, collections *collectionstore.Store, students *studentstore.Store) *Handler {
	return &Handler{Log: log, Collections: collections, Students: students}
}

// ServeCollectionCSV handles GET /export/collections/{id}.csv.
//
// One row per student in the collection's scope with the derived status
// (PAID, PENDING, or NA). Like the list endpoints this is an open read.
func (h *Handler) ServeCollectionCSV(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		webjson.Invalid(w, "malformed collection id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "collection export")
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

	// Class collections export their class roster; general ones export
	// every student.
	students, err := h.Students.List(ctx, fc.ClassID)
	if err != nil {
		webjson.Internal(w, h.Log, "list students for export", err)
		return
	}

	filename := fmt.Sprintf("%s.csv", fc.Title)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename)))

	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	defer cw.Flush()

	if err := cw.Write([]string{"register_number", "name", "status", "amount"}); err != nil {
		h.Log.Error("CSV write failed (header)", zap.Error(err))
		return
	}

	collID := fc.ID.Hex()
	for _, st := range students {
		status := paystatus.Effective(st.Payments, st.NotApplicable, collID)
		if err := cw.Write([]string{
			sanitizeCSVField(st.RegisterNumber),
			sanitizeCSVField(st.Name),
			string(status),
			fmt.Sprintf("%.2f", fc.Amount),
		}); err != nil {
			h.Log.Error("CSV write failed (row)", zap.Error(err))
			return
		}
	}

	h.Log.Info("collection CSV exported",
		zap.String("collection_id", collID),
		zap.Int("rows", len(students)))
}

// sanitizeCSVField guards against spreadsheet formula injection.
func sanitizeCSVField(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}
