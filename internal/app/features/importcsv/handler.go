// internal/app/features/importcsv/handler.go
package importcsv

import (
	"errors"
	"net/http"
	"strings"

	"github.com/classtally/classtally/internal/app/features/importcsv/csvutil"
	"github.com/classtally/classtally/internal/app/policy/accesspolicy"
	studentstore "github.com/classtally/classtally/internal/app/store/students"
	"github.com/classtally/classtally/internal/app/system/authz"
	"github.com/classtally/classtally/internal/app/system/timeouts"
	"github.com/classtally/classtally/internal/app/system/webjson"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Log      *zap.Logger
	Students *studentstore.Store
}

func NewHandler(log *zap.Logger, students *studentstore.Store) *Handler {
	return &Handler{Log: log, Students: students}
}

type importRow struct {
	Name           string `json:"name"`
	RegisterNumber string `json:"registerNumber"`
}

type importResult struct {
	BatchID string             `json:"batchId"`
	Created int                `json:"created"`
	Updated int                `json:"updated"`
	Failed  int                `json:"failed"`
	Errors  []csvutil.RowError `json:"errors,omitempty"`
}

// HandleImport handles POST /import/students.
//
// Two request shapes are accepted:
//   - multipart/form-data with a "file" CSV upload and a "classId" field
//   - application/json: { "classId": "...", "students": [{name, registerNumber}, ...] }
//
// Rows are matched by (registerNumber, classId): an existing student is
// updated in place, a new one is inserted. A bad row (missing fields) is
// recorded and skipped without aborting the rest, so an import can
// succeed partially. The response reports counts and per-row failures.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var (
		classHex  string
		rows      []importRow
		rowLines  []int
		parseErrs []csvutil.RowError
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
		file, _, err := r.FormFile("file")
		if err != nil {
			webjson.Invalid(w, "a csv file upload is required")
			return
		}
		defer file.Close()
		classHex = r.FormValue("classId")

		parsed, err := csvutil.ParseStudentsCSV(file, csvutil.DefaultParseOptions())
		if err != nil {
			if errors.Is(err, csvutil.ErrTooManyRows) {
				webjson.Invalid(w, err.Error())
				return
			}
			webjson.Invalid(w, "could not parse csv: "+err.Error())
			return
		}
		for i, st := range parsed.Students {
			rows = append(rows, importRow{Name: st.Name, RegisterNumber: st.RegisterNumber})
			rowLines = append(rowLines, i+1)
		}
		parseErrs = parsed.Errors
	} else {
		var req struct {
			ClassID  string      `json:"classId"`
			Students []importRow `json:"students"`
		}
		if err := webjson.Decode(r, &req); err != nil {
			webjson.Invalid(w, "malformed request body")
			return
		}
		classHex = req.ClassID
		rows = req.Students
		for i := range rows {
			rowLines = append(rowLines, i+1)
		}
	}

	classID, err := primitive.ObjectIDFromHex(strings.TrimSpace(classHex))
	if err != nil {
		webjson.Invalid(w, "classId is required")
		return
	}
	if !authz.Require(w, r, accesspolicy.CreateStudent, accesspolicy.Target{ClassID: classID.Hex()}) {
		return
	}
	if len(rows) == 0 && len(parseErrs) == 0 {
		webjson.Invalid(w, "no rows to import")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "student import")
	defer cancel()

	result := importResult{
		BatchID: uuid.NewString(),
		Errors:  parseErrs,
		Failed:  len(parseErrs),
	}

	for i, row := range rows {
		row.Name = strings.TrimSpace(row.Name)
		row.RegisterNumber = strings.TrimSpace(row.RegisterNumber)
		if row.Name == "" || row.RegisterNumber == "" {
			result.Failed++
			result.Errors = append(result.Errors, csvutil.RowError{
				Line:   rowLines[i],
				Reason: "name and registerNumber are required",
			})
			continue
		}

		created, err := h.Students.Upsert(ctx, classID, row.Name, row.RegisterNumber)
		if err != nil {
			result.Failed++
			reason := "could not import row"
			if errors.Is(err, studentstore.ErrDuplicateRegisterNumber) {
				reason = err.Error()
			} else {
				h.Log.Error("import row failed",
					zap.String("batch_id", result.BatchID),
					zap.String("register_number", row.RegisterNumber),
					zap.Error(err))
			}
			result.Errors = append(result.Errors, csvutil.RowError{
				Line:   rowLines[i],
				Reason: reason,
			})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	h.Log.Info("student import finished",
		zap.String("batch_id", result.BatchID),
		zap.String("class_id", classID.Hex()),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed))

	status := http.StatusOK
	if result.Created == 0 && result.Updated == 0 && result.Failed > 0 {
		status = http.StatusBadRequest
	}
	webjson.OK(w, status, result)
}
