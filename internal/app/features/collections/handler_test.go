package collections_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/classtally/classtally/internal/app/features/collections"
	collectionstore "github.com/classtally/classtally/internal/app/store/collections"
	studentstore "github.com/classtally/classtally/internal/app/store/students"
	"github.com/classtally/classtally/internal/app/system/paystatus"
	"github.com/classtally/classtally/internal/domain/models"
	"github.com/classtally/classtally/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*collections.Handler, *studentstore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ss := studentstore.New(db)
	h := collections.NewHandler(zap.NewNop(), collectionstore.New(db), ss)
	return h, ss, testutil.NewFixtures(t, db)
}

func TestHandleList_ClassPlusGeneral(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	classA := fixtures.CreateClass(ctx, "CS-A")
	classB := fixtures.CreateClass(ctx, "CS-B")
	fixtures.CreateFeeCollection(ctx, classA.ID, "Lab Fee", 250, models.RoleTeacher)
	fixtures.CreateFeeCollection(ctx, classB.ID, "Other Fee", 100, models.RoleTeacher)
	fixtures.CreateGeneralCollection(ctx, "Sports Day", 50)

	rec := httptest.NewRecorder()
	h.HandleList(rec, httptest.NewRequest("GET", "/collections?classId="+classA.ID.Hex(), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var views []struct {
		Title   string `json:"title"`
		General bool   `json:"general"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("failed to parse list: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected own + general, got %d", len(views))
	}
	for _, v := range views {
		if v.Title == "Other Fee" {
			t.Error("another class's collection leaked")
		}
	}
}

func TestHandleCreate_GeneralHODOnly(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	class := fixtures.CreateClass(ctx, "CS-A")

	body := `{"title":"Sports Day","amount":50}`

	rec := httptest.NewRecorder()
	req := testutil.AsTeacher(httptest.NewRequest("POST", "/collections", strings.NewReader(body)), class.ID)
	h.HandleCreate(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("teacher creating general: got %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleCreate(rec, testutil.AsHOD(httptest.NewRequest("POST", "/collections", strings.NewReader(body))))
	if rec.Code != http.StatusCreated {
		t.Fatalf("hod creating general: got %d, body %s", rec.Code, rec.Body.String())
	}
	var view struct {
		General       bool   `json:"general"`
		CreatedByRole string `json:"createdByRole"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &view)
	if !view.General || view.CreatedByRole != "hod" {
		t.Errorf("got %+v", view)
	}
}

func TestHandleCreate_RepStampsRole(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	class := fixtures.CreateClass(ctx, "CS-A")

	rec := httptest.NewRecorder()
	body := `{"title":"Tour Fee","amount":900,"classId":"` + class.ID.Hex() + `"}`
	req := testutil.AsRep(httptest.NewRequest("POST", "/collections", strings.NewReader(body)), class.ID)
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	var view struct {
		CreatedByRole string `json:"createdByRole"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &view)
	if view.CreatedByRole != "rep" {
		t.Errorf("createdByRole: got %q, want rep", view.CreatedByRole)
	}
}

func TestHandleDelete_RepRights(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	class := fixtures.CreateClass(ctx, "CS-A")
	repMade := fixtures.CreateFeeCollection(ctx, class.ID, "Rep Fee", 100, models.RoleRep)
	teacherMade := fixtures.CreateFeeCollection(ctx, class.ID, "Teacher Fee", 100, models.RoleTeacher)

	// A rep cannot delete the teacher's collection.
	rec := httptest.NewRecorder()
	req := testutil.AsRep(httptest.NewRequest("DELETE", "/x", nil), class.ID)
	req = testutil.WithChiURLParam(req, "id", teacherMade.ID.Hex())
	h.HandleDelete(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("rep deleting teacher-made: got %d, want 403", rec.Code)
	}

	// But can delete a rep-created one.
	rec = httptest.NewRecorder()
	req = testutil.AsRep(httptest.NewRequest("DELETE", "/x", nil), class.ID)
	req = testutil.WithChiURLParam(req, "id", repMade.ID.Hex())
	h.HandleDelete(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("rep deleting rep-made: got %d, want 200", rec.Code)
	}
}

func TestHandleBulk_MarkAllNA(t *testing.T) {
	h, ss, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	class := fixtures.CreateClass(ctx, "CS-A")
	fc := fixtures.CreateFeeCollection(ctx, class.ID, "Lab Fee", 250, models.RoleTeacher)

	pending := fixtures.CreateStudent(ctx, class.ID, "Pending", "21CS001")
	paid := fixtures.CreateStudentWithPayments(ctx, class.ID, "Paid", "21CS002",
		map[string]interface{}{fc.ID.Hex(): "PAID"}, nil)

	rec := httptest.NewRecorder()
	body := `{"collectionId":"` + fc.ID.Hex() + `","action":"MARK_ALL_NA"}`
	req := testutil.AsTeacher(httptest.NewRequest("PUT", "/collections/bulk", strings.NewReader(body)), class.ID)
	h.HandleBulk(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Modified int64 `json:"modified"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Modified != 1 {
		t.Errorf("modified: got %d, want 1", resp.Modified)
	}

	got, _ := ss.GetByID(ctx, pending.ID)
	if paystatus.Effective(got.Payments, got.NotApplicable, fc.ID.Hex()) != paystatus.NA {
		t.Error("pending student should be NA")
	}
	got, _ = ss.GetByID(ctx, paid.ID)
	if paystatus.Effective(got.Payments, got.NotApplicable, fc.ID.Hex()) != paystatus.Paid {
		t.Error("paid student must be skipped")
	}
}

func TestHandleBulk_GeneralCollectionHODOnly(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	class := fixtures.CreateClass(ctx, "CS-A")
	general := fixtures.CreateGeneralCollection(ctx, "Sports Day", 50)
	fixtures.CreateStudent(ctx, class.ID, "A", "21CS001")

	body := `{"collectionId":"` + general.ID.Hex() + `","action":"MARK_ALL_NA"}`

	rec := httptest.NewRecorder()
	req := testutil.AsTeacher(httptest.NewRequest("PUT", "/collections/bulk", strings.NewReader(body)), class.ID)
	h.HandleBulk(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("teacher bulk on general: got %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleBulk(rec, testutil.AsHOD(httptest.NewRequest("PUT", "/collections/bulk", strings.NewReader(body))))
	if rec.Code != http.StatusOK {
		t.Errorf("hod bulk on general: got %d, want 200", rec.Code)
	}
}

func TestHandleBulk_UnknownAction(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	class := fixtures.CreateClass(ctx, "CS-A")
	fc := fixtures.CreateFeeCollection(ctx, class.ID, "Lab Fee", 250, models.RoleTeacher)

	rec := httptest.NewRecorder()
	body := `{"collectionId":"` + fc.ID.Hex() + `","action":"MARK_SOME"}`
	req := testutil.AsTeacher(httptest.NewRequest("PUT", "/collections/bulk", strings.NewReader(body)), class.ID)
	h.HandleBulk(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}
