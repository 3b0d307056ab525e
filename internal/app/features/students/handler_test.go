package students_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/classtally/classtally/internal/app/features/students"
	studentstore "github.com/classtally/classtally/internal/app/store/students"
	"github.com/classtally/classtally/internal/app/system/paystatus"
	"github.com/classtally/classtally/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*students.Handler, *studentstore.Store, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ss := studentstore.New(db)
	return students.NewHandler(zap.NewNop(), ss), ss, testutil.NewFixtures(t, db)
}

func parseViews(t *testing.T, rec *httptest.ResponseRecorder) []struct {
	ID             string            `json:"id"`
	RegisterNumber string            `json:"registerNumber"`
	Payments       map[string]string `json:"payments"`
	NotApplicable  map[string]bool   `json:"notApplicable"`
} {
	t.Helper()
	var views []struct {
		ID             string            `json:"id"`
		RegisterNumber string            `json:"registerNumber"`
		Payments       map[string]string `json:"payments"`
		NotApplicable  map[string]bool   `json:"notApplicable"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("failed to parse list: %v", err)
	}
	return views
}

func TestHandleList_AnonymousOpenRead(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	class := fixtures.CreateClass(ctx, "CS-A")
	fixtures.CreateStudent(ctx, class.ID, "A", "21CS001")

	rec := httptest.NewRecorder()
	h.HandleList(rec, httptest.NewRequest("GET", "/students", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if views := parseViews(t, rec); len(views) != 1 {
		t.Errorf("expected 1 student, got %d", len(views))
	}
}

func TestHandleList_TeacherPinnedToOwnClass(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	classA := fixtures.CreateClass(ctx, "CS-A")
	classB := fixtures.CreateClass(ctx, "CS-B")
	fixtures.CreateStudent(ctx, classA.ID, "A", "21CS001")
	fixtures.CreateStudent(ctx, classB.ID, "B", "21CS001")

	// The teacher of A asks for B's roster and gets A's anyway.
	rec := httptest.NewRecorder()
	req := testutil.AsTeacher(httptest.NewRequest("GET", "/students?classId="+classB.ID.Hex(), nil), classA.ID)
	h.HandleList(rec, req)

	views := parseViews(t, rec)
	if len(views) != 1 {
		t.Fatalf("expected 1 student, got %d", len(views))
	}
	if views[0].RegisterNumber != "21CS001" {
		t.Errorf("got %+v", views[0])
	}
}

func TestHandleList_NormalizesLegacyBooleans(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	class := fixtures.CreateClass(ctx, "CS-A")
	collID := primitive.NewObjectID().Hex()
	fixtures.CreateStudentWithPayments(ctx, class.ID, "Legacy", "21CS001",
		map[string]interface{}{collID: true}, nil)

	rec := httptest.NewRecorder()
	h.HandleList(rec, httptest.NewRequest("GET", "/students", nil))

	views := parseViews(t, rec)
	if len(views) != 1 {
		t.Fatalf("expected 1 student, got %d", len(views))
	}
	if views[0].Payments[collID] != "PAID" {
		t.Errorf("legacy boolean must read as PAID, got %q", views[0].Payments[collID])
	}
}

func TestHandleCreate(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	class := fixtures.CreateClass(ctx, "CS-A")

	rec := httptest.NewRecorder()
	req := testutil.AsTeacher(httptest.NewRequest("POST", "/students",
		strings.NewReader(`{"name":"Asha","registerNumber":"21CS001","classId":"`+class.ID.Hex()+`"}`)), class.ID)
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestHandleCreate_CrossClassForbidden(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	classA := fixtures.CreateClass(ctx, "CS-A")
	classB := fixtures.CreateClass(ctx, "CS-B")

	rec := httptest.NewRecorder()
	req := testutil.AsTeacher(httptest.NewRequest("POST", "/students",
		strings.NewReader(`{"name":"Asha","registerNumber":"21CS001","classId":"`+classB.ID.Hex()+`"}`)), classA.ID)
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
}

func TestHandleStatus_RoundTrip(t *testing.T) {
	h, ss, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	class := fixtures.CreateClass(ctx, "CS-A")
	st := fixtures.CreateStudent(ctx, class.ID, "A", "21CS001")
	collID := primitive.NewObjectID().Hex()

	patch := func(status string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		body := `{"studentId":"` + st.ID.Hex() + `","collectionId":"` + collID + `","status":"` + status + `"}`
		req := testutil.AsRep(httptest.NewRequest("PATCH", "/students/status", strings.NewReader(body)), class.ID)
		h.HandleStatus(rec, req)
		return rec
	}

	if rec := patch("PAID"); rec.Code != http.StatusOK {
		t.Fatalf("PAID: got %d, body %s", rec.Code, rec.Body.String())
	}
	if rec := patch("NA"); rec.Code != http.StatusOK {
		t.Fatalf("NA: got %d", rec.Code)
	}

	got, err := ss.GetByID(ctx, st.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if paystatus.Effective(got.Payments, got.NotApplicable, collID) != paystatus.NA {
		t.Error("expected NA after flagging")
	}
	if got.Payments[collID] != "PAID" {
		t.Error("payment entry must survive the NA flag")
	}

	if rec := patch("APPLICABLE"); rec.Code != http.StatusOK {
		t.Fatalf("APPLICABLE: got %d", rec.Code)
	}
	got, _ = ss.GetByID(ctx, st.ID)
	if paystatus.Effective(got.Payments, got.NotApplicable, collID) != paystatus.Paid {
		t.Error("expected PAID restored after clearing NA")
	}
}

func TestHandleStatus_BadStatusValue(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	class := fixtures.CreateClass(ctx, "CS-A")
	st := fixtures.CreateStudent(ctx, class.ID, "A", "21CS001")

	rec := httptest.NewRecorder()
	body := `{"studentId":"` + st.ID.Hex() + `","collectionId":"` + primitive.NewObjectID().Hex() + `","status":"MAYBE"}`
	req := testutil.AsTeacher(httptest.NewRequest("PATCH", "/students/status", strings.NewReader(body)), class.ID)
	h.HandleStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestHandleStatus_CrossClassForbidden(t *testing.T) {
	h, _, fixtures := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	classA := fixtures.CreateClass(ctx, "CS-A")
	classB := fixtures.CreateClass(ctx, "CS-B")
	st := fixtures.CreateStudent(ctx, classB.ID, "B", "21CS001")

	rec := httptest.NewRecorder()
	body := `{"studentId":"` + st.ID.Hex() + `","collectionId":"` + primitive.NewObjectID().Hex() + `","status":"PAID"}`
	req := testutil.AsRep(httptest.NewRequest("PATCH", "/students/status", strings.NewReader(body)), classA.ID)
	h.HandleStatus(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
}

func TestHandleDelete_UnknownStudent(t *testing.T) {
	h, _, _ := newHandler(t)

	rec := httptest.NewRecorder()
	req := testutil.AsHOD(httptest.NewRequest("DELETE", "/students/x", nil))
	req = testutil.WithChiURLParam(req, "id", primitive.NewObjectID().Hex())
	h.HandleDelete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}
