package bootstrap

import (
	"testing"
	"time"

	"github.com/classtally/classtally/internal/domain/models"
	"github.com/classtally/classtally/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureDefaultClass_AdoptsLegacyData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	student := models.Student{
		ID:             primitive.NewObjectID(),
		Name:           "Asha Nair",
		RegisterNumber: "21CS001",
		Payments:       map[string]interface{}{},
		NotApplicable:  map[string]bool{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := db.Collection("students").InsertOne(ctx, student); err != nil {
		t.Fatalf("failed to insert legacy student: %v", err)
	}
	fc := models.FeeCollection{
		ID:            primitive.NewObjectID(),
		Title:         "Lab Fee",
		Amount:        250,
		Date:          now,
		CreatedByRole: models.RoleTeacher,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := db.Collection("fee_collections").InsertOne(ctx, fc); err != nil {
		t.Fatalf("failed to insert legacy collection: %v", err)
	}

	deps := DBDeps{MongoDatabase: db}
	if err := ensureDefaultClass(ctx, deps, "hod-secret", testLogger()); err != nil {
		t.Fatalf("ensureDefaultClass failed: %v", err)
	}

	var class models.Class
	if err := db.Collection("classes").FindOne(ctx, bson.M{"name": "Default"}).Decode(&class); err != nil {
		t.Fatalf("default class not created: %v", err)
	}
	if class.TeacherPassword != "hod-secret" {
		t.Errorf("teacher slot not seeded, got %q", class.TeacherPassword)
	}
	if class.TeacherPasswordExpires == nil {
		t.Error("seeded teacher slot has no expiry")
	}

	var migrated models.Student
	if err := db.Collection("students").FindOne(ctx, bson.M{"_id": student.ID}).Decode(&migrated); err != nil {
		t.Fatalf("failed to reload student: %v", err)
	}
	if migrated.ClassID == nil || *migrated.ClassID != class.ID {
		t.Error("expected student to be adopted into the default class")
	}

	var migratedFC models.FeeCollection
	if err := db.Collection("fee_collections").FindOne(ctx, bson.M{"_id": fc.ID}).Decode(&migratedFC); err != nil {
		t.Fatalf("failed to reload collection: %v", err)
	}
	if migratedFC.ClassID == nil || *migratedFC.ClassID != class.ID {
		t.Error("expected collection to be adopted into the default class")
	}
}

func TestEnsureDefaultClass_SkipsWhenClassesExist(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures := testutil.NewFixtures(t, db)
	existing := fixtures.CreateClass(ctx, "CS-A")

	// A class-less collection here is a deliberate general collection,
	// not legacy data, and must stay class-less.
	general := fixtures.CreateGeneralCollection(ctx, "Sports Day", 100)

	deps := DBDeps{MongoDatabase: db}
	if err := ensureDefaultClass(ctx, deps, "hod-secret", testLogger()); err != nil {
		t.Fatalf("ensureDefaultClass failed: %v", err)
	}

	n, err := db.Collection("classes").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected only the existing class %s, got %d classes", existing.Name, n)
	}

	var fc models.FeeCollection
	if err := db.Collection("fee_collections").FindOne(ctx, bson.M{"_id": general.ID}).Decode(&fc); err != nil {
		t.Fatalf("failed to reload general collection: %v", err)
	}
	if fc.ClassID != nil {
		t.Error("general collection must remain class-less")
	}
}

func TestEnsureDefaultClass_EmptyDatabaseIsNoop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := ensureDefaultClass(ctx, deps, "hod-secret", testLogger()); err != nil {
		t.Fatalf("ensureDefaultClass failed: %v", err)
	}

	n, err := db.Collection("classes").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no classes on an empty database, got %d", n)
	}
}
