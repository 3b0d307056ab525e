package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/classtally/classtally/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateClass creates a test class with both credential slots unset.
func (f *Fixtures) CreateClass(ctx context.Context, name string) models.Class {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Class{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("classes").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test class: %v", err)
	}
	return c
}

// CreateClassWithSlots creates a test class with both credential slots
// configured with the given passwords, valid for six months.
func (f *Fixtures) CreateClassWithSlots(ctx context.Context, name, teacherPW, repPW string) models.Class {
	f.t.Helper()

	now := time.Now().UTC()
	expires := now.AddDate(0, 6, 0)
	c := models.Class{
		ID:                     primitive.NewObjectID(),
		Name:                   name,
		NameCI:                 text.Fold(name),
		TeacherPassword:        teacherPW,
		TeacherPasswordExpires: &expires,
		RepPassword:            repPW,
		RepPasswordExpires:     &expires,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if _, err := f.db.Collection("classes").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test class: %v", err)
	}
	return c
}

// CreateStudent creates a test student in the given class with empty
// payment state.
func (f *Fixtures) CreateStudent(ctx context.Context, classID primitive.ObjectID, name, registerNumber string) models.Student {
	f.t.Helper()

	now := time.Now().UTC()
	st := models.Student{
		ID:             primitive.NewObjectID(),
		Name:           name,
		RegisterNumber: registerNumber,
		ClassID:        &classID,
		Payments:       map[string]interface{}{},
		NotApplicable:  map[string]bool{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("students").InsertOne(ctx, st); err != nil {
		f.t.Fatalf("failed to create test student: %v", err)
	}
	return st
}

// CreateStudentWithPayments creates a test student with the given raw
// payment and not-applicable maps (useful for legacy boolean values).
func (f *Fixtures) CreateStudentWithPayments(ctx context.Context, classID primitive.ObjectID, name, registerNumber string, payments map[string]interface{}, na map[string]bool) models.Student {
	f.t.Helper()

	if payments == nil {
		payments = map[string]interface{}{}
	}
	if na == nil {
		na = map[string]bool{}
	}
	now := time.Now().UTC()
	st := models.Student{
		ID:             primitive.NewObjectID(),
		Name:           name,
		RegisterNumber: registerNumber,
		ClassID:        &classID,
		Payments:       payments,
		NotApplicable:  na,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("students").InsertOne(ctx, st); err != nil {
		f.t.Fatalf("failed to create test student: %v", err)
	}
	return st
}

// CreateFeeCollection creates a class-scoped test fee collection.
func (f *Fixtures) CreateFeeCollection(ctx context.Context, classID primitive.ObjectID, title string, amount float64, createdByRole string) models.FeeCollection {
	f.t.Helper()
	return f.insertCollection(ctx, &classID, title, amount, createdByRole)
}

// CreateGeneralCollection creates a class-less test fee collection.
func (f *Fixtures) CreateGeneralCollection(ctx context.Context, title string, amount float64) models.FeeCollection {
	f.t.Helper()
	return f.insertCollection(ctx, nil, title, amount, models.RoleHOD)
}

func (f *Fixtures) insertCollection(ctx context.Context, classID *primitive.ObjectID, title string, amount float64, createdByRole string) models.FeeCollection {
	f.t.Helper()

	now := time.Now().UTC()
	fc := models.FeeCollection{
		ID:            primitive.NewObjectID(),
		Title:         title,
		Amount:        amount,
		Date:          now,
		ClassID:       classID,
		CreatedByRole: createdByRole,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("fee_collections").InsertOne(ctx, fc); err != nil {
		f.t.Fatalf("failed to create test fee collection: %v", err)
	}
	return fc
}
