// internal/app/store/students/studentstore.go
package studentstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/classtally/classtally/internal/app/system/paystatus"
	"github.com/classtally/classtally/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateRegisterNumber = errors.New("a student with this register number already exists in the class")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("students")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Student, error) {
	var st models.Student
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&st); err != nil {
		return models.Student{}, err
	}
	return st, nil
}

// List returns students sorted by register number. A nil classID returns
// the whole roster across classes.
func (s *Store) List(ctx context.Context, classID *primitive.ObjectID) ([]models.Student, error) {
	filter := bson.M{}
	if classID != nil {
		filter["class_id"] = *classID
	}
	opts := options.Find().SetSort(bson.D{{Key: "register_number", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Student
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a student with empty payment state.
func (s *Store) Create(ctx context.Context, st models.Student) (models.Student, error) {
	now := time.Now().UTC()
	st.ID = primitive.NewObjectID()
	st.Name = strings.TrimSpace(st.Name)
	st.RegisterNumber = strings.TrimSpace(st.RegisterNumber)
	if st.Payments == nil {
		st.Payments = map[string]interface{}{}
	}
	if st.NotApplicable == nil {
		st.NotApplicable = map[string]bool{}
	}
	st.CreatedAt = now
	st.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, st); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Student{}, ErrDuplicateRegisterNumber
		}
		return models.Student{}, err
	}
	return st, nil
}

// UpdateInfo changes a student's identity fields. Blank name or register
// number keeps the stored value; classID nil keeps the stored class.
// Payment state is never touched here.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name, registerNumber string, classID *primitive.ObjectID) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}
	if strings.TrimSpace(name) != "" {
		set["name"] = strings.TrimSpace(name)
	}
	if strings.TrimSpace(registerNumber) != "" {
		set["register_number"] = strings.TrimSpace(registerNumber)
	}
	if classID != nil {
		set["class_id"] = *classID
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateRegisterNumber
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a student by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Upsert inserts a student or, when the (class, register number) pair
// already exists, updates the name in place. Payment state is never
// touched. Reports whether a new document was created.
func (s *Store) Upsert(ctx context.Context, classID primitive.ObjectID, name, registerNumber string) (bool, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"class_id":        classID,
		"register_number": strings.TrimSpace(registerNumber),
	}
	update := bson.M{
		"$set": bson.M{
			"name":       strings.TrimSpace(name),
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"_id":            primitive.NewObjectID(),
			"payments":       bson.M{},
			"not_applicable": bson.M{},
			"created_at":     now,
		},
	}
	res, err := s.c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if wafflemongo.IsDup(err) {
			// Lost a race with a concurrent insert of the same pair.
			return false, ErrDuplicateRegisterNumber
		}
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// ApplyStatus applies a payment status change for one collection on one
// student. The update touches only the affected map key, so concurrent
// changes for other collections on the same student are never clobbered.
func (s *Store) ApplyStatus(ctx context.Context, studentID primitive.ObjectID, collectionID string, change paystatus.Change) error {
	res, err := s.c.UpdateByID(ctx, studentID, paystatus.UpdateFor(collectionID, change))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// BulkMarkNA flags a collection not-applicable for every student in
// scope that has not already paid it. Paid students (current "PAID"
// string and legacy boolean true alike) are skipped so the flag never
// shadows a recorded payment. A nil classID spans all classes (general
// collections). Returns the number of students modified.
func (s *Store) BulkMarkNA(ctx context.Context, classID *primitive.ObjectID, collectionID string) (int64, error) {
	filter := bson.M{
		"payments." + collectionID: bson.M{"$nin": bson.A{string(paystatus.Paid), true}},
	}
	if classID != nil {
		filter["class_id"] = *classID
	}
	res, err := s.c.UpdateMany(ctx, filter,
		bson.M{"$set": bson.M{"not_applicable." + collectionID: true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// BulkMarkApplicable clears a collection's NA flag for every student in
// scope, unconditionally. Underlying payment entries survive, so a paid
// student shows paid again rather than pending. Returns the number of
// students modified.
func (s *Store) BulkMarkApplicable(ctx context.Context, classID *primitive.ObjectID, collectionID string) (int64, error) {
	filter := bson.M{}
	if classID != nil {
		filter["class_id"] = *classID
	}
	res, err := s.c.UpdateMany(ctx, filter,
		bson.M{"$unset": bson.M{"not_applicable." + collectionID: ""}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
