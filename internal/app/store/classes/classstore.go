// internal/app/store/classes/classstore.go
package classstore

import (
	"context"
	"errors"
	"time"

	"github.com/classtally/classtally/internal/app/system/credentials"
	"github.com/classtally/classtally/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateClassName = errors.New("a class with this name already exists")
	ErrUnknownRole        = errors.New("role has no credential slot")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("classes")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Class, error) {
	var c models.Class
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Class{}, err
	}
	return c, nil
}

// GetByName looks a class up by its case-folded name.
func (s *Store) GetByName(ctx context.Context, name string) (models.Class, error) {
	var c models.Class
	if err := s.c.FindOne(ctx, bson.M{"name_ci": text.Fold(name)}).Decode(&c); err != nil {
		return models.Class{}, err
	}
	return c, nil
}

// List returns all classes sorted by folded name.
func (s *Store) List(ctx context.Context) ([]models.Class, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Class
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a class with both credential slots unset.
func (s *Store) Create(ctx context.Context, name string) (models.Class, error) {
	now := time.Now().UTC()
	c := models.Class{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Class{}, ErrDuplicateClassName
		}
		return models.Class{}, err
	}
	return c, nil
}

// Delete removes a class by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// slotFields maps a role to the bson field names of its credential slot.
func slotFields(role string) (password, expires, revoked string, ok bool) {
	switch role {
	case models.RoleTeacher:
		return "teacher_password", "teacher_password_expires", "teacher_password_revoked", true
	case models.RoleRep:
		return "rep_password", "rep_password_expires", "rep_password_revoked", true
	}
	return "", "", "", false
}

// SetSlot replaces the credential slot for the given role in one update.
// Used for password refreshes; write the slot credentials.Refresh returns.
func (s *Store) SetSlot(ctx context.Context, id primitive.ObjectID, role string, slot models.CredentialSlot) error {
	pw, exp, rev, ok := slotFields(role)
	if !ok {
		return ErrUnknownRole
	}
	set := bson.M{
		pw:           slot.Password,
		rev:          slot.Revoked,
		"updated_at": time.Now().UTC(),
	}
	if slot.Expires != nil {
		set[exp] = *slot.Expires
	}
	upd := bson.M{"$set": set}
	if slot.Expires == nil {
		upd["$unset"] = bson.M{exp: ""}
	}
	res, err := s.c.UpdateByID(ctx, id, upd)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// RevokeSlot raises the revoked flag for the given role's slot. Password
// and expiry are left in place; only a SetSlot clears the flag again.
func (s *Store) RevokeSlot(ctx context.Context, id primitive.ObjectID, role string) error {
	_, _, rev, ok := slotFields(role)
	if !ok {
		return ErrUnknownRole
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		rev:          true,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// RefreshSlot is SetSlot with the slot computed from a new password: a
// six-month expiry from now and the revoked flag cleared.
func (s *Store) RefreshSlot(ctx context.Context, id primitive.ObjectID, role, password string) (models.CredentialSlot, error) {
	slot := credentials.Refresh(password, time.Now().UTC())
	if err := s.SetSlot(ctx, id, role, slot); err != nil {
		return models.CredentialSlot{}, err
	}
	return slot, nil
}
