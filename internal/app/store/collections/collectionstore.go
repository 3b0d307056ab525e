// internal/app/store/collections/collectionstore.go
package collectionstore

import (
	"context"
	"strings"
	"time"

	"github.com/classtally/classtally/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("fee_collections")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.FeeCollection, error) {
	var fc models.FeeCollection
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&fc); err != nil {
		return models.FeeCollection{}, err
	}
	return fc, nil
}

// ListForClass returns the collections visible to a class: its own plus
// the general (class-less) ones, newest date first. A nil classID returns
// everything.
func (s *Store) ListForClass(ctx context.Context, classID *primitive.ObjectID) ([]models.FeeCollection, error) {
	filter := bson.M{}
	if classID != nil {
		filter = bson.M{"$or": bson.A{
			bson.M{"class_id": *classID},
			bson.M{"class_id": nil},
		}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.FeeCollection
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a fee collection. CreatedByRole is stamped by the caller
// from the session and never changes afterwards.
func (s *Store) Create(ctx context.Context, fc models.FeeCollection) (models.FeeCollection, error) {
	now := time.Now().UTC()
	fc.ID = primitive.NewObjectID()
	fc.Title = strings.TrimSpace(fc.Title)
	if fc.Date.IsZero() {
		fc.Date = now
	}
	fc.CreatedAt = now
	fc.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, fc); err != nil {
		return models.FeeCollection{}, err
	}
	return fc, nil
}

// UpdateInfo changes a collection's title, amount, and date. Blank title
// and zero amount keep the stored values; ownership fields (class,
// creator) are immutable.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, title string, amount float64, date time.Time) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}
	if amount > 0 {
		set["amount"] = amount
	}
	if strings.TrimSpace(title) != "" {
		set["title"] = strings.TrimSpace(title)
	}
	if !date.IsZero() {
		set["date"] = date
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a collection by ID. Returns the number of documents
// deleted (0 or 1). Per-student status entries keyed by the deleted ID
// are left in place as inert map entries.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
