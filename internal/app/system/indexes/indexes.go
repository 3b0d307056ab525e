// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup (and by test setup) to bring the schema
indexes up. Each ensure* function is idempotent: CreateMany reuses an
index that already exists with the same name and keys. Errors are
aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureClasses(ctx, db); err != nil {
		problems = append(problems, "classes: "+err.Error())
	}
	if err := ensureStudents(ctx, db); err != nil {
		problems = append(problems, "students: "+err.Error())
	}
	if err := ensureFeeCollections(ctx, db); err != nil {
		problems = append(problems, "fee_collections: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensure(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	names, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	zap.L().Info("ensured indexes",
		zap.String("collection", coll.Name()),
		zap.Strings("indexes", names))
	return nil
}

func ensureClasses(ctx context.Context, db *mongo.Database) error {
	return ensure(ctx, db.Collection("classes"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("uniq_name_ci").SetUnique(true),
		},
	})
}

func ensureStudents(ctx context.Context, db *mongo.Database) error {
	return ensure(ctx, db.Collection("students"), []mongo.IndexModel{
		// Register numbers are unique within a class, not globally.
		{
			Keys: bson.D{
				{Key: "class_id", Value: 1},
				{Key: "register_number", Value: 1},
			},
			Options: options.Index().SetName("uniq_class_register").SetUnique(true),
		},
	})
}

func ensureFeeCollections(ctx context.Context, db *mongo.Database) error {
	return ensure(ctx, db.Collection("fee_collections"), []mongo.IndexModel{
		// List queries filter by class (or class-less) and sort by date.
		{
			Keys: bson.D{
				{Key: "class_id", Value: 1},
				{Key: "date", Value: -1},
			},
			Options: options.Index().SetName("class_date"),
		},
	})
}
