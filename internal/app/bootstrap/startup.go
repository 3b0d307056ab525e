// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/classtally/classtally/internal/app/system/credentials"
	"github.com/classtally/classtally/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	return ensureDefaultClass(ctx, deps, appCfg.HODPassword, logger)
}

// ensureDefaultClass adopts legacy data from before classes existed.
//
// Databases written by the single-class version of the tracker carry
// students and fee collections with no class_id. When no classes exist
// yet but such documents do, a "Default" class is created with its
// teacher slot seeded from the HOD password, and the orphaned documents
// are attached to it. Once any class exists the migration never runs
// again, so class_id-less fee collections created afterwards keep their
// general (all-classes) meaning.
func ensureDefaultClass(ctx context.Context, deps DBDeps, seedPassword string, logger *zap.Logger) error {
	db := deps.MongoDatabase

	nClasses, err := db.Collection("classes").CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("count classes: %w", err)
	}
	if nClasses > 0 {
		return nil
	}

	// Matches both missing and explicit-null class_id.
	orphans := bson.M{"class_id": nil}

	nStudents, err := db.Collection("students").CountDocuments(ctx, orphans)
	if err != nil {
		return fmt.Errorf("count orphan students: %w", err)
	}
	nCollections, err := db.Collection("fee_collections").CountDocuments(ctx, orphans)
	if err != nil {
		return fmt.Errorf("count orphan fee collections: %w", err)
	}
	if nStudents == 0 && nCollections == 0 {
		return nil
	}

	now := time.Now().UTC()
	slot := credentials.Refresh(seedPassword, now)
	class := models.Class{
		ID:                     primitive.NewObjectID(),
		Name:                   "Default",
		NameCI:                 text.Fold("Default"),
		TeacherPassword:        slot.Password,
		TeacherPasswordExpires: slot.Expires,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if _, err := db.Collection("classes").InsertOne(ctx, class); err != nil {
		return fmt.Errorf("create default class: %w", err)
	}

	adopt := bson.M{"$set": bson.M{"class_id": class.ID}}
	sres, err := db.Collection("students").UpdateMany(ctx, orphans, adopt)
	if err != nil {
		return fmt.Errorf("adopt orphan students: %w", err)
	}
	cres, err := db.Collection("fee_collections").UpdateMany(ctx, orphans, adopt)
	if err != nil {
		return fmt.Errorf("adopt orphan fee collections: %w", err)
	}

	logger.Info("migrated legacy data into default class",
		zap.String("class_id", class.ID.Hex()),
		zap.Int64("students", sres.ModifiedCount),
		zap.Int64("collections", cres.ModifiedCount))
	return nil
}
