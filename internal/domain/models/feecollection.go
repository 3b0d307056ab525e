// internal/domain/models/feecollection.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeeCollection is a fee or event for which each student of the owning
// class has a payment status. A nil ClassID marks a "general" collection
// visible to every class; only the HOD may create those.
//
// CreatedByRole is set at creation and never changes afterwards; rep
// edit/delete rights hinge on it.
type FeeCollection struct {
	ID            primitive.ObjectID  `bson:"_id" json:"id"`
	Title         string              `bson:"title" json:"title"`
	Amount        float64             `bson:"amount" json:"amount"`
	Date          time.Time           `bson:"date" json:"date"`
	ClassID       *primitive.ObjectID `bson:"class_id,omitempty" json:"classId,omitempty"`
	CreatedByRole string              `bson:"created_by_role" json:"createdByRole"`
	CreatedByID   string              `bson:"created_by_id,omitempty" json:"createdById,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsGeneral reports whether the collection is class-less (visible to all).
func (fc FeeCollection) IsGeneral() bool {
	return fc.ClassID == nil
}
