// internal/domain/models/student.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student is one row of a class roster.
//
// Payments and NotApplicable are independent keyed maps, both keyed by
// fee collection ID (hex). Marking a student NA for a collection must
// never delete or overwrite the underlying payments entry, so clearing
// the NA flag restores the prior paid/pending fact.
//
// Payments values are normally the string "PAID", but historical data
// stored booleans (true meaning paid), so the value type is interface{}
// and consumers go through paystatus.Normalize before reading it.
type Student struct {
	ID             primitive.ObjectID  `bson:"_id" json:"id"`
	Name           string              `bson:"name" json:"name"`
	RegisterNumber string              `bson:"register_number" json:"registerNumber"`
	ClassID        *primitive.ObjectID `bson:"class_id,omitempty" json:"classId,omitempty"`

	Payments      map[string]interface{} `bson:"payments" json:"payments"`
	NotApplicable map[string]bool        `bson:"not_applicable" json:"notApplicable"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
