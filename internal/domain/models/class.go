// internal/domain/models/class.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Class is a department class (e.g. "CS-A"). Each class carries two
// independent credential slots: one shared password for its teacher and
// one for its class rep. A class exists independently of whether either
// slot has ever been set.
type Class struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"name_ci"`

	TeacherPassword        string     `bson:"teacher_password,omitempty" json:"-"`
	TeacherPasswordExpires *time.Time `bson:"teacher_password_expires,omitempty" json:"teacherPasswordExpires,omitempty"`
	TeacherPasswordRevoked bool       `bson:"teacher_password_revoked" json:"teacherPasswordRevoked"`

	RepPassword        string     `bson:"rep_password,omitempty" json:"-"`
	RepPasswordExpires *time.Time `bson:"rep_password_expires,omitempty" json:"repPasswordExpires,omitempty"`
	RepPasswordRevoked bool       `bson:"rep_password_revoked" json:"repPasswordRevoked"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// SlotFor returns the credential slot for the given role (teacher or rep).
// The bool is false for any other role.
func (c Class) SlotFor(role string) (CredentialSlot, bool) {
	switch role {
	case RoleTeacher:
		return CredentialSlot{
			Password: c.TeacherPassword,
			Expires:  c.TeacherPasswordExpires,
			Revoked:  c.TeacherPasswordRevoked,
		}, true
	case RoleRep:
		return CredentialSlot{
			Password: c.RepPassword,
			Expires:  c.RepPasswordExpires,
			Revoked:  c.RepPasswordRevoked,
		}, true
	}
	return CredentialSlot{}, false
}

// CredentialSlot is a per-class shared password for one subordinate role.
// An empty Password means the slot has never been configured and is
// invalid for login regardless of Revoked/Expires.
type CredentialSlot struct {
	Password string
	Expires  *time.Time
	Revoked  bool
}
