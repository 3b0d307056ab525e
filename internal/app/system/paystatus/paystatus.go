// Package paystatus implements the tri-state payment status logic for a
// (student, fee collection) pair.
//
// Two independent stored maps feed into one derived display value:
//
//   - payments[collectionID]       → "PAID" (or legacy boolean true)
//   - notApplicable[collectionID]  → presence means "NA"
//
// The effective status is derived, never stored: NA wins, then PAID,
// otherwise PENDING. All transitions are set/unset operations on one map
// key, so every transition is idempotent and concurrent updates for
// distinct collections on the same student never clobber each other as
// long as writers use the single-key update documents from UpdateFor.
package paystatus

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Status is the derived display status for a student/collection pair.
type Status string

const (
	Paid    Status = "PAID"
	Pending Status = "PENDING"
	NA      Status = "NA"
)

// Change is a requested status transition.
type Change int

const (
	// SetPaid marks the collection paid. Paying implies applicability,
	// so any NA flag for the collection is cleared first.
	SetPaid Change = iota
	// SetPending reverts the payment entry to the implicit pending
	// state. The NA flag is deliberately left untouched: marking unpaid
	// does not clear NA, only an explicit SetApplicable does.
	SetPending
	// SetNA flags the collection not-applicable without touching the
	// underlying payment entry, so clearing NA later restores it.
	SetNA
	// SetApplicable removes the NA flag (no-op if absent).
	SetApplicable
)

// ParseChange maps the wire values accepted by the status endpoint to a
// Change. "PAID", "NA" and "APPLICABLE" are explicit; the empty string
// (or any omitted status) means revert to pending.
func ParseChange(s string) (Change, error) {
	switch s {
	case "PAID":
		return SetPaid, nil
	case "NA":
		return SetNA, nil
	case "APPLICABLE":
		return SetApplicable, nil
	case "":
		return SetPending, nil
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

// Apply returns the next state of the two maps after applying change for
// collectionID. The inputs are not mutated; nil maps are treated as empty.
func Apply(payments map[string]interface{}, notApplicable map[string]bool, collectionID string, change Change) (map[string]interface{}, map[string]bool) {
	p := make(map[string]interface{}, len(payments))
	for k, v := range payments {
		p[k] = v
	}
	na := make(map[string]bool, len(notApplicable))
	for k, v := range notApplicable {
		na[k] = v
	}

	switch change {
	case SetNA:
		na[collectionID] = true
	case SetApplicable:
		delete(na, collectionID)
	case SetPaid:
		delete(na, collectionID)
		p[collectionID] = string(Paid)
	case SetPending:
		delete(p, collectionID)
	}
	return p, na
}

// UpdateFor builds the Mongo update document for change, touching only
// the single payments/not_applicable key for collectionID. Sibling keys
// are never rewritten, which keeps concurrent updates for different
// collections on the same student safe.
func UpdateFor(collectionID string, change Change) bson.M {
	payKey := "payments." + collectionID
	naKey := "not_applicable." + collectionID

	switch change {
	case SetNA:
		return bson.M{"$set": bson.M{naKey: true}}
	case SetApplicable:
		return bson.M{"$unset": bson.M{naKey: ""}}
	case SetPaid:
		return bson.M{
			"$set":   bson.M{payKey: string(Paid)},
			"$unset": bson.M{naKey: ""},
		}
	case SetPending:
		return bson.M{"$unset": bson.M{payKey: ""}}
	}
	return bson.M{}
}

// Normalize converts a raw stored payments value to a Status. Historical
// documents stored booleans (true meaning paid); current documents store
// the string "PAID". Anything else reads as pending.
func Normalize(v interface{}) Status {
	switch t := v.(type) {
	case string:
		if t == string(Paid) {
			return Paid
		}
	case bool:
		if t {
			return Paid
		}
	}
	return Pending
}

// Effective computes the derived display status for collectionID. The NA
// flag dominates; otherwise the normalized payment entry decides.
func Effective(payments map[string]interface{}, notApplicable map[string]bool, collectionID string) Status {
	if notApplicable[collectionID] {
		return NA
	}
	return Normalize(payments[collectionID])
}
