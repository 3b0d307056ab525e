package paystatus_test

import (
	"reflect"
	"testing"

	"github.com/classtally/classtally/internal/app/system/paystatus"
	"go.mongodb.org/mongo-driver/bson"
)

const coll = "665f1c0a9d3e4b0001a2b3c4"

func TestParseChange(t *testing.T) {
	cases := []struct {
		in   string
		want paystatus.Change
	}{
		{"PAID", paystatus.SetPaid},
		{"NA", paystatus.SetNA},
		{"APPLICABLE", paystatus.SetApplicable},
		{"", paystatus.SetPending},
	}
	for _, c := range cases {
		got, err := paystatus.ParseChange(c.in)
		if err != nil {
			t.Fatalf("ParseChange(%q) failed: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseChange(%q) = %v, want %v", c.in, got, c.want)
		}
	}

	if _, err := paystatus.ParseChange("MAYBE"); err == nil {
		t.Error("expected error for unknown status value")
	}
}

func TestApply_NADoesNotTouchPayments(t *testing.T) {
	payments := map[string]interface{}{coll: "PAID"}

	p, na := paystatus.Apply(payments, nil, coll, paystatus.SetNA)

	if !na[coll] {
		t.Error("expected NA flag to be set")
	}
	if p[coll] != "PAID" {
		t.Errorf("payments entry changed: got %v, want PAID", p[coll])
	}
}

func TestApply_ApplicableRestoresPriorPaid(t *testing.T) {
	payments := map[string]interface{}{coll: "PAID"}

	p, na := paystatus.Apply(payments, nil, coll, paystatus.SetNA)
	p, na = paystatus.Apply(p, na, coll, paystatus.SetApplicable)

	if na[coll] {
		t.Error("expected NA flag to be removed")
	}
	if got := paystatus.Effective(p, na, coll); got != paystatus.Paid {
		t.Errorf("effective status after NA round-trip: got %v, want PAID", got)
	}
}

func TestApply_PaidClearsNA(t *testing.T) {
	na := map[string]bool{coll: true}

	p, na2 := paystatus.Apply(nil, na, coll, paystatus.SetPaid)

	if _, present := na2[coll]; present {
		t.Error("expected paying to clear the NA flag")
	}
	if p[coll] != "PAID" {
		t.Errorf("payments entry: got %v, want PAID", p[coll])
	}
}

func TestApply_PendingLeavesNAUntouched(t *testing.T) {
	payments := map[string]interface{}{coll: "PAID"}
	na := map[string]bool{coll: true}

	p, na2 := paystatus.Apply(payments, na, coll, paystatus.SetPending)

	if _, present := p[coll]; present {
		t.Error("expected payments entry to be removed")
	}
	if !na2[coll] {
		t.Error("reverting to pending must not clear the NA flag")
	}
}

func TestApply_Idempotent(t *testing.T) {
	changes := []paystatus.Change{
		paystatus.SetPaid,
		paystatus.SetPending,
		paystatus.SetNA,
		paystatus.SetApplicable,
	}

	start := map[string]interface{}{coll: "PAID", "other": true}
	startNA := map[string]bool{"other": true}

	for _, ch := range changes {
		p1, na1 := paystatus.Apply(start, startNA, coll, ch)
		p2, na2 := paystatus.Apply(p1, na1, coll, ch)
		if !reflect.DeepEqual(p1, p2) || !reflect.DeepEqual(na1, na2) {
			t.Errorf("change %v is not idempotent: %v/%v then %v/%v", ch, p1, na1, p2, na2)
		}
	}
}

func TestApply_DoesNotMutateInputs(t *testing.T) {
	payments := map[string]interface{}{coll: "PAID"}
	na := map[string]bool{}

	paystatus.Apply(payments, na, coll, paystatus.SetPending)

	if payments[coll] != "PAID" {
		t.Error("Apply mutated its payments input")
	}
}

func TestNormalize_LegacyBooleans(t *testing.T) {
	if got := paystatus.Normalize(true); got != paystatus.Paid {
		t.Errorf("Normalize(true) = %v, want PAID", got)
	}
	if got := paystatus.Normalize(false); got != paystatus.Pending {
		t.Errorf("Normalize(false) = %v, want PENDING", got)
	}
	if got := paystatus.Normalize(nil); got != paystatus.Pending {
		t.Errorf("Normalize(nil) = %v, want PENDING", got)
	}
	if got := paystatus.Normalize("PAID"); got != paystatus.Paid {
		t.Errorf(`Normalize("PAID") = %v, want PAID`, got)
	}
	if got := paystatus.Normalize("PENDING"); got != paystatus.Pending {
		t.Errorf(`Normalize("PENDING") = %v, want PENDING`, got)
	}
}

func TestEffective_NADominates(t *testing.T) {
	payments := map[string]interface{}{coll: "PAID"}
	na := map[string]bool{coll: true}

	if got := paystatus.Effective(payments, na, coll); got != paystatus.NA {
		t.Errorf("Effective = %v, want NA", got)
	}
}

func TestEffective_DefaultsToPending(t *testing.T) {
	if got := paystatus.Effective(nil, nil, coll); got != paystatus.Pending {
		t.Errorf("Effective on empty maps = %v, want PENDING", got)
	}
}

func TestUpdateFor_SingleKeyOps(t *testing.T) {
	upd := paystatus.UpdateFor(coll, paystatus.SetPaid)

	setDoc, hasSet := upd["$set"].(bson.M)
	unsetDoc, hasUnset := upd["$unset"].(bson.M)
	if !hasSet || !hasUnset {
		t.Fatalf("SetPaid update must both set payment and unset NA: %v", upd)
	}
	if len(setDoc) != 1 || len(unsetDoc) != 1 {
		t.Errorf("update documents must touch exactly one key each: %v", upd)
	}
	if setDoc["payments."+coll] != "PAID" {
		t.Errorf("expected payments.%s to be set to PAID: %v", coll, setDoc)
	}
	if _, ok := unsetDoc["not_applicable."+coll]; !ok {
		t.Errorf("expected not_applicable.%s to be unset: %v", coll, unsetDoc)
	}
}
