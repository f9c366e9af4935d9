package validator

import "testing"

type sample struct {
	Name  string `validate:"required"`
	Order int    `validate:"min=0"`
}

func TestFieldErrors(t *testing.T) {
	v := New()
	err := v.Struct(sample{Order: -1})
	if err == nil {
		t.Fatal("expected validation error")
	}

	fields := FieldErrors(err)
	if fields["name"] != "required" {
		t.Fatalf("unexpected name rule: %v", fields)
	}
	if fields["order"] != "min=0" {
		t.Fatalf("unexpected order rule: %v", fields)
	}
}
