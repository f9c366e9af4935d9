package activity

import "testing"

func TestSnapshot(t *testing.T) {
	if Snapshot(nil) != nil {
		t.Fatal("nil value should produce nil snapshot")
	}
	got := Snapshot(map[string]string{"status": "pending"})
	if string(got) != `{"status":"pending"}` {
		t.Fatalf("unexpected snapshot %s", got)
	}
}

func TestNullableJSON(t *testing.T) {
	if nullableJSON(nil) != nil {
		t.Fatal("empty json should be stored as NULL")
	}
	if v, ok := nullableJSON([]byte(`{}`)).([]byte); !ok || string(v) != "{}" {
		t.Fatal("non-empty json should be passed as bytes")
	}
}
