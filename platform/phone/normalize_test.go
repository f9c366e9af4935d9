package phone

import "testing"

func TestE164(t *testing.T) {
	n := NewNormalizer("NL")

	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"+31 6 12345678", "+31612345678", false},
		{"06 12345678", "+31612345678", false},
		{"  ", "", true},
		{"not a number", "", true},
	}

	for _, tc := range tests {
		got, err := n.E164(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("E164(%q) expected error, got %q", tc.input, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("E164(%q) = %q, %v; want %q", tc.input, got, err, tc.want)
		}
	}
}

func TestNormalizeE164FallsBackToInput(t *testing.T) {
	if got := NormalizeE164(" abc "); got != "abc" {
		t.Fatalf("expected trimmed input, got %q", got)
	}
}
