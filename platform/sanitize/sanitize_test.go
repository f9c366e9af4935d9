package sanitize

import "testing"

func TestName(t *testing.T) {
	cases := []struct{ in, want string }{
		{in: "  Ravi   Kumar ", want: "Ravi Kumar"},
		{in: "<b>Site</b> survey", want: "Site survey"},
		{in: "&lt;script&gt;alert(1)&lt;/script&gt;Meter", want: "alert(1)Meter"},
		{in: "line\nbreak", want: "line break"},
	}
	for _, tc := range cases {
		if got := Name(tc.in); got != tc.want {
			t.Errorf("Name(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTextKeepsLineBreaks(t *testing.T) {
	if got := Text(" first\nsecond <i>x</i> "); got != "first\nsecond x" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestTextPtr(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Fatal("nil should stay nil")
	}
	blank := "  <br> "
	if TextPtr(&blank) != nil {
		t.Fatal("blank text should become nil")
	}
	note := "call after 5pm"
	if got := TextPtr(&note); got == nil || *got != note {
		t.Fatalf("unexpected note %v", got)
	}
}
