package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusByKind(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Forbidden("x"), http.StatusForbidden},
		{Timeout("x"), http.StatusGatewayTimeout},
		{Internal("x"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err.Kind, got, tc.want)
		}
	}
}

func TestCodeSurvivesWrapping(t *testing.T) {
	base := Conflict("step already completed").WithCode("ALREADY_COMPLETED")
	wrapped := fmt.Errorf("complete step: %w", base)

	if !HasCode(wrapped, "ALREADY_COMPLETED") {
		t.Fatalf("expected code to be found through wrapping, got %q", GetCode(wrapped))
	}
	if !Is(wrapped, KindConflict) {
		t.Fatal("expected conflict kind through wrapping")
	}
}

func TestDefaultCodeFollowsKind(t *testing.T) {
	if NotFound("lead not found").Code != CodeNotFound {
		t.Fatal("expected NOT_FOUND default code")
	}
	if Timeout("deadline").Code != CodeTimeout {
		t.Fatal("expected TIMEOUT default code")
	}
	if GetCode(fmt.Errorf("plain")) != CodeNone {
		t.Fatal("plain errors should carry no code")
	}
}

func TestWrapKeepsCauseButNotMessage(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := Wrap(KindInternal, "failed to verify attachment", cause).WithOp("storage.Stat")

	if err.Error() != "storage.Stat: failed to verify attachment" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause should be reachable through Unwrap")
	}
	if KindInternal.String() != "internal" || Kind(99).String() != "unknown" {
		t.Fatal("unexpected kind names")
	}
}
