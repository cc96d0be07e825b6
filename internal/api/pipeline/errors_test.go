package pipeline

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindStatusMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindRateLimited, http.StatusTooManyRequests},
		{KindCSRFMissing, http.StatusForbidden},
		{KindCSRFInvalid, http.StatusForbidden},
		{KindCSRFExpired, http.StatusForbidden},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindValidation, http.StatusBadRequest},
		{KindMalformed, http.StatusBadRequest},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := statusFor(c.kind); got != c.want {
			t.Errorf("Kind %d: expected status %d, got %d", c.kind, c.want, got)
		}
	}
	if got := statusFor(kindNotFound); got != http.StatusNotFound {
		t.Errorf("Expected 404 for not-found, got %d", got)
	}
}

func TestZeroValueErrorIsInternal(t *testing.T) {
	var e Error
	if got := statusFor(e.Kind); got != http.StatusInternalServerError {
		t.Errorf("Zero-value error must map to 500, got %d", got)
	}
	if got := outcomeFor(e.Kind); got != "internal" {
		t.Errorf("Zero-value error must report internal outcome, got %q", got)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	perr := Internal(cause)
	if !errors.Is(perr, cause) {
		t.Error("Expected Internal to wrap its cause")
	}
	if perr.Kind != KindInternal {
		t.Errorf("Expected KindInternal, got %d", perr.Kind)
	}
	if perr.Error() != "Internal server error: connection refused" {
		t.Errorf("Unexpected error string %q", perr.Error())
	}
}
