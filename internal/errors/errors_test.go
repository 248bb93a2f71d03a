package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrPersistenceFailure, cause)

	if err.Code != "PERSISTENCE_FAILURE" {
		t.Errorf("expected code PERSISTENCE_FAILURE, got %s", err.Code)
	}
	if err.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", err.StatusCode)
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if !errors.Is(err, ErrPersistenceFailure) {
		t.Error("wrapped error should match its sentinel")
	}
}

func TestWithMessage(t *testing.T) {
	err := WithMessage(ErrInvalidAmount, "amount is NaN")

	if err.Message != "amount is NaN" {
		t.Errorf("expected custom message, got %q", err.Message)
	}
	if !errors.Is(err, ErrInvalidAmount) {
		t.Error("custom message error should match its sentinel")
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Error("different codes must not match")
	}
}
