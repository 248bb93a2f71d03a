package uuid

import (
	"testing"

	googleuuid "github.com/google/uuid"
)

func TestNew(t *testing.T) {
	id := New()
	if !IsValid(id) {
		t.Fatalf("New() returned invalid uuid %q", id)
	}
	parsed := googleuuid.MustParse(id)
	if parsed.Version() != 7 {
		t.Errorf("expected version 7, got %d", parsed.Version())
	}
}

func TestNew_TimeOrdered(t *testing.T) {
	first := New()
	second := New()
	if first >= second {
		t.Errorf("expected %q < %q", first, second)
	}
}

func TestIsValid(t *testing.T) {
	if IsValid("not-a-uuid") {
		t.Error("expected invalid uuid to be rejected")
	}
}
