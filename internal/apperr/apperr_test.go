package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFound("user %s not found", "x"), fiber.StatusNotFound},
		{Forbidden("nope"), fiber.StatusForbidden},
		{Conflict("already saved"), fiber.StatusConflict},
		{Invalid("bad score"), fiber.StatusBadRequest},
		{Unavailable("store down", errors.New("dial tcp")), fiber.StatusServiceUnavailable},
		{errors.New("unclassified"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusOf(tc.err); got != tc.want {
			t.Errorf("StatusOf(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestCodeSurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("loading profile: %w", NotFound("user missing"))
	if got := CodeOf(wrapped); got != CodeNotFound {
		t.Errorf("CodeOf(wrapped) = %s, want %s", got, CodeNotFound)
	}
	if StatusOf(wrapped) != fiber.StatusNotFound {
		t.Error("wrapped not_found must still map to 404")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("dial tcp")
	err := Unavailable("store down", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}
