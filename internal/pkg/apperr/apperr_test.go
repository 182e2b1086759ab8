package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{BadRequest("bad"), http.StatusBadRequest},
		{Unauthorized("no"), http.StatusUnauthorized},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{Internal("boom"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{nil, http.StatusInternalServerError},
	}

	for _, c := range cases {
		if got := StatusOf(c.err); got != c.want {
			t.Errorf("StatusOf(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestWrappedErrorKeepsStatus(t *testing.T) {
	err := fmt.Errorf("context: %w", NotFound("Chat does not exist"))

	if got := StatusOf(err); got != http.StatusNotFound {
		t.Errorf("StatusOf(wrapped) = %d, want %d", got, http.StatusNotFound)
	}
	if got := MessageOf(err); got != "Chat does not exist" {
		t.Errorf("MessageOf(wrapped) = %q", got)
	}
}

func TestMessageOfHidesInternals(t *testing.T) {
	err := errors.New("pq: connection refused")
	if got := MessageOf(err); got != "Internal server error" {
		t.Errorf("MessageOf(plain) = %q, internals must not leak", got)
	}
}
