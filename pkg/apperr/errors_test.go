package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:      http.StatusBadRequest,
		KindUnauthorized:    http.StatusUnauthorized,
		KindForbidden:       http.StatusUnauthorized,
		KindNotFound:        http.StatusNotFound,
		KindConflict:        http.StatusConflict,
		KindTooManyRequests: http.StatusTooManyRequests,
		KindInternal:        http.StatusInternalServerError,
	}
	for kind, want := range cases {
		if got := HTTPStatus(kind); got != want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestAs_WrappedDomainError(t *testing.T) {
	base := Conflict(MsgFavoriteExists)
	err := fmt.Errorf("add favorite: %w", base)

	got := As(err)
	if got != base {
		t.Fatalf("expected the wrapped *Error, got %v", got)
	}
	if KindOf(err) != KindConflict {
		t.Fatalf("unexpected kind %s", KindOf(err))
	}
}

func TestAs_UnknownErrorBecomesInternal(t *testing.T) {
	raw := errors.New("dial tcp: connection refused")

	got := As(raw)
	if got.Kind != KindInternal {
		t.Fatalf("expected internal, got %s", got.Kind)
	}
	if got.Message != MsgInternal {
		t.Fatalf("internal message leaked: %q", got.Message)
	}
	if !errors.Is(got, raw) {
		t.Fatal("expected original error to stay in the chain")
	}
}
