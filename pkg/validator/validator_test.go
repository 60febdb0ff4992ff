package validator

import (
	"testing"

	"github.com/pokedex-companion/pokedexservice/pkg/apperr"
)

func TestValidate_Register(t *testing.T) {
	p := &RegisterPayload{Username: "  ash  ", Email: " ash@x.com ", Password: "secret1"}
	if err := Validate(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Username != "ash" || p.Email != "ash@x.com" {
		t.Fatalf("payload not normalized: %+v", p)
	}

	err := Validate(&RegisterPayload{Username: "as", Email: "nope", Password: "123"})
	e := apperr.As(err)
	if e.Kind != apperr.KindValidation || e.Message != apperr.MsgInvalidInput {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{
		"username": apperr.MsgUsernameMinLength,
		"email":    apperr.MsgEmailInvalid,
		"password": apperr.MsgPasswordMinLength,
	}
	for field, msg := range want {
		if got := e.Fields[field]; len(got) != 1 || got[0] != msg {
			t.Errorf("field %s: got %v, want %q", field, got, msg)
		}
	}
}

func TestValidate_SearchTermIsTrimmed(t *testing.T) {
	err := Validate(&SearchTermPayload{SearchTerm: "   "})
	e := apperr.As(err)
	if e.Kind != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := e.Fields["searchTerm"]; len(got) != 1 || got[0] != apperr.MsgSearchTermRequired {
		t.Fatalf("unexpected field errors: %v", e.Fields)
	}
}

func TestValidate_PokemonID(t *testing.T) {
	for _, id := range []int{0, -4} {
		err := Validate(&PokemonPayload{PokemonID: id})
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Fatalf("pokemonId %d: expected validation error, got %v", id, err)
		}
	}
	if err := Validate(&PokemonPayload{PokemonID: 25}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseID(t *testing.T) {
	if id, err := ParseID("12", "id", "bad"); err != nil || id != 12 {
		t.Fatalf("got %d, %v", id, err)
	}
	for _, raw := range []string{"", "0", "-1", "abc", "1.5"} {
		if _, err := ParseID(raw, "id", "bad"); apperr.KindOf(err) != apperr.KindValidation {
			t.Fatalf("ParseID(%q): expected validation error, got %v", raw, err)
		}
	}
}
