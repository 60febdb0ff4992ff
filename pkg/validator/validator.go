// Package validator validates request payloads and path parameters.
package validator

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pokedex-companion/pokedexservice/pkg/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Payload is implemented by every request body.
type Payload interface {
	// Normalize trims the fields that are trimmed before validation.
	Normalize()
}

type RegisterPayload struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (p *RegisterPayload) Normalize() {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.TrimSpace(p.Email)
}

type LoginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (p *LoginPayload) Normalize() {
	p.Email = strings.TrimSpace(p.Email)
}

type ChangePasswordPayload struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

func (p *ChangePasswordPayload) Normalize() {}

type ListPayload struct {
	Name string `json:"name" validate:"required"`
}

func (p *ListPayload) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
}

// PokemonPayload takes pokemonId as a JSON number; a string is a decode error.
type PokemonPayload struct {
	PokemonID int `json:"pokemonId" validate:"required,min=1"`
}

func (p *PokemonPayload) Normalize() {}

type SearchTermPayload struct {
	SearchTerm string `json:"searchTerm" validate:"required"`
}

func (p *SearchTermPayload) Normalize() {
	p.SearchTerm = strings.TrimSpace(p.SearchTerm)
}

// Validate normalizes p and checks it. The error, if any, is a validation
// *apperr.Error carrying per-field messages.
func Validate(p Payload) error {
	p.Normalize()
	if err := validate.Struct(p); err != nil {
		return ValidationErrorResponse(err)
	}
	return nil
}

// messages holds the client message for each field/tag pair.
var messages = map[string]string{
	"username.required":    apperr.MsgUsernameRequired,
	"username.min":         apperr.MsgUsernameMinLength,
	"email.required":       apperr.MsgEmailInvalid,
	"email.email":          apperr.MsgEmailInvalid,
	"password.required":    apperr.MsgPasswordRequired,
	"password.min":         apperr.MsgPasswordMinLength,
	"oldPassword.required": apperr.MsgOldPasswordRequired,
	"newPassword.required": apperr.MsgNewPasswordRequired,
	"newPassword.min":      apperr.MsgNewPasswordMinLength,
	"name.required":        apperr.MsgListNameRequired,
	"pokemonId.required":   apperr.MsgPokemonIDRequired,
	"pokemonId.min":        apperr.MsgPokemonIDRequired,
	"searchTerm.required":  apperr.MsgSearchTermRequired,
}

// ValidationErrorResponse turns validator errors into a validation
// *apperr.Error. Other errors become a generic bad-request validation error.
func ValidationErrorResponse(err error) *apperr.Error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Validation(apperr.MsgInvalidInput, nil)
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		fields[fe.Field()] = append(fields[fe.Field()], msg)
	}
	return apperr.Validation(apperr.MsgInvalidInput, fields)
}

// ParseID parses a positive integer path parameter.
func ParseID(raw, field, msg string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.Validation(apperr.MsgInvalidInput, map[string][]string{field: {msg}})
	}
	return uint(id), nil
}
