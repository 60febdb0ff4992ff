package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pokedex-companion/pokedexservice/pkg/apperr"
	"github.com/pokedex-companion/pokedexservice/pkg/validator"

	"github.com/pkg/errors"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Status  string              `json:"status"`
	Message string              `json:"message,omitempty"`
	Data    interface{}         `json:"data,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// appHandler is a handler whose error is rendered by writeError.
type appHandler func(w http.ResponseWriter, r *http.Request) error

func (h appHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h(w, r); err != nil {
		writeError(w, r, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, status int, msg string, data interface{}) error {
	writeJSON(w, status, envelope{Status: "success", Message: msg, Data: data})
	return nil
}

// writeError maps err to its status and writes the error envelope. Internal
// errors are logged with their cause and shown to clients as a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.As(err)
	status := apperr.HTTPStatus(e.Kind)
	log := loggerFrom(r.Context()).WithField("error.kind", e.Kind.String())

	switch e.Kind {
	case apperr.KindInternal:
		log.WithError(err).Error("request failed")
	case apperr.KindValidation:
		log.WithField("errors", e.Fields).Warn("validation failed")
	default:
		log.Warnf("request rejected [%d]: %s", status, e.Message)
	}

	writeJSON(w, status, envelope{Status: "error", Message: e.Message, Errors: e.Fields})
}

// decode reads a JSON body into p and validates it.
func decode(r *http.Request, p validator.Payload) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			// validating the zero value yields the field's own message
			if verr := validator.Validate(p); verr != nil {
				return verr
			}
		}
		return apperr.Validation(apperr.MsgInvalidInput, nil)
	}
	return validator.Validate(p)
}
