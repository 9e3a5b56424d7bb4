package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps request bodies; nothing this API accepts comes close.
const maxBodyBytes = 1 << 20

var requestValidator = newValidator()

// newValidator reports fields by their JSON names so messages match what
// the client sent ("max_seats is required", not "MaxSeats is required").
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// requestError is a body that could not be decoded or failed validation.
// It is answered with 422, unlike service-level validation errors (400).
type requestError struct {
	field   string
	message string
}

func (e *requestError) Error() string { return e.message }

// decodeAndValidate reads one JSON value from body into dst and runs the
// struct's validate tags. Unknown fields are ignored: the web client sends
// whole form objects.
func decodeAndValidate(body io.Reader, dst any) error {
	decoder := json.NewDecoder(body)

	if err := decoder.Decode(dst); err != nil {
		return &requestError{message: "invalid JSON body"}
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &requestError{message: "invalid JSON body"}
	}

	if err := requestValidator.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			first := validationErrors[0]
			return &requestError{field: first.Field(), message: validationMessage(first)}
		}
		return &requestError{message: "invalid request payload"}
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "invalid email format"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must match the format %s", field, fe.Param())
	case "min", "max":
		return fmt.Sprintf("invalid %s length", field)
	default:
		return fmt.Sprintf("invalid %s", field)
	}
}

// decodeRequest decodes r's body into dst, answering 422 itself when that
// fails. Handlers return early on false.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := decodeAndValidate(http.MaxBytesReader(w, r.Body, maxBodyBytes), dst)
	if err == nil {
		return true
	}

	var reqErr *requestError
	if !errors.As(err, &reqErr) {
		reqErr = &requestError{message: "invalid request payload"}
	}
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation_error",
		Message: reqErr.message,
		Detail:  reqErr.message,
		Field:   reqErr.field,
	})
	return false
}
