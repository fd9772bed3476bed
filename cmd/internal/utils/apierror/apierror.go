package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ErrTrailingData reports bytes left over after the first JSON value of a body.
var ErrTrailingData = errors.New("unexpected data after the JSON body")

// ErrorResponse is an error that knows the HTTP status it maps to and
// renders itself as the response body.
type ErrorResponse interface {
	error
	Code() int
}

type SimpleError struct {
	Status int    `json:"-"`
	Detail string `json:"detail"`
}

func (e *SimpleError) Error() string {
	return e.Detail
}

func (e *SimpleError) Code() int {
	return e.Status
}

func NewSimple(code int, detail string) *SimpleError {
	return &SimpleError{Status: code, Detail: detail}
}

var InternalServerError = NewSimple(http.StatusInternalServerError, "Internal Server Error")

// NewInternalError exposes the cause of a server side failure to the client.
func NewInternalError(err error) *SimpleError {
	return NewSimple(http.StatusInternalServerError, err.Error())
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ValidationError lists every field of a request body that was rejected.
type ValidationError struct {
	Fields []FieldError `json:"detail"`
}

func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Code() int {
	return http.StatusUnprocessableEntity
}

func FromValidationError(err error) *ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError(FieldError{Field: "body", Message: err.Error(), Type: "invalid"})
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fromFieldError(fe))
	}
	return NewValidationError(fields...)
}

// FromBindError explains why a request body could not be decoded at all.
func FromBindError(err error) *ValidationError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		expected := strings.TrimPrefix(typeErr.Type.String(), "*")
		return NewValidationError(FieldError{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("expected %s, got %s", expected, typeErr.Value),
			Type:    "type_error",
		})
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return NewValidationError(FieldError{Field: "body", Message: "body is not valid JSON", Type: "json_invalid"})
	}

	if errors.Is(err, ErrTrailingData) {
		return NewValidationError(FieldError{Field: "body", Message: "body must hold a single JSON object", Type: "json_invalid"})
	}

	if errors.Is(err, echo.ErrUnsupportedMediaType) {
		return NewValidationError(FieldError{
			Field:   "body",
			Message: "unsupported content type, expected " + echo.MIMEApplicationJSON,
			Type:    "unsupported_media_type",
		})
	}

	return NewValidationError(FieldError{Field: "body", Message: "body must be a JSON object", Type: "invalid"})
}

func fromFieldError(fe validator.FieldError) FieldError {
	switch fe.Tag() {
	case "required":
		return FieldError{Field: fe.Field(), Message: "field required", Type: "missing"}
	default:
		return FieldError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
			Type:    fe.Tag(),
		}
	}
}
