package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BindJSON decodes and validates the request body. On failure it writes the
// normalized 400 {"errors": [...]} list and returns false; the handler must
// bail out without touching the store.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err != nil {
		RespondValidationFailed(ctx, normalizeBindError(err, out))

		return false
	}

	return true
}

// normalizeBindError flattens heterogeneous bind failures into one
// human-readable message per problem.
func normalizeBindError(err error, out interface{}) []string {
	rootType := baseStructType(out)

	// validator errors (struct binding tags)

	var validatorError validator.ValidationErrors

	if errors.As(err, &validatorError) {
		messages := make([]string, 0, len(validatorError))

		for _, fieldError := range validatorError {
			field := jsonFieldName(rootType, fieldError.Field())
			messages = append(messages, validationMessage(field, fieldError.Tag(), fieldError.Param()))
		}
		return messages
	}

	// bad json; the decoder reports truncated or empty bodies as EOFs, not
	// as *json.SyntaxError

	var syntaxError *json.SyntaxError

	if errors.As(err, &syntaxError) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return []string{"Request body is not valid JSON."}
	}

	// type mismatch

	var unmatchedTypeError *json.UnmarshalTypeError

	if errors.As(err, &unmatchedTypeError) {
		field := strings.TrimSpace(unmatchedTypeError.Field)
		if field == "" {
			field = "body"
		}

		return []string{humanizeField(field) + " must be of type " + unmatchedTypeError.Type.String() + "."}
	}

	// final fallback if the error could not be deciphered
	return []string{"Invalid request body."}
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// jsonFieldName maps a Go struct field name to its json tag name.
func jsonFieldName(rootType reflect.Type, structField string) string {
	if rootType == nil {
		return structField
	}

	sf, ok := rootType.FieldByName(structField)

	if !ok {
		return structField
	}

	tag := sf.Tag.Get("json")
	if tag == "" {
		return structField
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return structField
	}

	return name
}

// humanizeField turns "firstName" into "First name".
func humanizeField(jsonName string) string {
	var b strings.Builder

	for i, r := range jsonName {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteByte(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

func validationMessage(jsonName, rule, param string) string {
	field := humanizeField(jsonName)

	switch rule {
	case "required":
		return field + " is required."
	case "email":
		return "Valid email is required."
	case "min":
		return field + " must be at least " + param + " characters."
	case "max":
		return field + " must be at most " + param + " characters."
	default:
		if param != "" {
			return field + " failed " + rule + " validation (" + param + ")."
		}
		return field + " failed " + rule + " validation."
	}
}
