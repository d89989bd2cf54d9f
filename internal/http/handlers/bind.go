package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BindJSON binds and validates the request body. On failure it writes the
// 400 envelope with a joined human-readable message and returns false.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err != nil {
		RespondBadRequest(ctx, bindErrorMessage(err, out))
		return false
	}

	return true
}

func bindErrorMessage(err error, out interface{}) string {
	var validatorErrors validator.ValidationErrors

	if errors.As(err, &validatorErrors) {
		messages := make([]string, 0, len(validatorErrors))

		for _, fieldError := range validatorErrors {
			field := jsonFieldName(out, fieldError.StructField())
			messages = append(messages, field+" "+ruleMessage(fieldError.Tag(), fieldError.Param()))
		}

		return strings.Join(messages, ", ")
	}

	return "Invalid request body"
}

// jsonFieldName maps a struct field back to its json tag so the message
// talks about the payload the client actually sent.
func jsonFieldName(out interface{}, structField string) string {
	t := reflect.TypeOf(out)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return strings.ToLower(structField)
	}

	sf, ok := t.FieldByName(structField)

	if !ok {
		return strings.ToLower(structField)
	}

	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")

	if name == "" || name == "-" {
		return strings.ToLower(structField)
	}

	return name
}

func ruleMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param + " characters long"
	case "max":
		return "must be at most " + param + " characters long"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		return "is invalid"
	}
}
