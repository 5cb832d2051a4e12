package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/sultan/backend/internal/domain/shared/update"
	"github.com/sultan/backend/internal/interfaces/http/dto"
)

// SetupValidator makes gin's validator report fields by their json or form
// name and check update.Field values through their Set value. Safe to call
// more than once.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(wireName)
	update.RegisterValidation(v)
}

func wireName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// HandleBindError answers a failed ShouldBind* call with 400. Rule
// violations and JSON type mismatches are reported per field as
// ERR_VALIDATION; any other decode failure is ERR_INVALID_JSON.
func HandleBindError(c *gin.Context, err error) {
	requestID := GetRequestID(c)
	if details := fieldDetails(err); len(details) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			dto.NewValidationErrorResponse("Request validation failed", requestID, details))
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInvalidJSON, "Malformed request: "+err.Error(), requestID))
}

func fieldDetails(err error) []dto.ValidationDetail {
	var rules validator.ValidationErrors
	if errors.As(err, &rules) {
		details := make([]dto.ValidationDetail, 0, len(rules))
		for _, fe := range rules {
			details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: describe(fe)})
		}
		return details
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return []dto.ValidationDetail{{Field: typeErr.Field, Message: "Must be a " + jsonKind(typeErr.Type)}}
	}
	return nil
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "list"
	default:
		return "valid value"
	}
}

var ruleMessages = map[string]string{
	"required": "This field is required",
	"email":    "Invalid email format",
	"numeric":  "Must be numeric",
	"oneof":    "Must be one of: %s",
	"gte":      "Must be greater than or equal to %s",
	"lte":      "Must be less than or equal to %s",
	"gt":       "Must be greater than %s",
	"lt":       "Must be less than %s",
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min", "max":
		bound := "at least "
		if fe.Tag() == "max" {
			bound = "at most "
		}
		msg := "Must be " + bound + fe.Param()
		if fe.Kind() == reflect.String {
			msg += " characters"
		}
		return msg
	}
	if msg, ok := ruleMessages[fe.Tag()]; ok {
		return strings.Replace(msg, "%s", fe.Param(), 1)
	}
	return "Invalid value"
}
