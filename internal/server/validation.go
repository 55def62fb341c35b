package server

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var (
	payloadValidator     *validator.Validate
	payloadValidatorOnce sync.Once
)

// fieldError names one rejected payload field by its JSON name.
type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func getValidator() *validator.Validate {
	payloadValidatorOnce.Do(func() {
		payloadValidator = validator.New(validator.WithRequiredStructEnabled())
		payloadValidator.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return payloadValidator
}

// bindPayload decodes the JSON body into payload and validates its tags. On
// failure it writes a 400 response and returns false.
func bindPayload(c *gin.Context, payload interface{}) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return false
	}
	if fields := validatePayload(payload); len(fields) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "fields": fields})
		return false
	}
	return true
}

func validatePayload(payload interface{}) []fieldError {
	err := getValidator().Struct(payload)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []fieldError{{Field: "body", Rule: "invalid"}}
	}
	fields := make([]fieldError, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields = append(fields, fieldError{
			Field: fieldErr.Field(),
			Rule:  fieldErr.Tag(),
			Param: fieldErr.Param(),
		})
	}
	return fields
}
