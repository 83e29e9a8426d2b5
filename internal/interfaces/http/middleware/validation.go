package middleware

import (
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator configures the binding validator with custom tags.
// Safe to call more than once.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// Report field names from json/form tags so validation errors
	// match the wire format instead of Go struct field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	_ = v.RegisterValidation("period", validatePeriod)
}

// validatePeriod accepts billing periods in strict YYYY-MM form.
func validatePeriod(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if len(value) != 7 {
		return false
	}
	_, err := time.Parse("2006-01", value)
	return err == nil
}
