package utils

import (
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

// InitValidator registers the custom rules on both the standalone validator
// and gin's binding engine.
func InitValidator() {
	Validate = validator.New()
	Validate.RegisterValidation("resourceref", ValidateResourceRefRule)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("resourceref", ValidateResourceRefRule)
	}
}

func ValidateResourceRefRule(fl validator.FieldLevel) bool {
	return ValidateResourceRef(fl.Field().String())
}

// ValidateResourceRef accepts the opaque identifiers used for sites,
// credentials and sessions: non-empty, at most 128 characters, limited to
// letters, digits, dash, underscore and dot.
func ValidateResourceRef(ref string) bool {
	if ref == "" || len(ref) > 128 {
		return false
	}
	for _, char := range ref {
		switch {
		case unicode.IsLetter(char), unicode.IsDigit(char):
		case char == '-', char == '_', char == '.':
		default:
			return false
		}
	}
	return true
}
