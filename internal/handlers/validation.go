package handlers

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator registers maxbytes, which limits the UTF-8 encoded length of a string. The
// built-in max tag counts runes.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return v
}

// validateText checks that text is non-empty and at most limit bytes long.
func validateText(field, text string, limit int) error {
	if err := validate.Var(text, fmt.Sprintf("required,maxbytes=%d", limit)); err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	return nil
}
