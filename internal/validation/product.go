// Package validation checks product input before it reaches storage.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/whoyoshome/mini-productos/internal/models"
)

var imageRefPattern = regexp.MustCompile(`(?i)^(https?://|data:image/)`)

var messages = map[string]map[string]string{
	"name": {
		"required": "Name is required",
		"max":      "Name is too long",
	},
	"imageUrl": {
		"required": "Image URL or file is required",
		"imageref": "Must be a valid http(s) URL or a data:image/… or a blob: URL",
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("imageref", isImageRef); err != nil {
		panic(err)
	}
	return v
}

func isImageRef(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return imageRefPattern.MatchString(v) || strings.HasPrefix(v, "blob:")
}

// Product trims input and validates it. On failure it returns the field
// messages keyed by JSON field name.
func Product(input models.ProductInput) (models.ProductInput, *models.FieldErrors) {
	input.Name = strings.TrimSpace(input.Name)
	input.ImageURL = strings.TrimSpace(input.ImageURL)

	err := validate.Struct(input)
	if err == nil {
		return input, nil
	}

	fieldErrors := &models.FieldErrors{
		FormErrors:  []string{},
		FieldErrors: map[string][]string{},
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fieldErrors.FormErrors = append(fieldErrors.FormErrors, err.Error())
		return input, fieldErrors
	}
	for _, fe := range verrs {
		msg, ok := messages[fe.Field()][fe.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		fieldErrors.FieldErrors[fe.Field()] = append(fieldErrors.FieldErrors[fe.Field()], msg)
	}
	return input, fieldErrors
}
