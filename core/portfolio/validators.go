package portfolio

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/kifolio/backend/core"
)

var (
	templateTag  = "pftemplate"
	templateText = "invalid template"
)

// InitValidators registers the portfolio validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(templateTag, templateValidation)
	core.RegisterCustomTranslation(validate, translator, templateTag, templateText)
}

// templateValidation checks that the provided template is a known one.
func templateValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, tmpl := range Templates {
		if val == tmpl {
			return true
		}
	}
	return false
}
