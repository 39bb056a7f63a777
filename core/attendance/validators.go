package attendance

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mahudhurio/core"
)

var (
	// custom validation tags & texts
	statusTag  = "attendancestatus"
	statusText = "invalid attendance status"

	validate = newValidate()
)

func newValidate() *validator.Validate {
	v := validator.New()
	registerValidations(v)
	return v
}

func registerValidations(v *validator.Validate) {
	_ = v.RegisterValidation(statusTag, statusValidation)
}

// InitValidators registers this package's custom validators and translations
// on the app-wide validator instance.
func InitValidators(v *validator.Validate, translator ut.Translator) {
	registerValidations(v)
	core.RegisterCustomTranslation(v, translator, statusTag, statusText)
	validate = v
}

// statusValidation only allows supported attendance status values.
func statusValidation(fl validator.FieldLevel) bool {
	return Status(fl.Field().String()).Valid()
}
