package admin

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/seatech/enthusiasm/core"
)

var (
	httpURLTag  = "http_url"
	httpURLText = "enter a valid http(s) link"
)

// RegisterValidators registers the admin translations.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterCustomTranslation(validate, translator, httpURLTag, httpURLText, true)
}
