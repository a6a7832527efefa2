package student

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/seatech/enthusiasm/core"
)

var (
	reviewStatusTag  = "reviewstatus"
	reviewStatusText = fmt.Sprintf("status must be one of %s, %s or %s", StatusApproved, StatusGraded, StatusRejected)

	coursesTag  = "courses"
	coursesText = "select at least one course"

	submissionKindTag  = "submissionkind"
	submissionKindText = fmt.Sprintf("kind must be one of %s or %s", KindProject, KindAssignment)

	eqFieldTag  = "eqfield"
	eqFieldText = "passwords do not match"

	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password is too similar to your name or email"
)

// RegisterValidators registers the student validators & their translations.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(reviewStatusTag, reviewStatusValidation)
	core.RegisterCustomTranslation(validate, translator, reviewStatusTag, reviewStatusText)

	_ = validate.RegisterValidation(coursesTag, coursesValidation)
	core.RegisterCustomTranslation(validate, translator, coursesTag, coursesText)

	_ = validate.RegisterValidation(submissionKindTag, submissionKindValidation)
	core.RegisterCustomTranslation(validate, translator, submissionKindTag, submissionKindText)

	core.RegisterCustomTranslation(validate, translator, eqFieldTag, eqFieldText, true)

	validate.RegisterStructValidation(studentStructValidation, NewStudent{}, ResetPassword{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// Custom Validators

func reviewStatusValidation(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case Status:
		return v.IsReview()
	case string:
		return Status(v).IsReview()
	}
	return false
}

// coursesValidation checks that at least one non blank course is selected.
func coursesValidation(fl validator.FieldLevel) bool {
	courses, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, c := range courses {
		if strings.TrimSpace(c) != "" {
			return true
		}
	}
	return false
}

func submissionKindValidation(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case Kind:
		return v.IsValid()
	case string:
		return Kind(v).IsValid()
	}
	return false
}

// studentStructValidation does struct level validation on NewStudent and ResetPassword structs.
func studentStructValidation(sl validator.StructLevel) {
	switch v := sl.Current().Interface().(type) {
	case NewStudent:
		if v.Password != "" {
			validatePassword(v.Password, v.FullName, v.Email, sl)
		}
	case ResetPassword:
		if v.Password != "" {
			validatePassword(v.Password, "", "", sl)
		}
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 6
// - no whitespace
// - no name or email similarity
func validatePassword(pwd, name, email string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	if len([]rune(pwd)) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
	}

	getRatio := func(pass, attr string) float64 {
		if attr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(strings.ToLower(pass), ""), strings.Split(strings.ToLower(attr), "")).Ratio()
	}
	localPart := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		localPart = email[:i]
	}
	if getRatio(pwd, name) >= pwdMaxSim || getRatio(pwd, localPart) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
	}
}
