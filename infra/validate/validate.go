package validate

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	e164Pattern         = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
	indianMobilePattern = regexp.MustCompile(`^\+91[6-9]\d{9}$`)
)

// now is swapped in tests
var now = time.Now

// CustomValidate returns a validator with the project rules registered:
//
//	mobile: E.164 phone number, +91 numbers must be 10 digit mobiles
//	future: time.Time strictly after now
func CustomValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("mobile", validateMobile)
	_ = v.RegisterValidation("future", validateFuture)

	return v
}

// IsMobile reports whether value is an acceptable contact number
func IsMobile(value string) bool {
	if !e164Pattern.MatchString(value) {
		return false
	}
	if strings.HasPrefix(value, "+91") {
		return indianMobilePattern.MatchString(value)
	}
	return true
}

func validateMobile(fl validator.FieldLevel) bool {
	return IsMobile(fl.Field().String())
}

func validateFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return t.After(now())
}
