package httpapi

import (
	"fmt"
	"math"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// registerValidators installs custom tags on gin's validator engine.
func registerValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err = v.RegisterValidation("currency_code", validateCurrencyCode); err != nil {
			return
		}
		err = v.RegisterValidation("finite", validateFinite)
	})
	return err
}

// validateCurrencyCode accepts three ASCII letters in either case. Registry
// membership is checked by the converter so unknown codes get a domain error.
func validateCurrencyCode(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		ch := code[i] | 0x20
		if ch < 'a' || ch > 'z' {
			return false
		}
	}
	return true
}

// validateFinite rejects NaN and infinities, which strconv happily parses
// from query strings.
func validateFinite(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
