package validator

import (
	"errors"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	validate  *validator.Validate
	ginOnce   sync.Once
	dateForms = []string{"2006-01-02", time.RFC3339}
)

func init() {
	validate = validator.New()
	register(validate)
}

func register(v *validator.Validate) {
	_ = v.RegisterValidation("currency", isCurrencyCode)
	_ = v.RegisterValidation("stay_date", isStayDate)
}

// RegisterGin installs the custom tags on gin's binding engine. Safe to call
// more than once.
func RegisterGin() {
	ginOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			register(v)
		}
	})
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	return Fields(validate.Struct(v))
}

// Fields flattens validation errors into field -> failed tag. It returns nil
// for anything that is not a validation error.
func Fields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if err == nil || !errors.As(err, &verrs) {
		return nil
	}

	errs := make(map[string]string, len(verrs))
	for _, e := range verrs {
		errs[e.Field()] = e.Tag()
	}
	return errs
}

// isCurrencyCode accepts three ASCII letters in either case.
func isCurrencyCode(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i] | 0x20
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

func isStayDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for _, layout := range dateForms {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
