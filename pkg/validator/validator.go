package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"anoa.com/studentms/pkg/apperror"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// CNICPattern is the national identity card / B-form layout XXXXX-XXXXXXX-X.
var CNICPattern = regexp.MustCompile(`^\d{5}-\d{7}-\d{1}$`)

var (
	engine     *validator.Validate
	engineOnce sync.Once
)

// IsCNIC reports whether s is a well-formed CNIC.
func IsCNIC(s string) bool {
	return CNICPattern.MatchString(s)
}

func validateCNIC(fl validator.FieldLevel) bool {
	return IsCNIC(fl.Field().String())
}

// RegisterRules installs the custom tags and json field naming on v.
func RegisterRules(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	return v.RegisterValidation("cnic", validateCNIC)
}

// RegisterGin installs the custom rules on gin's binding validator.
func RegisterGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}
	return RegisterRules(v)
}

// Engine returns the standalone validator used outside request binding. It
// reads the same `binding` tags as gin so DTO rules are declared once.
func Engine() *validator.Validate {
	engineOnce.Do(func() {
		engine = validator.New(validator.WithRequiredStructEnabled())
		engine.SetTagName("binding")
		if err := RegisterRules(engine); err != nil {
			panic(err)
		}
	})
	return engine
}

// ValidateStruct validates s and reports the first failing field as an
// apperror.ValidationError.
func ValidateStruct(s interface{}) error {
	err := Engine().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		return &apperror.ValidationError{Field: fe.Field(), Message: getFieldErrorMessage(fe)}
	}
	return err
}

func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, fieldError := range validationErrors {
			messages = append(messages, fmt.Sprintf("%s %s", fieldError.Field(), getFieldErrorMessage(fieldError)))
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

func getFieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "cnic":
		return "must be in the format XXXXX-XXXXXXX-X"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "datetime":
		return fmt.Sprintf("must be a date in the format %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return "is invalid"
	}
}
