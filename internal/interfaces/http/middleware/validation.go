package middleware

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/clearbook/backend/internal/interfaces/http/dto"
)

var (
	accountCodePattern = regexp.MustCompile(`^[0-9][0-9.]{0,19}$`)
	registerOnce       sync.Once
	registerErr        error
)

// RegisterValidators installs the ClearBook tags on gin's validator:
//
//	account_code  1-20 characters, digits and dots, starting with a digit
//	decimal_gt0   a decimal strictly greater than zero
//
// decimal.Decimal fields are validated through their string form, so
// decimal_gt0 works on both decimal and string fields. Field names in
// errors follow the json (or form) tag.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.String()
			}
			return nil
		}, decimal.Decimal{})
		if err := v.RegisterValidation("account_code", validAccountCode); err != nil {
			registerErr = err
			return
		}
		registerErr = v.RegisterValidation("decimal_gt0", decimalGreaterThanZero)
	})
	return registerErr
}

func validAccountCode(fl validator.FieldLevel) bool {
	return accountCodePattern.MatchString(fl.Field().String())
}

func decimalGreaterThanZero(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && d.IsPositive()
}

// ValidationDetails converts binding errors into per-field details. It
// returns nil when err is not a validation error.
func ValidationDetails(err error) []dto.ValidationDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]dto.ValidationDetail, 0, len(verrs))
	for _, e := range verrs {
		details = append(details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: validationMessage(e),
		})
	}
	return details
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "oneof":
		return "Must be one of: " + e.Param()
	case "datetime":
		return "Must be a date in the format " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "account_code":
		return "Must be 1-20 digits and dots, starting with a digit"
	case "decimal_gt0":
		return "Must be a positive amount"
	default:
		return "Invalid value"
	}
}
