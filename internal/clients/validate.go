package clients

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator"
	"github.com/koustreak/clientbook/internal/errs"
)

// phonePattern allows up to 15 digits with an optional leading +,
// matching the varchar(15) number column.
var phonePattern = regexp.MustCompile(`^\+?[0-9]{1,14}$|^[0-9]{15}$`)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("phone_number", func(fl validator.FieldLevel) bool {
		return IsValidPhoneNumber(fl.Field().String())
	})
}

// IsValidPhoneNumber reports whether number fits the phone column.
func IsValidPhoneNumber(number string) bool {
	return phonePattern.MatchString(number)
}

func validateRecord(r *ClientRecord) error {
	if err := validate.Struct(r); err != nil {
		return invalid(err)
	}
	return nil
}

func validatePhone(number string) error {
	if err := validate.Var(number, "required,phone_number"); err != nil {
		return errs.Newf(errs.ErrKindInvalidInput, "invalid phone number %q", number)
	}
	return nil
}

// invalid flattens validator errors into one invalid_input error.
func invalid(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errs.Wrap(errs.ErrKindInvalidInput, "validation failed", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return errs.Wrap(errs.ErrKindInvalidInput, strings.Join(fields, "; "), err)
}
