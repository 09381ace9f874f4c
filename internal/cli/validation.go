package cli

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tfkr-ae/trustreg/domain"
)

// certificateInput is the validated input of the add command.
type certificateInput struct {
	Source       string `flag:"name" validate:"required"`
	Fingerprint  string `flag:"fingerprint" validate:"required,hexadecimal"`
	Subject      string `flag:"subject" validate:"required"`
	Algorithm    string `flag:"algorithm" validate:"required,hash_algorithm"`
	Priority     int    `flag:"priority"`
	ServiceIndex string `flag:"service-index" validate:"omitempty,url"`
}

var inputValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("flag")
	})
	_ = v.RegisterValidation("hash_algorithm", validateHashAlgorithm)
	return v
}

func validateHashAlgorithm(fl validator.FieldLevel) bool {
	_, ok := domain.ParseHashAlgorithmName(fl.Field().String())
	return ok
}

// validationError turns validator errors into one message naming the offending flags.
func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}

	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "hash_algorithm":
			msgs = append(msgs, fmt.Sprintf("%s: unsupported hash algorithm %q", fe.Field(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: %q is not a valid %s", fe.Field(), fe.Value(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid input: %s", strings.Join(msgs, "; "))
}

func (in certificateInput) validate() error {
	if err := inputValidator.Struct(in); err != nil {
		return validationError(err)
	}
	return nil
}

func validateServiceIndex(url string) error {
	if err := inputValidator.Var(url, "required,url"); err != nil {
		return fmt.Errorf("invalid service index %q: %w", url, err)
	}
	return nil
}

// validateSource applies the add command's checks to every certificate of an imported source.
func validateSource(source *domain.TrustedSource) error {
	if err := inputValidator.Var(source.SourceName, "required"); err != nil {
		return errors.New("invalid input: trusted source without a name")
	}
	if source.ServiceIndex != "" {
		if err := validateServiceIndex(source.ServiceIndex); err != nil {
			return fmt.Errorf("trusted source %s: %w", source.SourceName, err)
		}
	}

	for _, cert := range source.Certificates {
		in := certificateInput{
			Source:       source.SourceName,
			Fingerprint:  cert.Fingerprint,
			Subject:      cert.SubjectName,
			Algorithm:    cert.Algorithm.String(),
			Priority:     cert.Priority,
			ServiceIndex: source.ServiceIndex,
		}
		if err := in.validate(); err != nil {
			return fmt.Errorf("trusted source %s: %w", source.SourceName, err)
		}
	}
	return nil
}
