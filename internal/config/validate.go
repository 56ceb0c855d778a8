package config

import (
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vango-dev/composables/internal/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if s == "" {
				return true
			}
			d, err := time.ParseDuration(s)
			return err == nil && d >= 0
		})

		validateInst = v
	})
	return validateInst
}

// Validate checks if the configuration is valid. An unknown backend fails
// with E203, every other violation with E401 naming the field.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendBolt, BackendS3:
	default:
		return errors.New("E203").WithDetailf("storage.backend %q", c.Storage.Backend)
	}

	if err := validatorInstance().Struct(c); err != nil {
		return convertValidationError(err)
	}
	return nil
}

func convertValidationError(err error) error {
	var ves validator.ValidationErrors
	if stderrors.As(err, &ves) && len(ves) > 0 {
		ve := ves[0]
		return errors.New("E401").
			WithDetailf("%s failed validation for tag '%s'", fieldName(ve), ve.Tag()).
			Wrap(err)
	}
	return errors.New("E401").Wrap(err)
}

// fieldName turns "Config.Hub.ShutdownTimeout" into "hub.shutdownTimeout".
func fieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}
