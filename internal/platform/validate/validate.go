package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(func(f reflect.StructField) string {
			return jsonName(f.Tag.Get("json"), f.Name)
		})
	})
	return instance
}

// Struct validates v against its `validate` tags and flattens failures into a
// single readable error ("field: rule").
func Struct(v any) error {
	err := get().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Var validates a single value against a tag expression.
func Var(field string, v any, tag string) error {
	if err := get().Var(v, tag); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s: %s", field, ruleText(verrs[0]))
		}
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	return fmt.Sprintf("%s: %s", fe.Field(), ruleText(fe))
}

func ruleText(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}

func jsonName(tag, fallback string) string {
	name := strings.SplitN(tag, ",", 2)[0]
	if name == "" || name == "-" {
		return fallback
	}
	return name
}
