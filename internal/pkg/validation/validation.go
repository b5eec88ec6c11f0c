// Package validation wraps a shared go-playground validator.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates s against its `validate` tags. Field errors are flattened
// into one message using the mapstructure or json name where present.
func Struct(s any) error {
	if err := validate.Struct(s); err != nil {
		return flatten(err)
	}
	return nil
}

// Each validates every element of items and reports the first failing index.
func Each[T any](items []T) error {
	for i := range items {
		if err := validate.Struct(items[i]); err != nil {
			return fmt.Errorf("item %d: %w", i, flatten(err))
		}
	}
	return nil
}

func flatten(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fieldPath(fe.Namespace()), describe(fe)))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// fieldPath drops the root struct name: "Config.Server.Port" -> "Server.Port".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fmt.Sprintf("%s=%s (got %v)", fe.Tag(), fe.Param(), fe.Value())
}
