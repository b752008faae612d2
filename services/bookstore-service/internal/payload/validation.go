package payload

import (
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/model"
	"github.com/vasapolrittideah/bookstore-api/shared/validator"
)

// NewValidator returns a validator that also knows the book enum tags used by the payloads.
func NewValidator() (*validator.Validator, error) {
	v, err := validator.New()
	if err != nil {
		return nil, err
	}

	enums := map[string][]string{
		"book_condition": toStrings(model.BookConditions),
		"book_category":  toStrings(model.BookCategories),
		"book_status":    toStrings(model.BookStatuses),
	}
	for tag, allowed := range enums {
		if err := v.RegisterEnum(tag, allowed); err != nil {
			return nil, err
		}
	}

	return v, nil
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
