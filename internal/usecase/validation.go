package usecase

import (
	"errors"
	"net/http"

	"github.com/IgesAI/AMautomation/internal/validator"
)

// validateInput はタグで入力を検証し、違反を 400 にする。
// messages は "field.tag" か "field" ごとの文言。なければ既定の文言。
func validateInput(in interface{}, messages map[string]string) error {
	err := validator.Struct(in)
	if err == nil {
		return nil
	}
	var fe *validator.FieldError
	if !errors.As(err, &fe) {
		return NewHTTPError(http.StatusInternalServerError, "validation error")
	}
	if m, ok := messages[fe.Field+"."+fe.Tag]; ok {
		return NewHTTPError(http.StatusBadRequest, m)
	}
	if m, ok := messages[fe.Field]; ok {
		return NewHTTPError(http.StatusBadRequest, m)
	}
	return NewHTTPError(http.StatusBadRequest, fe.Message())
}
