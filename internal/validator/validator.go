// Package validator は go-playground/validator による入力チェック。
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// エラーのフィールド名は json タグの名前
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	// decimal は float64 として gte / gt を効かせる
	validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
		d, ok := v.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		f, _ := d.Float64()
		return f
	}, decimal.Decimal{})

	// 空白だけの文字列も未入力とみなす
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// FieldError は最初に見つかったタグ違反
type FieldError struct {
	Field string
	Tag   string
	Param string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: failed on %s", e.Field, e.Tag)
}

// Message はそのまま 400 の本文に使える文言
func (e *FieldError) Message() string {
	switch e.Tag {
	case "required", "notblank":
		return "Missing required field: " + e.Field
	case "gte":
		return e.Field + " must be >= " + e.Param
	case "gt":
		return e.Field + " must be > " + e.Param
	case "email":
		return "Invalid email address"
	default:
		return "invalid " + e.Field
	}
}

// Struct はタグで検証する。違反があれば最初の1件を *FieldError で返す。
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		return &FieldError{Field: ves[0].Field(), Tag: ves[0].Tag(), Param: ves[0].Param()}
	}
	return err
}

// Email はメールアドレスの形式か（前後の空白は無視）
func Email(s string) bool {
	return validate.Var(strings.TrimSpace(s), "required,email") == nil
}
