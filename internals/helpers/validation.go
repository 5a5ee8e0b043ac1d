package helper

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
	translator   ut.Translator
)

const requiredText = "this field is required"

// Validator returns the shared validator with english messages keyed by JSON field names.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		enLocale := en.New()
		translator, _ = ut.New(enLocale, enLocale).GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(validate, translator)

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		for _, tag := range []string{"required", "required_with", "required_if"} {
			tag := tag
			_ = validate.RegisterTranslation(tag, translator,
				func(t ut.Translator) error { return t.Add(tag, requiredText, true) },
				func(t ut.Translator, fe validator.FieldError) string {
					s, _ := t.T(tag, fe.Field())
					return s
				},
			)
		}
	})
	return validate
}

// ValidateStruct returns nil or a field → messages map.
func ValidateStruct(v any) map[string][]string {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string][]string{"_": {err.Error()}}
	}
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		key := fieldKey(fe)
		out[key] = append(out[key], fe.Translate(translator))
	}
	return out
}

func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// BindAndValidate parses the JSON body into dst and validates it.
func BindAndValidate(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return FieldError("body", "invalid json: "+err.Error())
	}
	if fields := ValidateStruct(dst); fields != nil {
		return NewValidation(fields)
	}
	return nil
}
