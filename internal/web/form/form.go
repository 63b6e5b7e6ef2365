// Package form decodes and validates the HTML forms of the site.
package form

import (
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// Errors maps form field names to a message.
type Errors map[string]string

// Has reports whether field has an error.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

const emailCharsTag = "email_chars"

var emailCharsRegex = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// Validator validates form structs and renders error messages in English.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator creates a Validator. It is safe for concurrent use.
func NewValidator() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	translator, _ := ut.New(english, english).GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(validate, translator)

	// Use form tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(emailCharsTag, func(fl validator.FieldLevel) bool {
		return emailCharsRegex.MatchString(fl.Field().String())
	})

	override(validate, translator, emailCharsTag, "Invalid characters in email address")
	override(validate, translator, "eqfield", "Passwords must match")
	override(validate, translator, "required", "This field is required")

	return &Validator{validate: validate, translator: translator}
}

func override(validate *validator.Validate, translator ut.Translator, tag, text string) {
	_ = validate.RegisterTranslation(tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Validate returns the field errors of v, or nil when v is valid.
func (v *Validator) Validate(s any) Errors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Errors{"": err.Error()}
	}

	errs := make(Errors, len(fieldErrs))
	for _, fe := range fieldErrs {
		if _, seen := errs[fe.Field()]; !seen {
			errs[fe.Field()] = fe.Translate(v.translator)
		}
	}
	return errs
}

// Decode parses the request form into dst, a pointer to a struct whose
// string and bool fields carry a form tag. String values are trimmed,
// except for fields tagged with ",raw". A bool is true when the field is
// present with any value other than "" or "off".
func Decode(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parsing form: %w", err)
	}

	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode target must be a pointer to a struct, got %T", dst)
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("form")
		if tag == "" || tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		value := r.PostForm.Get(name)

		switch field.Type.Kind() {
		case reflect.String:
			if opts != "raw" {
				value = strings.TrimSpace(value)
			}
			rv.Field(i).SetString(value)
		case reflect.Bool:
			_, present := r.PostForm[name]
			rv.Field(i).SetBool(present && value != "" && value != "off")
		default:
			return fmt.Errorf("unsupported form field type %s for %q", field.Type, name)
		}
	}
	return nil
}
