package profile

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Professions offered by the onboarding questionnaire.
const (
	ProfessionStudent      = "Student"
	ProfessionFresher      = "Fresher"
	ProfessionProfessional = "Working Professional"
)

// Departments a working professional can pick.
var Departments = []string{"HR", "Marketing", "Sales", "Operations", "Finance", "Product", "IT", "Other"}

// Onboarding holds the answers collected before Day 1. Students and
// freshers skip everything after the profession question.
type Onboarding struct {
	Name         string `json:"name" validate:"required,notblank,max=100"`
	Profession   string `json:"profession" validate:"required,oneof=Student Fresher 'Working Professional'"`
	Organization string `json:"organization,omitempty" validate:"max=200"`
	Department   string `json:"department,omitempty" validate:"omitempty,oneof=HR Marketing Sales Operations Finance Product IT Other"`
	Role         string `json:"role,omitempty" validate:"max=100"`
	CTC          string `json:"ctc,omitempty" validate:"max=50"`
}

const (
	notBlankTag         = "notblank"
	professionFieldsTag = "required_for_professional"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	validate.RegisterStructValidation(onboardingStructValidation, Onboarding{})

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, professionFieldsTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustomErr)
	}
}

func translateCustomErr(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return "this field cannot be blank"
	case professionFieldsTag:
		return "required for working professionals"
	default:
		return ""
	}
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// onboardingStructValidation requires the workplace answers only from
// working professionals.
func onboardingStructValidation(sl validator.StructLevel) {
	o, ok := sl.Current().Interface().(Onboarding)
	if !ok || o.Profession != ProfessionProfessional {
		return
	}
	if strings.TrimSpace(o.Organization) == "" {
		sl.ReportError(o.Organization, "organization", "Organization", professionFieldsTag, "")
	}
	if o.Department == "" {
		sl.ReportError(o.Department, "department", "Department", professionFieldsTag, "")
	}
	if strings.TrimSpace(o.Role) == "" {
		sl.ReportError(o.Role, "role", "Role", professionFieldsTag, "")
	}
}

// ValidationError maps field names to readable messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid onboarding: " + strings.Join(parts, "; ")
}

// Validate checks the answers. It returns *ValidationError for bad input.
func (o Onboarding) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Translate(translator)
	}
	return &ValidationError{Fields: fields}
}

// Normalized drops workplace answers that do not apply to the profession.
func (o Onboarding) Normalized() Onboarding {
	o.Name = strings.TrimSpace(o.Name)
	if o.Profession != ProfessionProfessional {
		o.Organization, o.Department, o.Role, o.CTC = "", "", "", ""
	}
	return o
}
