// Package validation turns struct tags into the per-field pt-BR messages the
// API returns as {"errors": {"field": ["message"]}}.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/jmfitness/studio-management/internal"
)

const DateLayout = "2006-01-02"

var (
	validate = newValidator()

	digitsOnly = regexp.MustCompile(`^\d+$`)
	hhmm       = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	nonDigit   = regexp.MustCompile(`\D`)
)

// labels gives the human name used inside messages. Unknown fields fall back
// to their json name.
var labels = map[string]string{
	"name":                   "Nome",
	"email":                  "E-mail",
	"cpf":                    "CPF",
	"telephone":              "Telefone",
	"address":                "Endereço",
	"bornDate":               "Data de nascimento",
	"sex":                    "Sexo",
	"password":               "Senha",
	"confirmPassword":        "Confirmação de senha",
	"token":                  "Token",
	"position":               "Cargo",
	"shift":                  "Turno",
	"shiftStartTime":         "Início do turno",
	"shiftEndTime":           "Fim do turno",
	"salaryInCents":          "Salário",
	"hireDate":               "Data de contratação",
	"monthlyFeeValueInCents": "Mensalidade",
	"paymentMethod":          "Forma de pagamento",
	"dueDate":                "Vencimento",
	"description":            "Descrição",
	"category":               "Categoria",
	"amountInCents":          "Valor",
	"paymentDate":            "Data de pagamento",
	"notes":                  "Observações",
	"heightCm":               "Altura",
	"weightKg":               "Peso",
	"date":                   "Data",
	"checkInTime":            "Entrada",
	"checkOutTime":           "Saída",
	"employeeId":             "Funcionário",
	"studentId":              "Aluno",
	"identifier":             "Identificador",
	"month":                  "Mês",
	"year":                   "Ano",
	"role":                   "Perfil",
	"isActive":               "Status",
	"paid":                   "Status de pagamento",
	"salaryChangeReason":     "Motivo da alteração",
	"salaryEffectiveDate":    "Data de vigência",
	"bloodType":              "Tipo sanguíneo",
	"q":                      "Busca",
	"start":                  "Data inicial",
	"end":                    "Data final",
}

// feminine labels take "obrigatória".
var feminine = map[string]bool{
	"bornDate": true, "password": true, "confirmPassword": true, "hireDate": true,
	"monthlyFeeValueInCents": true, "paymentMethod": true, "description": true,
	"category": true, "paymentDate": true, "heightCm": true, "date": true,
	"checkInTime": true, "checkOutTime": true, "salaryEffectiveDate": true, "q": true,
	"start": true, "end": true,
}

// units is appended to numeric bounds, e.g. "Altura deve ser pelo menos 100cm".
var units = map[string]string{
	"heightCm": "cm",
	"weightKg": "kg",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) == 11 && digitsOnly.MatchString(s)
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmm.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(DateLayout, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("dueday", func(fl validator.FieldLevel) bool {
		d := fl.Field().Int()
		return d >= 1 && d <= 10
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// Struct validates s and returns nil or a validation AppError carrying the
// failing fields.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewInternalError("Erro de validação", err)
	}

	fields := apperrors.FieldErrors{}
	for _, fe := range verrs {
		fields.Add(fe.Field(), Message(fe))
	}
	return apperrors.NewValidationErrors(fields)
}

// Message renders a single validator error in pt-BR.
func Message(fe validator.FieldError) string {
	label := Label(fe.Field())

	switch fe.Tag() {
	case "required", "required_without", "notblank":
		if feminine[fe.Field()] {
			return fmt.Sprintf("%s é obrigatória", label)
		}
		return fmt.Sprintf("%s é obrigatório", label)
	case "email":
		return "E-mail deve ter formato válido"
	case "cpf":
		return "CPF deve ter 11 dígitos"
	case "hhmm":
		return fmt.Sprintf("%s deve estar no formato HH:MM", label)
	case "date":
		return fmt.Sprintf("%s deve ser uma data válida (AAAA-MM-DD)", label)
	case "dueday":
		return "Dia de vencimento deve estar entre 1 e 10"
	case "eqfield":
		return "As senhas não coincidem"
	case "oneof":
		return fmt.Sprintf("%s deve ser um de: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return fmt.Sprintf("%s deve ser uma URL válida", label)
	case "uuid", "uuid4":
		return fmt.Sprintf("%s inválido", label)
	case "gt":
		return fmt.Sprintf("%s deve ser maior que %s", label, fe.Param())
	case "len":
		return fmt.Sprintf("%s deve ter %s caracteres", label, fe.Param())
	case "min":
		if isText(fe) {
			return fmt.Sprintf("%s deve ter pelo menos %s caracteres", label, fe.Param())
		}
		return fmt.Sprintf("%s deve ser pelo menos %s%s", label, fe.Param(), units[fe.Field()])
	case "max":
		if isText(fe) {
			return fmt.Sprintf("%s deve ter no máximo %s caracteres", label, fe.Param())
		}
		return fmt.Sprintf("%s deve ser no máximo %s%s", label, fe.Param(), units[fe.Field()])
	}
	return fmt.Sprintf("%s inválido", label)
}

func Label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	return field
}

func isText(fe validator.FieldError) bool {
	return fe.Kind() == reflect.String
}

// Digits strips every non-digit, so "123.456.789-09" becomes "12345678909".
func Digits(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// ParseDate parses a YYYY-MM-DD value already checked by the "date" tag.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// ParseOptionalDate returns nil for a nil or empty string.
func ParseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
