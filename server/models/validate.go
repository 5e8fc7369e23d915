package models

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report violations under the record's json field names, so the
	// result maps straight onto form fields.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("phone_br", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == NormalizePhone(value) && len(onlyDigits(value)) == 11
	})

	_ = validate.RegisterValidation("cep", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == NormalizeCEP(value) && len(onlyDigits(value)) == 8
	})
}

// ValidateMember checks a candidate record against the field rules and
// returns a field->message map for every violation; an empty map means
// the record may be submitted. It never mutates the candidate.
func ValidateMember(m Member) map[string]string {
	fieldErrors := map[string]string{}

	if err := validate.Struct(m); err != nil {
		for _, fe := range err.(validator.ValidationErrors) {
			fieldErrors[fe.Field()] = messageFor(fe.Tag())
		}
	}

	if m.BirthDate.IsZero() {
		fieldErrors["birth_date"] = "Campo obrigatório"
	}

	if m.JoinDate.IsZero() {
		fieldErrors["join_date"] = "Campo obrigatório"
	}

	if m.MaritalStatus == CASADO {
		if strings.TrimSpace(m.SpouseName) == "" {
			fieldErrors["spouse_name"] = "Campo obrigatório"
		}
		if m.WeddingDate == nil || m.WeddingDate.IsZero() {
			fieldErrors["wedding_date"] = "Campo obrigatório"
		}
	}

	if m.HasVehicle && strings.TrimSpace(m.VehicleModel) == "" {
		fieldErrors["vehicle_model"] = "Campo obrigatório"
	}

	if m.Sector != "" && !validSector(m.Sector) {
		fieldErrors["sector"] = "Setor inválido"
	}

	if m.Email != "" && !validEmail(m.Email) {
		fieldErrors["email"] = "E-mail inválido"
	}

	return fieldErrors
}

// validEmail applies the registry's simple rule: an '@' with a '.'
// somewhere after it.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 {
		return false
	}
	return strings.Contains(email[at:], ".")
}

func messageFor(tag string) string {
	switch tag {
	case "required":
		return "Campo obrigatório"
	case "oneof":
		return "Valor inválido"
	case "len":
		return "UF deve ter 2 letras"
	case "phone_br":
		return "Telefone inválido"
	case "cep":
		return "CEP inválido"
	}
	return "Valor inválido"
}
