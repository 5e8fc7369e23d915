package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validMember() Member {
	return Member{
		Login:         "joao.silva",
		BirthDate:     NewDate(1990, 5, 20),
		FullName:      "João da Silva",
		MaritalStatus: SOLTEIRO,
		Phone:         "(11) 98765-4321",
		Email:         "joao@exemplo.com.br",
		CEP:           "01310-930",
		Street:        "Avenida Paulista",
		Neighborhood:  "Bela Vista",
		City:          "São Paulo",
		State:         "SP",
		Parish:        "Paróquia São José",
		Community:     "Matriz",
		Sector:        "CATEQUESE",
		Role:          AGENTE,
		JoinDate:      NewDate(2020, 2, 1),
	}
}

func TestValidateMemberAcceptsValidRecord(t *testing.T) {
	assert.Empty(t, ValidateMember(validMember()))
}

func TestValidateMemberRequiredFields(t *testing.T) {
	fieldErrors := ValidateMember(Member{})

	for _, field := range []string{
		"login", "birth_date", "full_name", "marital_status", "phone", "email",
		"cep", "street", "neighborhood", "city", "state",
		"parish", "community", "sector", "role", "join_date",
	} {
		assert.Contains(t, fieldErrors, field)
	}

	// Conditional fields aren't required on an empty record
	assert.NotContains(t, fieldErrors, "spouse_name")
	assert.NotContains(t, fieldErrors, "wedding_date")
	assert.NotContains(t, fieldErrors, "vehicle_model")
}

func TestValidateMemberSpouseFieldsOnlyRequiredWhenMarried(t *testing.T) {
	m := validMember()
	m.MaritalStatus = CASADO

	fieldErrors := ValidateMember(m)
	assert.Equal(t, "Campo obrigatório", fieldErrors["spouse_name"])
	assert.Equal(t, "Campo obrigatório", fieldErrors["wedding_date"])

	wedding := NewDate(2015, 9, 12)
	m.SpouseName = "Maria da Silva"
	m.WeddingDate = &wedding
	assert.Empty(t, ValidateMember(m))

	for _, status := range []string{SOLTEIRO, VIUVO, SEPARADO} {
		m := validMember()
		m.MaritalStatus = status

		fieldErrors := ValidateMember(m)
		assert.NotContains(t, fieldErrors, "spouse_name", "status %v", status)
		assert.NotContains(t, fieldErrors, "wedding_date", "status %v", status)
	}
}

func TestValidateMemberVehicleModelRequiredWithVehicle(t *testing.T) {
	m := validMember()
	m.HasVehicle = true

	fieldErrors := ValidateMember(m)
	assert.Equal(t, "Campo obrigatório", fieldErrors["vehicle_model"])

	m.VehicleModel = "Fiat Uno"
	assert.Empty(t, ValidateMember(m))
}

func TestValidateMemberEmailRule(t *testing.T) {
	m := validMember()

	m.Email = "joao"
	assert.Contains(t, ValidateMember(m), "email")

	m.Email = "joao@exemplo"
	assert.Contains(t, ValidateMember(m), "email", "needs a dot after the @")

	m.Email = "joao@exemplo.com"
	assert.NotContains(t, ValidateMember(m), "email")
}

func TestValidateMemberMasks(t *testing.T) {
	m := validMember()

	m.Phone = "11987654321"
	assert.Equal(t, "Telefone inválido", ValidateMember(m)["phone"])

	m = validMember()
	m.CEP = "0131093"
	assert.Equal(t, "CEP inválido", ValidateMember(m)["cep"])
}

func TestValidateMemberEnums(t *testing.T) {
	m := validMember()
	m.MaritalStatus = "NAMORANDO"
	assert.Contains(t, ValidateMember(m), "marital_status")

	m = validMember()
	m.Sector = "INEXISTENTE"
	assert.Equal(t, "Setor inválido", ValidateMember(m)["sector"])

	m = validMember()
	m.Role = "CHEFE"
	assert.Contains(t, ValidateMember(m), "role")
}

func TestValidateMemberDoesNotMutateCandidate(t *testing.T) {
	m := validMember()
	m.MaritalStatus = CASADO
	m.SpouseName = ""

	before := m
	ValidateMember(m)
	assert.Equal(t, before, m)
}

func TestSanitizeClearsConditionalFields(t *testing.T) {
	wedding := NewDate(2015, 9, 12)

	m := validMember()
	m.SpouseName = "Maria"
	m.WeddingDate = &wedding
	m.VehicleModel = "Fiat Uno"

	m.Sanitize()

	assert.Empty(t, m.SpouseName, "spouse fields cleared when not CASADO")
	assert.Nil(t, m.WeddingDate)
	assert.Empty(t, m.VehicleModel, "vehicle model cleared without vehicle")
}
