package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/pastoralsj/registro/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	wedding := models.NewDate(2015, 9, 12)
	member := models.Member{
		Login:         "joao.silva",
		BirthDate:     models.NewDate(1990, 5, 20),
		FullName:      "João da Silva",
		MaritalStatus: models.CASADO,
		SpouseName:    "Maria da Silva",
		WeddingDate:   &wedding,
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
		Role:          models.AGENTE,
		JoinDate:      models.NewDate(2020, 2, 1),
		HasVehicle:    true,
		VehicleModel:  "Fiat Uno",
	}

	buf := bytes.Buffer{}
	require.Nil(t, WriteCSV(&buf, []models.Member{member}))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}), "must start with the UTF-8 BOM")

	records, err := csv.NewReader(bytes.NewReader(raw[3:])).ReadAll()
	require.Nil(t, err)
	require.Len(t, records, 2)

	header := records[0]
	assert.Len(t, header, 20)
	assert.Equal(t, "Nome", header[0])
	assert.Equal(t, "UF", header[11])
	assert.Equal(t, "Observacoes", header[19])

	row := records[1]
	assert.Equal(t, "João da Silva", row[0])
	assert.Equal(t, "20/05/1990", row[1])
	assert.Equal(t, "12/09/2015", row[4])
	assert.Equal(t, "Sim", row[12])
	assert.Equal(t, "Fiat Uno", row[13])
}

func TestWriteCSVEmptyOptionalFields(t *testing.T) {
	member := models.Member{
		FullName:      "Ana Souza",
		BirthDate:     models.NewDate(1985, 1, 2),
		MaritalStatus: models.SOLTEIRO,
		JoinDate:      models.NewDate(2021, 3, 4),
	}

	buf := bytes.Buffer{}
	require.Nil(t, WriteCSV(&buf, []models.Member{member}))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[3:])).ReadAll()
	require.Nil(t, err)

	row := records[1]
	assert.Equal(t, "", row[4], "no wedding date when single")
	assert.Equal(t, "Não", row[12])
}

func TestWriteSectorChartNeedsData(t *testing.T) {
	buf := bytes.Buffer{}
	assert.ErrorIs(t, WriteSectorChart(&buf, nil), ErrNoData)
}

func TestWriteSectorChartRendersPNG(t *testing.T) {
	members := []models.Member{
		{Sector: "LITURGIA"},
		{Sector: "LITURGIA"},
		{Sector: "CATEQUESE"},
	}

	buf := bytes.Buffer{}
	require.Nil(t, WriteSectorChart(&buf, members))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte{0x89, 'P', 'N', 'G'}))
}

func TestWriteMemberSheetProducesPDF(t *testing.T) {
	member := models.Member{
		FullName:      "Ana Souza",
		BirthDate:     models.NewDate(1985, 1, 2),
		MaritalStatus: models.SOLTEIRO,
		JoinDate:      models.NewDate(2021, 3, 4),
	}

	buf := bytes.Buffer{}
	require.Nil(t, WriteMemberSheet(&buf, member))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}
