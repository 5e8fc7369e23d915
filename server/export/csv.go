// Package export produces the registry's file outputs: the CSV dump,
// the per-record PDF sheet and the report chart.
package export

import (
	"encoding/csv"
	"io"

	"github.com/pastoralsj/registro/server/models"
)

const displayDateLayout = "02/01/2006"

// Column set and order are fixed; importers downstream depend on it.
var csvHeader = []string{
	"Nome",
	"Nascimento",
	"EstadoCivil",
	"Conjuge",
	"Casamento",
	"Telefone",
	"Email",
	"CEP",
	"Endereco",
	"Bairro",
	"Cidade",
	"UF",
	"PossuiVeiculo",
	"Veiculo",
	"Paroquia",
	"Comunidade",
	"Setor",
	"Funcao",
	"Ingresso",
	"Observacoes",
}

// WriteCSV dumps the records as UTF-8 CSV with a BOM, so spreadsheet
// apps pick up the encoding.
func WriteCSV(w io.Writer, members []models.Member) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, m := range members {
		if err := cw.Write(csvRow(m)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvRow(m models.Member) []string {
	return []string{
		m.FullName,
		displayDate(&m.BirthDate),
		m.MaritalStatus,
		m.SpouseName,
		displayDate(m.WeddingDate),
		m.Phone,
		m.Email,
		m.CEP,
		m.Street,
		m.Neighborhood,
		m.City,
		m.State,
		displayBool(m.HasVehicle),
		m.VehicleModel,
		m.Parish,
		m.Community,
		m.Sector,
		m.Role,
		displayDate(&m.JoinDate),
		m.Notes,
	}
}

func displayDate(d *models.Date) string {
	if d == nil || d.IsZero() {
		return ""
	}
	return d.UTC().Format(displayDateLayout)
}

func displayBool(value bool) string {
	if value {
		return "Sim"
	}
	return "Não"
}
