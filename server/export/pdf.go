package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/pastoralsj/registro/server/models"
)

// WriteMemberSheet renders the printable one-page sheet for a record.
func WriteMemberSheet(w io.Writer, m models.Member) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 12, tr("Ficha do Agente Pastoral"), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	embedPhoto(pdf, m.Photo)

	section(pdf, tr, "Dados pessoais")
	fieldLine(pdf, tr, "Nome", m.FullName)
	fieldLine(pdf, tr, "Nascimento", displayDate(&m.BirthDate))
	fieldLine(pdf, tr, "Estado civil", m.MaritalStatus)
	if m.MaritalStatus == models.CASADO {
		fieldLine(pdf, tr, "Cônjuge", m.SpouseName)
		fieldLine(pdf, tr, "Casamento", displayDate(m.WeddingDate))
	}
	fieldLine(pdf, tr, "Telefone", m.Phone)
	fieldLine(pdf, tr, "E-mail", m.Email)

	section(pdf, tr, "Endereço")
	fieldLine(pdf, tr, "CEP", m.CEP)
	fieldLine(pdf, tr, "Logradouro", m.Street)
	fieldLine(pdf, tr, "Bairro", m.Neighborhood)
	fieldLine(pdf, tr, "Cidade/UF", fmt.Sprintf("%s/%s", m.City, m.State))

	section(pdf, tr, "Pastoral")
	fieldLine(pdf, tr, "Paróquia", m.Parish)
	fieldLine(pdf, tr, "Comunidade", m.Community)
	fieldLine(pdf, tr, "Setor", m.Sector)
	fieldLine(pdf, tr, "Função", m.Role)
	fieldLine(pdf, tr, "Ingresso", displayDate(&m.JoinDate))
	fieldLine(pdf, tr, "Possui veículo", displayBool(m.HasVehicle))
	if m.HasVehicle {
		fieldLine(pdf, tr, "Veículo", m.VehicleModel)
	}

	if m.Notes != "" {
		section(pdf, tr, "Observações")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(m.Notes), "", "L", false)
	}

	return pdf.Output(w)
}

func section(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, tr(title), "B", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func fieldLine(pdf *gofpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(45, 6, tr(label+":"), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
}

// embedPhoto places the record photo top-right when one is present and
// decodes cleanly; a bad payload just leaves the sheet photoless.
func embedPhoto(pdf *gofpdf.Fpdf, encoded string) {
	if encoded == "" {
		return
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return
	}

	imageType := ""
	switch {
	case len(data) > 3 && data[0] == 0x89 && data[1] == 'P' && data[2] == 'N' && data[3] == 'G':
		imageType = "PNG"
	case len(data) > 1 && data[0] == 0xFF && data[1] == 0xD8:
		imageType = "JPG"
	default:
		return
	}

	opts := gofpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader("member-photo", opts, bytes.NewReader(data))
	pdf.ImageOptions("member-photo", 165, 28, 30, 0, false, opts, 0, "")
}
