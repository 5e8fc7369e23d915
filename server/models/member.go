package models

import (
	"time"
)

// Marital statuses accepted on a member record.
const (
	SOLTEIRO = "SOLTEIRO"
	CASADO   = "CASADO"
	VIUVO    = "VIUVO"
	SEPARADO = "SEPARADO"
)

// Roles. COORDENADOR has full read/write/delete over the registry,
// AGENTE is limited to their own record.
const (
	AGENTE      = "AGENTE"
	COORDENADOR = "COORDENADOR"
)

// Pastoral sectors a member can serve in.
var Sectors = []string{
	"LITURGIA",
	"CATEQUESE",
	"FAMILIA",
	"JOVENS",
	"SAUDE",
	"COMUNICACAO",
	"DIZIMO",
}

type BaseModel struct {
	ID        uint      `json:"id,omitempty" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Member is a registered volunteer(agent) record - the sole entity of
// the registry. Login is unique across the whole record set; the store
// enforces it and surfaces a constraint violation on conflict.
type Member struct {
	BaseModel
	Login         string `json:"login" validate:"required" gorm:"not null;uniqueIndex"`
	BirthDate     Date   `json:"birth_date" gorm:"not null"`
	FullName      string `json:"full_name" validate:"required"`
	MaritalStatus string `json:"marital_status" validate:"required,oneof=SOLTEIRO CASADO VIUVO SEPARADO"`
	SpouseName    string `json:"spouse_name,omitempty"`
	WeddingDate   *Date  `json:"wedding_date,omitempty"`
	Phone         string `json:"phone" validate:"required,phone_br"`
	Email         string `json:"email" validate:"required"`
	Photo         string `json:"photo,omitempty"`

	CEP          string `json:"cep" validate:"required,cep"`
	Street       string `json:"street" validate:"required"`
	Neighborhood string `json:"neighborhood" validate:"required"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required,len=2"`

	Parish       string `json:"parish" validate:"required"`
	Community    string `json:"community" validate:"required"`
	Sector       string `json:"sector" validate:"required"`
	Role         string `json:"role" validate:"required,oneof=AGENTE COORDENADOR"`
	JoinDate     Date   `json:"join_date" gorm:"not null"`
	HasVehicle   bool   `json:"has_vehicle"`
	VehicleModel string `json:"vehicle_model,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Sanitize brings a candidate record to canonical form and enforces the
// record invariants: spouse fields only exist for CASADO, vehicle model
// only exists when has_vehicle is set.
func (m *Member) Sanitize() {
	m.Login = NormalizeLogin(m.Login)
	m.Phone = NormalizePhone(m.Phone)
	m.CEP = NormalizeCEP(m.CEP)

	if m.MaritalStatus != CASADO {
		m.SpouseName = ""
		m.WeddingDate = nil
	}

	if !m.HasVehicle {
		m.VehicleModel = ""
	}
}

func (m *Member) IsCoordinator() bool {
	return m.Role == COORDENADOR
}

func validSector(sector string) bool {
	for _, s := range Sectors {
		if s == sector {
			return true
		}
	}
	return false
}
