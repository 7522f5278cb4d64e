package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/correspondente/dossie-engine/constants"
)

// Dossier represents one applicant's processed dossier for data transfer
// between layers. Profile and Decision carry the consolidated pipeline
// outputs verbatim; the scalar columns exist for listing and export.
type Dossier struct {
	ID            uuid.UUID               `json:"id"`
	ApplicantName *string                 `json:"applicant_name,omitempty"`
	CPF           *string                 `json:"cpf,omitempty"`
	Enquadramento string                  `json:"enquadramento,omitempty"`
	Imobiliaria   *string                 `json:"imobiliaria,omitempty"`
	PropertyValue *decimal.Decimal        `json:"property_value,omitempty"`
	Status        constants.DossierStatus `json:"status"`
	Profile       json.RawMessage         `json:"profile"`
	Decision      json.RawMessage         `json:"decision"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}
