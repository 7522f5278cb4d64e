package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/correspondente/dossie-engine/constants"
	"github.com/correspondente/dossie-engine/internal/common"
	"github.com/correspondente/dossie-engine/internal/dossier"
	"github.com/correspondente/dossie-engine/internal/eligibility"
	"github.com/correspondente/dossie-engine/internal/entity"
	"github.com/correspondente/dossie-engine/internal/pipeline"
)

type submitDocument struct {
	Source   string `json:"source,omitempty"`
	Category string `json:"category,omitempty"`
	Text     string `json:"text"`
}

type createDossierRequest struct {
	ApplicantName string           `json:"applicant_name,omitempty"`
	Imobiliaria   string           `json:"imobiliaria,omitempty"`
	PropertyValue string           `json:"property_value,omitempty"` // decimal, "250000.00"
	ReferenceDate string           `json:"reference_date,omitempty"` // YYYY-MM-DD, defaults to now
	Documents     []submitDocument `json:"documents"`
}

type createDossierResponse struct {
	ID       uuid.UUID                `json:"id"`
	Status   constants.DossierStatus  `json:"status"`
	Profile  dossier.ApplicantProfile `json:"profile"`
	Decision eligibility.Decision     `json:"decision"`
}

func (s *Server) handleCreateDossier(w http.ResponseWriter, r *http.Request) {
	var req createDossierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, common.NewAppError("BAD_JSON", "decode request body", common.ErrInvalidInput))
		return
	}
	if len(req.Documents) == 0 {
		s.writeError(w, common.NewAppError("NO_DOCUMENTS", "at least one document is required", common.ErrInvalidInput))
		return
	}
	v := common.NewValidator()
	for i, sd := range req.Documents {
		v.Field(fmt.Sprintf("documents[%d].text", i), sd.Text, common.Required)
	}
	if err := v.Error(); err != nil {
		s.writeError(w, err)
		return
	}

	ref := time.Time{}
	if req.ReferenceDate != "" {
		t, err := time.Parse("2006-01-02", req.ReferenceDate)
		if err != nil {
			s.writeError(w, common.NewAppError("BAD_DATE", "reference_date must be YYYY-MM-DD", common.ErrInvalidInput))
			return
		}
		ref = t.UTC()
	}

	var propertyValue *decimal.Decimal
	if req.PropertyValue != "" {
		v, err := decimal.NewFromString(req.PropertyValue)
		if err != nil {
			s.writeError(w, common.NewAppError("BAD_VALUE", "property_value must be a decimal string", common.ErrInvalidInput))
			return
		}
		propertyValue = &v
	}

	docs := make([]pipeline.Document, 0, len(req.Documents))
	for i, sd := range req.Documents {
		declared := constants.Unknown
		if sd.Category != "" {
			cat, ok := constants.Canonicalize(sd.Category)
			if !ok {
				s.writeError(w, common.NewAppError("BAD_CATEGORY",
					fmt.Sprintf("documents[%d]: unknown category %q", i, sd.Category), common.ErrInvalidInput))
				return
			}
			declared = cat
		}
		docs = append(docs, pipeline.Document{
			Source:   sd.Source,
			Declared: declared,
			Content:  pipeline.StaticText(sd.Text),
		})
	}

	id := uuid.New()
	profile, decision, err := s.processor.ProcessDossier(r.Context(), id, docs, ref)
	if err != nil {
		s.writeError(w, err)
		return
	}

	d, err := toEntity(id, req, profile, decision, propertyValue)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.repo.Save(r.Context(), d); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, createDossierResponse{
		ID:       id,
		Status:   d.Status,
		Profile:  profile,
		Decision: decision,
	})
}

func toEntity(id uuid.UUID, req createDossierRequest, profile dossier.ApplicantProfile, decision eligibility.Decision, propertyValue *decimal.Decimal) (*entity.Dossier, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	decisionJSON, err := json.Marshal(decision)
	if err != nil {
		return nil, fmt.Errorf("marshal decision: %w", err)
	}

	name := profile.FullName
	if req.ApplicantName != "" {
		name = &req.ApplicantName
	}
	var imobiliaria *string
	if req.Imobiliaria != "" {
		imobiliaria = &req.Imobiliaria
	}

	return &entity.Dossier{
		ID:            id,
		ApplicantName: name,
		CPF:           profile.CPF,
		Enquadramento: string(decision.Bracket),
		Imobiliaria:   imobiliaria,
		PropertyValue: propertyValue,
		Status:        decision.SuggestedStatus,
		Profile:       profileJSON,
		Decision:      decisionJSON,
	}, nil
}

func (s *Server) handleListDossiers(w http.ResponseWriter, r *http.Request) {
	dossiers, err := s.repo.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if dossiers == nil {
		dossiers = []*entity.Dossier{}
	}
	s.writeJSON(w, http.StatusOK, dossiers)
}

func (s *Server) handleGetDossier(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, common.NewAppError("BAD_ID", "id must be a UUID", common.ErrInvalidInput))
		return
	}
	d, err := s.repo.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, common.NewAppError("BAD_ID", "id must be a UUID", common.ErrInvalidInput))
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, common.NewAppError("BAD_JSON", "decode request body", common.ErrInvalidInput))
		return
	}
	status, ok := constants.ParseStatus(req.Status)
	if !ok {
		s.writeError(w, common.NewAppError("BAD_STATUS",
			fmt.Sprintf("unknown status %q", req.Status), common.ErrInvalidInput))
		return
	}

	if err := s.repo.UpdateStatus(r.Context(), id, status); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.exporter.PortfolioXLSX(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="carteira.xlsx"`)
	_, _ = w.Write(data)
}
