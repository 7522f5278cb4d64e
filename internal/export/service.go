// Package export renders the dossier portfolio as an XLSX workbook, the
// format the back office already exchanges with the lender.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/correspondente/dossie-engine/internal/brl"
	"github.com/correspondente/dossie-engine/internal/eligibility"
	"github.com/correspondente/dossie-engine/internal/store"
)

// Service is a tiny façade over the dossier repository that produces XLSX
// bytes for exports.
type Service struct {
	repo   store.DossierRepository
	logger *slog.Logger
}

func NewService(repo store.DossierRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// PortfolioXLSX returns an XLSX workbook (as bytes) with one row per dossier,
// amounts and dates in the Brazilian convention.
func (s *Service) PortfolioXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	dossiers, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query dossiers: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Carteira"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defaultIndex, _ := f.GetSheetIndex("Sheet1"); defaultIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Comprador",
		"CPF",
		"Enquadramento",
		"Imobiliária",
		"Valor (R$)",
		"Renda Bruta",
		"Subsídio",
		"Parcela Máxima",
		"Status",
		"Data",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, d := range dossiers {
		var decision eligibility.Decision
		if err := json.Unmarshal(d.Decision, &decision); err != nil {
			s.logger.Warn("export: undecodable decision, row left partial", "dossier_id", d.ID, "err", err)
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		name := "—"
		if d.ApplicantName != nil {
			name = *d.ApplicantName
		}
		write(1, name)
		if d.CPF != nil {
			write(2, *d.CPF)
		}
		write(3, d.Enquadramento)
		if d.Imobiliaria != nil {
			write(4, *d.Imobiliaria)
		}
		if d.PropertyValue != nil {
			write(5, brl.FormatAmount(*d.PropertyValue))
		}
		if decision.GrossIncome != nil {
			write(6, brl.FormatAmount(*decision.GrossIncome))
		}
		write(7, brl.FormatAmount(decision.SubsidyEstimate))
		if decision.MaxInstallment != nil {
			write(8, brl.FormatAmount(*decision.MaxInstallment))
		}
		write(9, string(d.Status))
		write(10, brl.FormatDate(d.CreatedAt))
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	s.logger.Info("export.portfolio.ok", "rows", row-2, "elapsed", time.Since(start))
	return buf.Bytes(), nil
}
