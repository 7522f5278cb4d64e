// Package pipeline coordinates the per-document stages (text acquisition,
// classification, field extraction, expiry validation) and the per-applicant
// stages (consolidation, eligibility evaluation).
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/correspondente/dossie-engine/constants"
	"github.com/correspondente/dossie-engine/internal/docs"
	"github.com/correspondente/dossie-engine/internal/dossier"
	"github.com/correspondente/dossie-engine/internal/eligibility"
	"github.com/correspondente/dossie-engine/internal/extract"
	"github.com/correspondente/dossie-engine/internal/metrics"
)

// TextSource is the OCR collaborator: it yields the pre-joined plain text of
// one document. Acquisition is the only potentially slow step and is bounded
// by the processor's timeout; a failure makes the document unreadable, never
// a crash.
type TextSource interface {
	Text(ctx context.Context) (string, error)
}

// StaticText adapts already-acquired OCR text to the TextSource interface.
type StaticText string

func (s StaticText) Text(context.Context) (string, error) { return string(s), nil }

// Document is one submitted document: an OCR text source plus metadata. The
// filename is only a weak category hint.
type Document struct {
	Source   string
	Declared constants.Category
	Content  TextSource
}

// Config holds thresholds and behavior flags for dossier processing.
type Config struct {
	OCRTimeout time.Duration // default 30s
	Workers    int           // default 4
}

type Processor struct {
	Logger    *slog.Logger
	Cfg       Config
	Extractor *extract.Extractor
	Policies  docs.PolicySet
	Metrics   *metrics.Metrics
}

func NewProcessor(logger *slog.Logger, cfg Config, ex *extract.Extractor, policies docs.PolicySet, m *metrics.Metrics) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.OCRTimeout <= 0 {
		cfg.OCRTimeout = 30 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if policies == nil {
		policies = docs.DefaultPolicies()
	}
	return &Processor{Logger: logger, Cfg: cfg, Extractor: ex, Policies: policies, Metrics: m}
}

// ProcessDossier extracts every document, consolidates the partial records in
// submission order and evaluates eligibility. Documents are extracted in
// parallel; ordering, not timing, determines the first/last-wins tie-breaks,
// so results are merged back by submission index before consolidation.
func (p *Processor) ProcessDossier(ctx context.Context, applicantID uuid.UUID, documents []Document, ref time.Time) (dossier.ApplicantProfile, eligibility.Decision, error) {
	if ref.IsZero() {
		ref = time.Now().UTC()
	}

	results := make([]dossier.DocumentResult, len(documents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Cfg.Workers)
	for i, doc := range documents {
		g.Go(func() error {
			results[i] = p.processDocument(gctx, doc, ref)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return dossier.ApplicantProfile{}, eligibility.Decision{}, err
	}

	profile := dossier.Consolidate(applicantID, results, p.Logger)
	decision := eligibility.Evaluate(profile, ref)
	p.Metrics.ObserveDecision(len(decision.NonConformities))

	p.Logger.Info("pipeline.dossier.ok",
		"applicant_id", applicantID,
		"documents", len(documents),
		"bracket", string(decision.Bracket),
		"suggested_status", string(decision.SuggestedStatus),
		"non_conformities", len(decision.NonConformities),
	)
	return profile, decision, nil
}

func (p *Processor) processDocument(ctx context.Context, doc Document, ref time.Time) dossier.DocumentResult {
	tctx, cancel := context.WithTimeout(ctx, p.Cfg.OCRTimeout)
	defer cancel()

	text, err := doc.Content.Text(tctx)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			p.Logger.Warn("pipeline.document.unreadable", "source", doc.Source, "err", err)
		} else {
			p.Logger.Warn("pipeline.document.empty", "source", doc.Source)
		}
		p.Metrics.ObserveDocument(true)
		return dossier.DocumentResult{Source: doc.Source, Unreadable: true}
	}

	category := docs.Classify(text, doc.Source, doc.Declared)
	rec := p.Extractor.Extract(text, category)
	rec.Source = doc.Source
	verdict := docs.CheckValidity(rec, ref, p.Policies)
	p.Metrics.ObserveDocument(false)

	p.Logger.Info("pipeline.document.ok",
		"source", doc.Source,
		"category", string(category),
		"verdict", string(verdict),
		"fields", len(rec.Fields),
	)
	return dossier.DocumentResult{Source: doc.Source, Record: rec, Verdict: verdict}
}
