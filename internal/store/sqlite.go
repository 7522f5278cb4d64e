package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/correspondente/dossie-engine/constants"
	"github.com/correspondente/dossie-engine/internal/common"
	"github.com/correspondente/dossie-engine/internal/entity"
)

type dossierRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewDossierRepository(db *sql.DB, logger *slog.Logger) DossierRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &dossierRepository{db: db, logger: logger}
}

func (r *dossierRepository) Save(ctx context.Context, d *entity.Dossier) error {
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	var propertyValue sql.NullString
	if d.PropertyValue != nil {
		propertyValue = sql.NullString{String: d.PropertyValue.String(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dossiers
			(id, applicant_name, cpf, enquadramento, imobiliaria, property_value,
			 status, profile_json, decision_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			applicant_name = excluded.applicant_name,
			cpf            = excluded.cpf,
			enquadramento  = excluded.enquadramento,
			imobiliaria    = excluded.imobiliaria,
			property_value = excluded.property_value,
			status         = excluded.status,
			profile_json   = excluded.profile_json,
			decision_json  = excluded.decision_json,
			updated_at     = excluded.updated_at`,
		d.ID.String(), nullable(d.ApplicantName), nullable(d.CPF), d.Enquadramento,
		nullable(d.Imobiliaria), propertyValue, string(d.Status),
		string(d.Profile), string(d.Decision), d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to save dossier", "dossier_id", d.ID, "error", err)
		return common.NewAppError("STORE_SAVE", "save dossier", common.ErrDatabase)
	}
	return nil
}

func (r *dossierRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Dossier, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` FROM dossiers WHERE id = ?`, id.String())
	d, err := scanDossier(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to load dossier", "dossier_id", id, "error", err)
		return nil, common.NewAppError("STORE_GET", "load dossier", common.ErrDatabase)
	}
	return d, nil
}

func (r *dossierRepository) List(ctx context.Context) ([]*entity.Dossier, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` FROM dossiers ORDER BY created_at DESC`)
	if err != nil {
		r.logger.Error("failed to list dossiers", "error", err)
		return nil, common.NewAppError("STORE_LIST", "list dossiers", common.ErrDatabase)
	}
	defer rows.Close()

	var out []*entity.Dossier
	for rows.Next() {
		d, err := scanDossier(rows)
		if err != nil {
			return nil, common.NewAppError("STORE_LIST", "scan dossier", common.ErrDatabase)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError("STORE_LIST", "iterate dossiers", common.ErrDatabase)
	}
	return out, nil
}

func (r *dossierRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status constants.DossierStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE dossiers SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id.String(),
	)
	if err != nil {
		r.logger.Error("failed to update status", "dossier_id", id, "error", err)
		return common.NewAppError("STORE_STATUS", "update status", common.ErrDatabase)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

const selectColumns = `SELECT id, applicant_name, cpf, enquadramento, imobiliaria,
	property_value, status, profile_json, decision_json, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDossier(row rowScanner) (*entity.Dossier, error) {
	var (
		d             entity.Dossier
		id            string
		name, cpf     sql.NullString
		imobiliaria   sql.NullString
		propertyValue sql.NullString
		status        string
		profileJSON   string
		decisionJSON  string
	)
	err := row.Scan(&id, &name, &cpf, &d.Enquadramento, &imobiliaria,
		&propertyValue, &status, &profileJSON, &decisionJSON, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse dossier id %q: %w", id, err)
	}
	d.ID = parsed
	d.ApplicantName = fromNull(name)
	d.CPF = fromNull(cpf)
	d.Imobiliaria = fromNull(imobiliaria)
	if propertyValue.Valid {
		v, err := decimal.NewFromString(propertyValue.String)
		if err != nil {
			return nil, fmt.Errorf("parse property value %q: %w", propertyValue.String, err)
		}
		d.PropertyValue = &v
	}
	d.Status = constants.DossierStatus(status)
	d.Profile = []byte(profileJSON)
	d.Decision = []byte(decisionJSON)
	return &d, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNull(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
