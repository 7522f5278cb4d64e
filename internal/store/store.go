// Package store persists processed dossiers in an embedded SQLite database.
// The extraction core itself is stateless; this registry only backs the
// portfolio listing, the status workflow and the spreadsheet export.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/correspondente/dossie-engine/constants"
	"github.com/correspondente/dossie-engine/internal/entity"
)

const schema = `
CREATE TABLE IF NOT EXISTS dossiers (
	id             TEXT PRIMARY KEY,
	applicant_name TEXT,
	cpf            TEXT,
	enquadramento  TEXT NOT NULL DEFAULT '',
	imobiliaria    TEXT,
	property_value TEXT,
	status         TEXT NOT NULL,
	profile_json   TEXT NOT NULL,
	decision_json  TEXT NOT NULL,
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dossiers_status ON dossiers(status);
CREATE INDEX IF NOT EXISTS idx_dossiers_cpf ON dossiers(cpf);
`

// DossierRepository is the persistence behavior the server depends on.
type DossierRepository interface {
	Save(ctx context.Context, d *entity.Dossier) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Dossier, error)
	List(ctx context.Context) ([]*entity.Dossier, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status constants.DossierStatus) error
}

// Open opens (creating if needed) the SQLite database at path and applies the
// schema.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids lock errors.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
