package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/correspondente/dossie-engine/constants"
	"github.com/correspondente/dossie-engine/internal/common"
	"github.com/correspondente/dossie-engine/internal/entity"
)

type fakeRepo struct {
	dossiers []*entity.Dossier
	listErr  error
}

func (f *fakeRepo) Save(context.Context, *entity.Dossier) error { return nil }

func (f *fakeRepo) GetByID(context.Context, uuid.UUID) (*entity.Dossier, error) {
	return nil, common.ErrNotFound
}

func (f *fakeRepo) List(context.Context) ([]*entity.Dossier, error) {
	return f.dossiers, f.listErr
}

func (f *fakeRepo) UpdateStatus(context.Context, uuid.UUID, constants.DossierStatus) error {
	return nil
}

func TestPortfolioXLSX(t *testing.T) {
	name := "WALACE BARBINO"
	cpf := "095.900.717-24"
	value := decimal.RequireFromString("250000.00")
	repo := &fakeRepo{dossiers: []*entity.Dossier{{
		ID:            uuid.New(),
		ApplicantName: &name,
		CPF:           &cpf,
		Enquadramento: "SBPE",
		PropertyValue: &value,
		Status:        constants.StatusInconformidade,
		Profile:       []byte(`{}`),
		Decision:      []byte(`{"bracket":"SBPE","gross_income":"10071.63","subsidy_estimate":"0","max_installment":"2246.87","fund_balance_total":"4496.27"}`),
		CreatedAt:     time.Date(2025, 12, 15, 10, 0, 0, 0, time.UTC),
	}}}

	data, err := NewService(repo, nil).PortfolioXLSX(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Carteira"}, f.GetSheetList(), "the default sheet must not survive")

	cell := func(ref string) string {
		v, err := f.GetCellValue("Carteira", ref)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Comprador", cell("A1"))
	assert.Equal(t, "Status", cell("I1"))

	assert.Equal(t, "WALACE BARBINO", cell("A2"))
	assert.Equal(t, "095.900.717-24", cell("B2"))
	assert.Equal(t, "SBPE", cell("C2"))
	assert.Equal(t, "R$ 250.000,00", cell("E2"))
	assert.Equal(t, "R$ 10.071,63", cell("F2"))
	assert.Equal(t, "R$ 0,00", cell("G2"))
	assert.Equal(t, "R$ 2.246,87", cell("H2"))
	assert.Equal(t, "INCONFORMIDADE", cell("I2"))
	assert.Equal(t, "15/12/2025", cell("J2"))
}

func TestPortfolioXLSXEmptyPortfolio(t *testing.T) {
	data, err := NewService(&fakeRepo{}, nil).PortfolioXLSX(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Carteira", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Comprador", v)

	rows, err := f.GetRows("Carteira")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "headers only")
}

func TestPortfolioXLSXPropagatesRepositoryError(t *testing.T) {
	_, err := NewService(&fakeRepo{listErr: common.ErrDatabase}, nil).PortfolioXLSX(context.Background())
	assert.ErrorIs(t, err, common.ErrDatabase)
}
