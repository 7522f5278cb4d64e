package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/correspondente/dossie-engine/internal/docs"
	"github.com/correspondente/dossie-engine/internal/export"
	"github.com/correspondente/dossie-engine/internal/extract"
	"github.com/correspondente/dossie-engine/internal/pipeline"
	"github.com/correspondente/dossie-engine/internal/store"
)

const identityText = `CARTEIRA DE IDENTIDADE
NOME: WALACE BARBINO
CPF: 095.900.717-24
VALIDADE: 20/08/2030
`

const payslipText = `DEMONSTRATIVO DE PAGAMENTO
NOME DO TRABALHADOR: WALACE BARBINO
DATA DE ADMISSÃO: 07/10/2025
ADIANTAMENTO 2.246,05
TOTAL DE VENCIMENTOS: 10.071,63
LÍQUIDO A RECEBER: 5.243,52
DATA DE PAGAMENTO: 05/12/2025
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "dossie.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := store.NewDossierRepository(db, nil)

	ex, err := extract.NewExtractor(nil)
	require.NoError(t, err)
	processor := pipeline.NewProcessor(nil, pipeline.Config{}, ex, docs.DefaultPolicies(), nil)

	ts := httptest.NewServer(New(nil, processor, repo, export.NewService(repo, nil)).Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func createPayload() map[string]any {
	return map[string]any{
		"imobiliaria":    "IMOBILIÁRIA SERRA AZUL",
		"property_value": "250000.00",
		"reference_date": "2025-12-15",
		"documents": []map[string]string{
			{"source": "rg.txt", "category": "identidade", "text": identityText},
			{"source": "holerite.txt", "text": payslipText},
		},
	}
}

func TestCreateDossier(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/dossiers", createPayload())
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got struct {
		ID      uuid.UUID `json:"id"`
		Status  string    `json:"status"`
		Profile struct {
			FullName          *string `json:"full_name"`
			CPF               *string `json:"cpf"`
			AdjustedNetIncome *string `json:"adjusted_net_income"`
		} `json:"profile"`
		Decision struct {
			Bracket        string  `json:"bracket"`
			MaxInstallment *string `json:"max_installment"`
		} `json:"decision"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))

	assert.NotEqual(t, uuid.Nil, got.ID)
	require.NotNil(t, got.Profile.FullName)
	assert.Equal(t, "WALACE BARBINO", *got.Profile.FullName)
	require.NotNil(t, got.Profile.CPF)
	assert.Equal(t, "095.900.717-24", *got.Profile.CPF)
	require.NotNil(t, got.Profile.AdjustedNetIncome)
	assert.Equal(t, "7489.57", *got.Profile.AdjustedNetIncome)
	assert.Equal(t, "SBPE", got.Decision.Bracket)
	require.NotNil(t, got.Decision.MaxInstallment)
	assert.Equal(t, "2246.87", *got.Decision.MaxInstallment)
	// hired two months before the reference date
	assert.Equal(t, "INCONFORMIDADE", got.Status)

	// the dossier is persisted and retrievable
	getResp, err := http.Get(ts.URL + "/v1/dossiers/" + got.ID.String())
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
}

func TestCreateDossierValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		mutate func(m map[string]any)
	}{
		{"no documents", func(m map[string]any) { m["documents"] = []map[string]string{} }},
		{"unknown category", func(m map[string]any) {
			m["documents"] = []map[string]string{{"category": "contrato_social", "text": "X"}}
		}},
		{"bad reference date", func(m map[string]any) { m["reference_date"] = "15/12/2025" }},
		{"bad property value", func(m map[string]any) { m["property_value"] = "R$ 250.000,00" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := createPayload()
			tt.mutate(payload)
			resp := postJSON(t, ts.URL+"/v1/dossiers", payload)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	resp, err := http.Post(ts.URL+"/v1/dossiers", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetDossierErrors(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/dossiers/" + uuid.NewString())
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/v1/dossiers/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListDossiersEmpty(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/dossiers")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Empty(t, got, "an empty portfolio is [], not null")
}

func TestUpdateStatus(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/dossiers", createPayload())
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()

	patch := func(id, status string) *http.Response {
		body, _ := json.Marshal(map[string]string{"status": status})
		req, err := http.NewRequest(http.MethodPatch,
			fmt.Sprintf("%s/v1/dossiers/%s/status", ts.URL, id), bytes.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		out, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return out
	}

	// the accented spreadsheet label is accepted
	r := patch(created.ID.String(), "Análise Manual")
	defer r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)

	r = patch(created.ID.String(), "EM_ABERTO")
	defer r.Body.Close()
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)

	r = patch(uuid.NewString(), "APROVADO")
	defer r.Body.Close()
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
}

func TestExportEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/dossiers", createPayload())
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	r, err := http.Get(ts.URL + "/v1/export.xlsx")
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		r.Header.Get("Content-Type"))
	assert.Contains(t, r.Header.Get("Content-Disposition"), "carteira.xlsx")
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
