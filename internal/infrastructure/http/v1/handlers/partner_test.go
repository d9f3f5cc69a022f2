package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physio/internal/core/id"
	"physio/internal/domain"
	"physio/internal/domain/catalogs/partner"
	"physio/internal/domain/domaintest"
	"physio/internal/domain/physio"
	"physio/internal/domain/physio/treatment"
	"physio/internal/infrastructure/http/v1/handlers"
	"physio/internal/infrastructure/http/v1/middleware"
)

type treatmentRepo struct {
	*domaintest.MemoryRepo[*treatment.Treatment]
}

func (r treatmentRepo) IDsByPartner(ctx context.Context, partnerID id.ID) ([]id.ID, error) {
	res, err := r.List(ctx, domain.ListFilter{PartnerID: &partnerID})
	if err != nil {
		return nil, err
	}
	ids := make([]id.ID, 0, len(res.Items))
	for _, t := range res.Items {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

type api struct {
	router     *gin.Engine
	partners   *partner.Service
	treatments *treatment.Service
	templates  *physio.TemplateRegistry
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := treatmentRepo{domaintest.NewMemoryRepo[*treatment.Treatment]()}
	repo.PartnerOf = func(tr *treatment.Treatment) id.ID { return tr.PartnerID }

	a := &api{templates: physio.NewTemplateRegistry()}
	a.partners = partner.NewService(partner.ServiceConfig{
		Repo:            domaintest.NewMemoryRepo[*partner.Partner](),
		Numerator:       domaintest.NewNumerator(),
		Classifier:      physio.NewClassifier(physio.Schema()),
		Treatments:      repo,
		TreatmentAction: treatment.WindowAction(),
	})
	a.treatments = treatment.NewService(treatment.ServiceConfig{
		Repo:      repo,
		Numerator: domaintest.NewNumerator(),
		Partners:  a.partners,
		Templates: a.templates,
	})

	base := handlers.NewBaseHandler()
	ph := handlers.NewPartnerHandler(base, a.partners, a.treatments, nil)
	th := handlers.NewTreatmentHandler(base, a.treatments)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.POST("/partners", ph.Create)
	r.GET("/partners/:id", ph.Get)
	r.POST("/partners/:id/action/make-treatment", ph.MakeTreatment)
	r.DELETE("/treatments/:id", th.Delete)
	a.router = r
	return a
}

func (a *api) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (a *api) treatment(t *testing.T, owner id.ID, name string) *treatment.Treatment {
	t.Helper()
	tr := treatment.NewTreatment(name, owner, id.Nil())
	require.NoError(t, a.treatments.Create(context.Background(), tr))
	return tr
}

func TestCreatePartner_AllergiesFlagPatient(t *testing.T) {
	a := newAPI(t)

	w, body := a.do(t, http.MethodPost, "/partners", map[string]any{"name": "Jane Doe", "allergies": "peanuts"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, true, body["physiotherapy_partner"])
	assert.Equal(t, "peanuts", body["allergies"])
	assert.Equal(t, float64(0), body["treatment_count"])
}

func TestCreatePartner_BookkeepingFieldsDoNotFlag(t *testing.T) {
	a := newAPI(t)

	w, body := a.do(t, http.MethodPost, "/partners", map[string]any{"name": "Acme", "active": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, false, body["physiotherapy_partner"])
}

func TestCreatePartner_UnknownField(t *testing.T) {
	a := newAPI(t)

	w, body := a.do(t, http.MethodPost, "/partners", map[string]any{"name": "Jane", "shoe_size": 38})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, body["code"])
}

func TestMakeTreatment_SingleTreatmentOpensForm(t *testing.T) {
	a := newAPI(t)
	p, err := a.partners.Create(context.Background(), partner.Values{"name": "Jane", "gender": "female"}, id.Nil())
	require.NoError(t, err)
	tr := a.treatment(t, p.ID, "Knee")

	w, body := a.do(t, http.MethodPost, "/partners/"+p.ID.String()+"/action/make-treatment", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, tr.ID.String(), body["res_id"])
	assert.Equal(t, "current", body["target"])
	assert.Equal(t, "form", body["view_mode"])
	assert.NotContains(t, body, "views")
	assert.Equal(t, map[string]any{"search_default_partner_id": p.ID.String()}, body["context"])
}

func TestMakeTreatment_NoTreatmentsKeepsList(t *testing.T) {
	a := newAPI(t)
	p, err := a.partners.Create(context.Background(), partner.Values{"name": "Jane", "gender": "female"}, id.Nil())
	require.NoError(t, err)

	w, body := a.do(t, http.MethodPost, "/partners/"+p.ID.String()+"/action/make-treatment", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.NotContains(t, body, "res_id")
	assert.Equal(t, "tree,form", body["view_mode"])
	assert.Len(t, body["views"], 2)
}

func TestGetPartner_CountsTreatments(t *testing.T) {
	a := newAPI(t)
	p, err := a.partners.Create(context.Background(), partner.Values{"name": "Jane", "gender": "female"}, id.Nil())
	require.NoError(t, err)
	a.treatment(t, p.ID, "Knee")
	a.treatment(t, p.ID, "Shoulder")

	w, body := a.do(t, http.MethodGet, "/partners/"+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), body["treatment_count"])
	assert.Len(t, body["treatment_ids"], 2)
}

func TestDeleteTreatment_TemplateRefused(t *testing.T) {
	a := newAPI(t)
	p, err := a.partners.Create(context.Background(), partner.Values{"name": "Template"}, id.Nil())
	require.NoError(t, err)
	tmpl := a.treatment(t, p.ID, "Template")
	other := a.treatment(t, p.ID, "Knee")
	physio.RegisterType[*treatment.Treatment](a.templates, tmpl.ID)

	w, body := a.do(t, http.MethodDelete, "/treatments/"+tmpl.ID.String(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Template record can't be deleted!!", body["message"])
	_, err = a.treatments.GetByID(context.Background(), tmpl.ID)
	assert.NoError(t, err)

	w, _ = a.do(t, http.MethodDelete, "/treatments/"+other.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
