package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physio/internal/domain/catalogs/partner"
	"physio/internal/domain/physio"
)

var (
	_ partner.Observer      = (*Metrics)(nil)
	_ physio.RejectObserver = (*Metrics)(nil)
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.PartnerClassified(partner.OpCreate)
	m.PartnerClassified(partner.OpCreate)
	m.PartnerClassified(partner.OpWrite)
	m.TemplateDeleteRejected("partner_treatment")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PartnersClassified.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PartnersClassified.WithLabelValues("write")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TemplateRejections.WithLabelValues("partner_treatment")))
}

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("GET", "/api/v1/catalog/partners/:id", 200, time.Now())
	m.ObserveRequest("GET", "", 404, time.Now())

	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))
}

func TestRegisterPool(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterPool(reg, func() (int32, int32, int32) { return 5, 2, 3 })

	families, err := reg.Gather()
	require.NoError(t, err)

	got := make(map[string]float64)
	for _, mf := range families {
		got[mf.GetName()] = mf.GetMetric()[0].GetGauge().GetValue()
	}
	assert.Equal(t, 5.0, got["physio_db_pool_total_conns"])
	assert.Equal(t, 2.0, got["physio_db_pool_acquired_conns"])
	assert.Equal(t, 3.0, got["physio_db_pool_idle_conns"])
}
