package metrics_test

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landing-service/internal/metrics"
)

func TestRecordWizard(t *testing.T) {
	applied := metrics.WizardTransitionsTotal.WithLabelValues("advance", "applied")
	refused := metrics.WizardTransitionsTotal.WithLabelValues("advance", "refused")
	a0, r0 := testutil.ToFloat64(applied), testutil.ToFloat64(refused)

	assert.True(t, metrics.RecordWizard("advance", true))
	assert.False(t, metrics.RecordWizard("advance", false))
	assert.False(t, metrics.RecordWizard("advance", false))

	assert.Equal(t, a0+1, testutil.ToFloat64(applied))
	assert.Equal(t, r0+2, testutil.ToFloat64(refused))
}

func TestRecordResolution(t *testing.T) {
	failed := metrics.ManifestResolutionsTotal.WithLabelValues("error")
	before := testutil.ToFloat64(failed)
	metrics.RecordResolution(errors.New("boom"))
	metrics.RecordResolution(nil)
	assert.Equal(t, before+1, testutil.ToFloat64(failed))
}

func TestPromhttpExposure(t *testing.T) {
	metrics.RecordLead("stored")
	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `landing_leads_submitted_total{result="stored"}`))
}
