package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics_CustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.FetchesTotal.WithLabelValues(OutcomeSuccess).Inc()
	m.FetchesTotal.WithLabelValues(OutcomeSuccess).Inc()
	m.FetchesTotal.WithLabelValues(OutcomeNoHolders).Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues(OutcomeNoHolders)))

	count, err := testutil.GatherAndCount(reg, "test_store_fetches_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRecordHelpers(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "test"))
	RecordDBQuery("postgres", "test", 0.01, errors.New("boom"))
	RecordDBQuery("postgres", "test", 0.01, nil)
	assert.Equal(t, before+1, testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "test")))

	SetWSSubscribers(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(DefaultMetrics.WSSubscribers))

	RecordLayout(42, 0.1)
	assert.Equal(t, 42.0, testutil.ToFloat64(DefaultMetrics.LayoutNodes))
}
