package observability

import (
	"context"
	"testing"

	contextutils "issuereport/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Sum[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := map[string]metricdata.Sum[int64]{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				sums[m.Name] = sum
			}
		}
	}
	return sums
}

func TestIssueMetrics_RecordsCounters(t *testing.T) {
	previous := otel.GetMeterProvider()
	t.Cleanup(func() { otel.SetMeterProvider(previous) })

	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	m, err := NewIssueMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordSubmitted(ctx, "BG", "payment")
	m.RecordSubmitted(ctx, "BG", "payment")
	m.RecordFailed(ctx, "LT", "other", contextutils.ErrorCodeValidationFailed)

	sums := collectSums(t, reader)

	submitted, ok := sums["issues.submitted"]
	require.True(t, ok)
	require.Len(t, submitted.DataPoints, 1)
	assert.Equal(t, int64(2), submitted.DataPoints[0].Value)
	op, _ := submitted.DataPoints[0].Attributes.Value(attribute.Key("operator"))
	assert.Equal(t, "BG", op.AsString())

	failed, ok := sums["issues.failed"]
	require.True(t, ok)
	require.Len(t, failed.DataPoints, 1)
	code, _ := failed.DataPoints[0].Attributes.Value(attribute.Key("error_code"))
	assert.Equal(t, "VALIDATION_FAILED", code.AsString())
}

func TestIssueMetrics_NilIsNoop(t *testing.T) {
	var m *IssueMetrics
	assert.NotPanics(t, func() {
		m.RecordSubmitted(context.Background(), "RO", "rfid")
		m.RecordFailed(context.Background(), "RO", "rfid", contextutils.ErrorCodeEmailSendFailed)
	})
}
