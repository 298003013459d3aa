package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	univerify "github.com/univerify/univerify/sdk/go"
)

func TestVerificationResultLabel(t *testing.T) {
	tests := []struct {
		name   string
		result univerify.VerificationResult
		want   string
	}{
		{name: "invalid", result: univerify.VerificationResult{Error: "Document not found"}, want: ResultInvalid},
		{name: "valid", result: univerify.VerificationResult{IsValid: true, Document: &univerify.DocumentSnapshot{}}, want: ResultValid},
		{name: "changed", result: univerify.VerificationResult{IsValid: true, Document: &univerify.DocumentSnapshot{HasChanged: true}}, want: ResultChanged},
		{name: "valid without document", result: univerify.VerificationResult{IsValid: true}, want: ResultValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerificationResultLabel(tt.result))
		})
	}
}

func TestRecordVerification(t *testing.T) {
	// Counters are global and cumulative; compare deltas
	initialValid := testutil.ToFloat64(VerificationsTotal.WithLabelValues(ResultValid))
	initialInvalid := testutil.ToFloat64(VerificationsTotal.WithLabelValues(ResultInvalid))

	RecordVerification(univerify.VerificationResult{IsValid: true})
	RecordVerification(univerify.VerificationResult{IsValid: true})
	RecordVerification(univerify.VerificationResult{})

	assert.Equal(t, initialValid+2, testutil.ToFloat64(VerificationsTotal.WithLabelValues(ResultValid)))
	assert.Equal(t, initialInvalid+1, testutil.ToFloat64(VerificationsTotal.WithLabelValues(ResultInvalid)))
}

func TestUploadsTotal(t *testing.T) {
	initial := testutil.ToFloat64(UploadsTotal.WithLabelValues("confirmed"))
	UploadsTotal.WithLabelValues("confirmed").Inc()
	assert.Equal(t, initial+1, testutil.ToFloat64(UploadsTotal.WithLabelValues("confirmed")))
}

func TestHistogramsObserve(t *testing.T) {
	UploadSizeBytes.Observe(2048)
	ConfirmationAttempts.Observe(3)
	HealthCheckDuration.Observe(0.01)

	assert.GreaterOrEqual(t, testutil.CollectAndCount(UploadSizeBytes), 1)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(ConfirmationAttempts), 1)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(HealthCheckDuration), 1)
}
