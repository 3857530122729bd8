package telemetry_test

import (
	"context"
	"strings"
	"testing"

	"github.com/slnkoenergy/epc-backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithProfilingLabels_EmptyLabels(t *testing.T) {
	ctx := context.Background()
	called := false

	telemetry.WithProfilingLabels(ctx, nil, func(c context.Context) {
		called = true
	})

	assert.True(t, called, "function should be called even with empty labels")

	called = false
	telemetry.WithProfilingLabels(ctx, map[string]string{}, func(c context.Context) {
		called = true
	})

	assert.True(t, called, "function should be called with empty map")
}

func TestWithProfilingLabels_BasicLabels(t *testing.T) {
	ctx := context.Background()
	called := false
	var capturedCtx context.Context

	labels := map[string]string{
		"controller": "PaymentHandler",
		"method":     "POST",
		"route":      "/api/v1/payments",
	}

	telemetry.WithProfilingLabels(ctx, labels, func(c context.Context) {
		called = true
		capturedCtx = c
	})

	assert.True(t, called, "function should be called")
	assert.NotNil(t, capturedCtx, "context should be passed")
}

func TestWithProfilingLabels_SkipsHighCardinalityLabels(t *testing.T) {
	ctx := context.Background()
	called := false

	// High cardinality labels should be filtered out
	labels := map[string]string{
		"controller":     "PaymentHandler", // allowed
		"user_id":        "user-123",       // high cardinality - should be skipped
		"request_id":     "req-abc",        // high cardinality - should be skipped
		"pay_id":         "PAY-456",        // high cardinality - should be skipped
		"project_number": "712",            // high cardinality - should be skipped
	}

	telemetry.WithProfilingLabels(ctx, labels, func(c context.Context) {
		called = true
	})

	assert.True(t, called, "function should be called")
}

func TestWithProfilingLabels_TruncatesLongValues(t *testing.T) {
	ctx := context.Background()
	called := false

	longValue := strings.Repeat("x", 200)

	labels := map[string]string{
		"controller": longValue,
	}

	telemetry.WithProfilingLabels(ctx, labels, func(c context.Context) {
		called = true
	})

	assert.True(t, called, "function should be called with truncated value")
}

func TestWithProfilingLabels_SkipsEmptyValues(t *testing.T) {
	ctx := context.Background()
	called := false

	labels := map[string]string{
		"controller": "PaymentHandler",
		"method":     "",      // empty - should be skipped
		"":           "value", // empty key - should be skipped
	}

	telemetry.WithProfilingLabels(ctx, labels, func(c context.Context) {
		called = true
	})

	assert.True(t, called, "function should be called")
}

func TestWithPprofLabels_BasicLabels(t *testing.T) {
	ctx := context.Background()
	called := false

	labels := map[string]string{
		"controller": "BalanceHandler",
		"method":     "GET",
	}

	telemetry.WithPprofLabels(ctx, labels, func(c context.Context) {
		called = true
	})

	assert.True(t, called, "function should be called")
}

func TestProfilingScope_Builder(t *testing.T) {
	scope := telemetry.NewProfilingScope(nil)

	scope.WithController("PaymentHandler").
		WithRoute("/api/v1/payments/approvals").
		WithMethod("POST").
		WithDepartment("accounts").
		WithOperation("ProcessApprovals").
		WithRegion("db_query")

	labels := scope.Labels()

	assert.Equal(t, "PaymentHandler", labels[telemetry.ProfilingLabelController])
	assert.Equal(t, "/api/v1/payments/approvals", labels[telemetry.ProfilingLabelRoute])
	assert.Equal(t, "POST", labels[telemetry.ProfilingLabelMethod])
	assert.Equal(t, "accounts", labels[telemetry.ProfilingLabelDepartment])
	assert.Equal(t, "ProcessApprovals", labels[telemetry.ProfilingLabelOperation])
	assert.Equal(t, "db_query", labels[telemetry.ProfilingLabelRegion])
}

func TestProfilingScope_LabelsReturnsACopy(t *testing.T) {
	scope := telemetry.NewProfilingScope(nil)
	scope.WithController("PaymentHandler")

	labels1 := scope.Labels()
	labels1["controller"] = "Modified"

	labels2 := scope.Labels()
	assert.Equal(t, "PaymentHandler", labels2["controller"], "original should not be modified")
}

func TestProfilingScope_Run(t *testing.T) {
	ctx := context.Background()
	called := false

	scope := telemetry.NewProfilingScope(nil)
	scope.WithController("BalanceHandler").
		WithMethod("GET")

	scope.Run(ctx, func(c context.Context) {
		called = true
	})

	assert.True(t, called, "function should be called via Run")
}

func TestHTTPRequestLabels(t *testing.T) {
	tests := []struct {
		name       string
		controller string
		route      string
		method     string
		department string
		wantLen    int
	}{
		{
			name:       "all_fields",
			controller: "PaymentHandler",
			route:      "/api/v1/payments",
			method:     "POST",
			department: "accounts",
			wantLen:    4,
		},
		{
			name:       "empty_department",
			controller: "BalanceHandler",
			route:      "/api/v1/ledger/balances",
			method:     "GET",
			department: "",
			wantLen:    3,
		},
		{
			name:       "all_empty",
			controller: "",
			route:      "",
			method:     "",
			department: "",
			wantLen:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := telemetry.HTTPRequestLabels(tt.controller, tt.route, tt.method, tt.department)
			assert.Len(t, labels, tt.wantLen)

			if tt.department != "" {
				assert.Equal(t, tt.department, labels[telemetry.ProfilingLabelDepartment])
			}
		})
	}
}

func TestOperationLabels(t *testing.T) {
	labels := telemetry.OperationLabels("AssignUTR", map[string]string{
		"controller": "PaymentHandler",
	})

	assert.Equal(t, "AssignUTR", labels[telemetry.ProfilingLabelOperation])
	assert.Equal(t, "PaymentHandler", labels["controller"])
	assert.Len(t, labels, 2)
}

func TestRegionLabels(t *testing.T) {
	labels := telemetry.RegionLabels("db_query", map[string]string{
		"table": "pay_requests",
	})

	assert.Equal(t, "db_query", labels[telemetry.ProfilingLabelRegion])
	assert.Equal(t, "pay_requests", labels["table"])
}

func TestHighCardinalityLabels(t *testing.T) {
	expectedHighCardinality := []string{
		"user_id",
		"request_id",
		"pay_id",
		"project_number",
		"utr",
		"trace_id",
		"span_id",
		"session_id",
	}

	for _, label := range expectedHighCardinality {
		assert.True(t, telemetry.HighCardinalityLabels[label],
			"label %s should be marked as high cardinality", label)
	}
}

func TestLabelKeySanitization(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		inputLabels map[string]string
	}{
		{
			name: "spaces_in_key",
			inputLabels: map[string]string{
				"my key":     "value",
				"controller": "test",
			},
		},
		{
			name: "dashes_in_key",
			inputLabels: map[string]string{
				"my-key":     "value",
				"controller": "test",
			},
		},
		{
			name: "uppercase_in_key",
			inputLabels: map[string]string{
				"MyKey":      "value",
				"controller": "test",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			telemetry.WithProfilingLabels(ctx, tt.inputLabels, func(c context.Context) {
				called = true
			})
			assert.True(t, called)
		})
	}
}

func TestContextPropagation(t *testing.T) {
	type contextKey string
	key := contextKey("test-key")
	ctx := context.WithValue(context.Background(), key, "test-value")

	labels := map[string]string{
		"controller": "BalanceHandler",
	}

	telemetry.WithProfilingLabels(ctx, labels, func(c context.Context) {
		value := c.Value(key)
		require.NotNil(t, value)
		assert.Equal(t, "test-value", value)
	})
}
