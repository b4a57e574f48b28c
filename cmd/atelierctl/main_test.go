package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/atelier/internal/closingperiod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
references:
  - status: completed
    amount: "10"
    unit_value: "30"
    created_at: 2024-12-12T12:00:00Z
    customer:
      name: ACME
      closing_start_day: "10"
      closing_end_day: "10"
    service_type: Sewing
  - status: in_progress
    amount: "2"
    unit_value: "5"
    estimated_date: "2024-12-01"
    created_at: "2024-12-02"
`

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "refs.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestParseFixture(t *testing.T) {
	refs, err := parseFixture([]byte(fixtureYAML), time.UTC)
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, "ACME", refs[0].Customer.Name)
	assert.Equal(t, "Sewing", refs[0].ServiceType.Name)
	assert.True(t, refs[0].Amount.Equal(decimal.NewFromInt(10)))
	assert.Nil(t, refs[1].Customer)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), refs[1].EstimatedCompletionDate)
	assert.Equal(t, time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC), refs[1].CreatedAt)
}

func TestParseFixtureRejectsBadAmount(t *testing.T) {
	_, err := parseFixture([]byte("references:\n  - status: completed\n    amount: ten\n    created_at: 2024-12-01\n"), time.UTC)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reference 0: amount")
}

func TestRunMetrics(t *testing.T) {
	var out bytes.Buffer
	err := runMetrics(&out, &metricsOptions{
		file: writeFixture(t, fixtureYAML),
		asOf: "2024-12-15",
	}, time.Now())
	require.NoError(t, err)

	var got closingperiod.Metrics
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "2024-12-15", got.AsOf)
	assert.Equal(t, 1, got.ReferencesInProgress)
	assert.Equal(t, 1, got.ReferencesOverdue)
	assert.Equal(t, 1, got.ReferencesCompletedThisMonth)
	assert.True(t, got.ValueInProduction.Equal(decimal.NewFromInt(300)), got.ValueInProduction.String())
	assert.Equal(t, []string{"ACME"}, got.RevenueByCustomer.Labels)
}

func TestRunMetricsRejectsBadAsOf(t *testing.T) {
	err := runMetrics(&bytes.Buffer{}, &metricsOptions{
		file: writeFixture(t, fixtureYAML),
		asOf: "15/12/2024",
	}, time.Now())
	require.Error(t, err)
}

func TestRunWindow(t *testing.T) {
	var out bytes.Buffer
	err := runWindow(&out, &windowOptions{start: "10", end: "10", asOf: "2024-12-05"}, time.Now())
	require.NoError(t, err)

	var got windowOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "2024-11-10T00:00:00Z", got.Start)
	assert.Equal(t, "2024-12-10T23:59:59.999Z", got.End)
}

func TestRunWindowUsesConfiguredTimezone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.yml")
	require.NoError(t, os.WriteFile(path, []byte("dashboard:\n  timezone: America/Sao_Paulo\n"), 0o600))

	var out bytes.Buffer
	err := runWindow(&out, &windowOptions{start: "10", end: "10", asOf: "2024-12-05", configFile: path}, time.Now())
	require.NoError(t, err)

	var got windowOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "2024-11-10T00:00:00-03:00", got.Start)
	assert.Equal(t, "2024-12-10T23:59:59.999-03:00", got.End)
}

func TestRunWindowDefaultsToConfiguredToday(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.yml")
	require.NoError(t, os.WriteFile(path, []byte("dashboard:\n  timezone: America/Sao_Paulo\n"), 0o600))

	// 01:00 UTC on the 10th is still the 9th in Sao Paulo, before the cycle opens.
	now := time.Date(2024, 12, 10, 1, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	require.NoError(t, runWindow(&out, &windowOptions{start: "10", end: "10", configFile: path}, now))

	var got windowOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "2024-11-10T00:00:00-03:00", got.Start)
}

func TestRunWindowRejectsMissingConfig(t *testing.T) {
	err := runWindow(&bytes.Buffer{}, &windowOptions{
		start:      "10",
		end:        "10",
		configFile: filepath.Join(t.TempDir(), "missing.yml"),
	}, time.Now())
	require.Error(t, err)
}

func TestRunWindowRejectsNonNumericDays(t *testing.T) {
	err := runWindow(&bytes.Buffer{}, &windowOptions{start: "ten", end: "10", asOf: "2024-12-05"}, time.Now())
	require.Error(t, err)
}

func TestRootCommandWiresSubcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	assert.True(t, names["metrics"])
	assert.True(t, names["window"])
}
