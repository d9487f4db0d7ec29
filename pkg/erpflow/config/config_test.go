package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchline/erpflow/pkg/erpflow/config"
)

func TestDefaults(t *testing.T) {
	s := config.Default()
	require.NoError(t, s.Validate())

	assert.Equal(t, 3, s.Retries)
	assert.Equal(t, 4, s.Workers)
	assert.Equal(t, 50, s.BatchSize)
	assert.Equal(t, 2*time.Second, s.BatchPause)
	assert.Equal(t, 72*time.Hour, s.OverdueLead)
	assert.Equal(t, 7*24*time.Hour, s.FollowUpDelay)
	assert.Equal(t, 10, s.LowStockThreshold)
	assert.Equal(t, 30*24*time.Hour, s.AppLogRetention)
	assert.Equal(t, 90*24*time.Hour, s.ErrorLogRetention)
	assert.Equal(t, 365*24*time.Hour, s.AuditLogRetention)
	assert.Equal(t, 30, s.BackupRetentionDays)
}

func TestFromYAMLOverridesDefaults(t *testing.T) {
	s, err := config.FromYAML([]byte(`
retries: 5
batch_size: 25
batch_pause: 500ms
overdue_lead: 48h
`))
	require.NoError(t, err)

	assert.Equal(t, 5, s.Retries)
	assert.Equal(t, 25, s.BatchSize)
	assert.Equal(t, 500*time.Millisecond, s.BatchPause)
	assert.Equal(t, 48*time.Hour, s.OverdueLead)

	// Untouched keys keep their defaults.
	assert.Equal(t, 4, s.Workers)
	assert.Equal(t, 10, s.LowStockThreshold)
}

func TestFromYAMLNumericDurationIsSeconds(t *testing.T) {
	s, err := config.FromYAML([]byte("batch_pause: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, s.BatchPause)
}

func TestFromJSON(t *testing.T) {
	s, err := config.FromJSON([]byte(`{"workers": 8, "follow_up_delay": "168h"}`))
	require.NoError(t, err)
	assert.Equal(t, 8, s.Workers)
	assert.Equal(t, 168*time.Hour, s.FollowUpDelay)
	assert.Equal(t, 3, s.Retries)
}

func TestFromYAMLRejectsInvalid(t *testing.T) {
	_, err := config.FromYAML([]byte("retries: 0\n"))
	assert.Error(t, err)

	_, err = config.FromYAML([]byte("batch_pause: not-a-duration\n"))
	assert.Error(t, err)
}

func TestValidateRetentionOrdering(t *testing.T) {
	s := config.Default()
	s.AppLogRetention = s.AuditLogRetention + time.Hour
	assert.Error(t, s.Validate())
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "erpflow.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("low_stock_threshold: 20\n"), 0o644))

	s, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 20, s.LowStockThreshold)

	_, err = config.FromFile(filepath.Join(dir, "erpflow.toml"))
	assert.Error(t, err)

	_, err = config.FromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
