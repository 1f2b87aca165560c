package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "GA", c.RegionFilter)
	assert.Equal(t, 2500, c.UpperPositiveThreshold)
	assert.Equal(t, 1000, c.LowerPositiveThreshold)
	assert.Equal(t, 500, c.HistogramBinWidth)
	assert.Equal(t, []string{"2006-01-02", "20060102", "1/2/2006"}, c.DateLayouts)
	assert.Equal(t, "text", c.OutputFormat)
	assert.Equal(t, 4, c.ReportWorkers)
	assert.Equal(t, "warn", c.LogLevel)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	home := isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	c.RegionFilter = "FL"
	c.HistogramBinWidth = 250
	require.NoError(t, Save(c, ""))

	_, err = os.Stat(filepath.Join(home, ".covidstat", "config.yaml"))
	require.NoError(t, err)

	c2, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "FL", c2.RegionFilter)
	assert.Equal(t, 250, c2.HistogramBinWidth)
}

func TestExplicitConfigFile(t *testing.T) {
	isolate(t)
	p := filepath.Join(t.TempDir(), "covid.yaml")

	c, err := Load(p)
	require.NoError(t, err, "missing explicit file falls back to defaults")
	c.UpperPositiveThreshold = 10
	require.NoError(t, Save(c, p))

	c2, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 10, c2.UpperPositiveThreshold)
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("COVIDSTAT_REGION_FILTER", "ny")
	t.Setenv("COVIDSTAT_REPORT_WORKERS", "2")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ny", c.RegionFilter)
	assert.Equal(t, 2, c.ReportWorkers)
}

func TestDotEnvFile(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("COVIDSTAT_LOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("COVIDSTAT_LOG_LEVEL") })

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestValidate(t *testing.T) {
	isolate(t)
	c, err := Load("")
	require.NoError(t, err)

	bad := *c
	bad.HistogramBinWidth = 0
	bad.OutputFormat = "xml"
	err = bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HistogramBinWidth must be at least 1")
	assert.Contains(t, err.Error(), "OutputFormat must be one of: text, json, yaml")
	assert.Error(t, Save(&bad, filepath.Join(t.TempDir(), "c.yaml")))

	t.Setenv("COVIDSTAT_LOG_LEVEL", "loud")
	_, err = Load("")
	assert.ErrorContains(t, err, "LogLevel")
}
