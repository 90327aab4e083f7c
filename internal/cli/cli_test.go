package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"productspace/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	body := "year: 2022\n" +
		"data:\n  dir: " + filepath.Join(dir, "data") + "\n" +
		"output:\n  dir: " + filepath.Join(dir, "out") + "\n" +
		"log:\n  level: error\n  output: stderr\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "atlas", cmd.Use)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"run", "scrape", "version"}, names)
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version", "--config", "/does/not/exist.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "atlas dev")
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: failed to read config file")
}

func TestRunInvalidFlags(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "run", "--config", writeConfig(t, dir), "--year=-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid flags")
}

func TestRunMissingData(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "run", "--config", writeConfig(t, dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline: load")

	// the snapshot is written before any input is read
	assert.FileExists(t, filepath.Join(dir, "out", "config_snapshot.yaml"))
}

func TestRunRejectsBadLogLevel(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "run", "--config", writeConfig(t, dir), "--log-level", "loud")
	require.Error(t, err)
}

func TestScrapeSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Scrape.Timeout = 5 * time.Second
	env := &Env{Config: cfg, Logger: zap.NewNop()}

	opts := &scrapeOptions{}
	cmd := NewScrapeCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--download-dir", "raw", "--headless=false", "--complexity-only"}))
	opts.downloadDir, _ = cmd.Flags().GetString("download-dir")
	opts.headless, _ = cmd.Flags().GetBool("headless")
	opts.complexityOnly, _ = cmd.Flags().GetBool("complexity-only")

	browser, so := scrapeSettings(cmd, env, opts)
	assert.Equal(t, cfg.Scrape.URL, browser.URL)
	assert.Equal(t, "raw", browser.DownloadDir)
	assert.False(t, browser.Headless)
	assert.Equal(t, 5*time.Second, browser.Timeout)

	assert.Equal(t, "raw", so.DownloadDir)
	assert.True(t, so.ComplexityOnly)
	assert.Equal(t, 50*time.Minute, so.DownloadTimeout)
}

func TestScrapeSettingsDefaults(t *testing.T) {
	env := &Env{Config: config.Default(), Logger: zap.NewNop()}
	cmd := NewScrapeCmd()
	require.NoError(t, cmd.ParseFlags(nil))

	browser, so := scrapeSettings(cmd, env, &scrapeOptions{})
	assert.True(t, browser.Headless)
	assert.Equal(t, "data", browser.DownloadDir)
	assert.False(t, so.ComplexityOnly)
}

func TestExecuteReturnsError(t *testing.T) {
	err := Execute(context.Background(), "run", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: failed to read config file")
}
