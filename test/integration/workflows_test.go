//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExtractWorkflow_Organizations extracts organizations and checks the
// enrichment keys of every record.
func TestExtractWorkflow_Organizations(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)

	stdout, stderr, err := runner.Run("extract", "orgs", "--max-pages", "2")
	require.NoError(t, err, "extract orgs failed: %s", stderr)

	for _, envelope := range ParseLines(t, stdout) {
		assert.Equal(t, "organization", envelope.Kind)
		assert.Contains(t, envelope.Record, "login")
		assert.Contains(t, envelope.Record, "members")
		assert.Contains(t, envelope.Record, "repositories")
	}
}

// TestExtractWorkflow_RepositoriesToFile writes repositories through the file
// sink.
func TestExtractWorkflow_RepositoriesToFile(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)
	path := filepath.Join(t.TempDir(), "repos.jsonl")

	_, stderr, err := runner.Run("extract", "repos", "--org-public",
		"--sink", "file", "--output-file", path, "--max-pages", "1")
	require.NoError(t, err, "extract repos failed: %s", stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	for _, envelope := range ParseLines(t, string(data)) {
		assert.Equal(t, "repository", envelope.Kind)
		assert.Contains(t, envelope.Record, "languages")
		assert.Contains(t, envelope.Record, "webhooks")
		assert.Contains(t, envelope.Record, "collaborators")
		assert.NotContains(t, envelope.Record, "owner")
	}
}

// TestExtractWorkflow_NothingSelected fails before any request is made.
func TestExtractWorkflow_NothingSelected(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	runner := NewCommandRunner(config, t)

	_, stderr, err := runner.Run("extract", "repos")
	require.Error(t, err)
	assert.Contains(t, stderr, "no repositories selected")
}

// TestExtractWorkflow_AuditLog runs a one day audit search.
func TestExtractWorkflow_AuditLog(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	if config.Enterprise == "" {
		t.Skip("GHEXTRACT_AUDIT_ENTERPRISE not set, skipping audit test")
	}

	runner := NewCommandRunner(config, t)

	stdout, stderr, err := runner.Run("extract", "audit",
		"--enterprise", config.Enterprise, "--lookback-days", "1", "--date-mode", "exact-day")
	require.NoError(t, err, "extract audit failed: %s", stderr)

	for _, envelope := range ParseLines(t, stdout) {
		assert.Equal(t, "audit", envelope.Kind)
		assert.NotContains(t, envelope.Record, "@timestamp")
	}
}

// TestAuditPhrases needs no token or network.
func TestAuditPhrases(t *testing.T) {
	config := LoadTestConfig()

	runner := NewCommandRunner(config, t)

	stdout, stderr, err := runner.Run("audit", "phrases", "--action", "repo.create",
		"--lookback-days", "1", "--output", "json")
	if err != nil && stdout == "" {
		t.Skipf("ghextract binary unavailable: %s", stderr)
	}

	require.NoError(t, err)
	assert.Contains(t, stdout, "action:repo.create created:>=")
}
