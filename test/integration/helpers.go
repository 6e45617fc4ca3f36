//go:build integration

package integration

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"testing"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	Hostname   string
	Token      string
	Enterprise string
	BinaryPath string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		Hostname:   os.Getenv("GHEXTRACT_HOSTNAME"),
		Token:      os.Getenv("GHEXTRACT_TOKEN"),
		Enterprise: os.Getenv("GHEXTRACT_AUDIT_ENTERPRISE"),
		BinaryPath: getBinaryPath(),
		Verbose:    os.Getenv("GHEXTRACT_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the ghextract binary
func getBinaryPath() string {
	if path := os.Getenv("GHEXTRACT_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../ghextract",
		"./ghextract",
		"../ghextract",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "ghextract"
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.Token == "" {
		t.Skip("GHEXTRACT_TOKEN not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("ghextract binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner runs the ghextract binary
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{
		config: config,
		t:      t,
	}
}

// Run executes a ghextract command and returns output. Credentials are
// passed through the environment only.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.BinaryPath, args...)
	cmd.Env = append(os.Environ(),
		"GHEXTRACT_TOKEN="+runner.config.Token,
		"GHEXTRACT_HOSTNAME="+runner.config.Hostname,
	)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// Envelope is one JSON line written by the stdout and file sinks.
type Envelope struct {
	Kind   string                 `json:"kind"`
	Record map[string]interface{} `json:"record"`
}

// ParseLines decodes JSON lines output.
func ParseLines(t *testing.T, output string) []Envelope {
	t.Helper()

	var envelopes []Envelope

	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var envelope Envelope
		if err := json.Unmarshal([]byte(line), &envelope); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}

		envelopes = append(envelopes, envelope)
	}

	if err := scanner.Err(); err != nil {
		t.Fatalf("reading output: %v", err)
	}

	return envelopes
}
