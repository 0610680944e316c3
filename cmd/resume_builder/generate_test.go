package main

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runBinary(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getBinaryPath(t), args...)
	cmd.Env = offlineEnv()
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func TestGenerateCommand_FallbackWithoutAPIKey(t *testing.T) {
	output, err := runBinary(t, "generate",
		"--skills", "Python, SQL, Docker",
		"--project-title", "Library App",
		"--project-description", "Book tracking web app",
		"--role", "Data Engineer")

	require.NoError(t, err, output)
	assert.Contains(t, output, "FALLBACK BULLETS")
	assert.Contains(t, output, "Proficient in Python, SQL, Docker")
	assert.Contains(t, output, "Library App: Book tracking web app.")
	assert.NotContains(t, output, "KEYWORD MATCH")
}

func TestGenerateCommand_JSONWithJob(t *testing.T) {
	tmpDir := t.TempDir()
	jobPath := filepath.Join(tmpDir, "job.txt")
	require.NoError(t, os.WriteFile(jobPath, []byte("We need Python and SQL. Kubernetes is a plus."), 0644))

	profilePath := filepath.Join(tmpDir, "profile.json")
	require.NoError(t, os.WriteFile(profilePath, []byte(`{"name":"Asha Rao","skills":"Python, SQL","target_role":"Data Engineer"}`), 0644))

	output, err := runBinary(t, "generate", "--profile", profilePath, "--job", jobPath, "--json", "--log-level", "error")
	require.NoError(t, err, output)

	var result struct {
		Name    string   `json:"name"`
		Role    string   `json:"role"`
		Bullets []string `json:"bullets"`
		Source  string   `json:"source"`
		Score   *float64 `json:"score"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &result), output)
	assert.Equal(t, "Asha Rao", result.Name)
	assert.Equal(t, "Data Engineer", result.Role)
	assert.Equal(t, "fallback", result.Source)
	assert.NotEmpty(t, result.Bullets)
	require.NotNil(t, result.Score)
	assert.Greater(t, *result.Score, 0.0)
}

func TestGenerateCommand_WritesPDF(t *testing.T) {
	pdfPath := filepath.Join(t.TempDir(), "resume.pdf")

	output, err := runBinary(t, "generate", "--name", "Asha Rao", "--skills", "Go", "--pdf", pdfPath)
	require.NoError(t, err, output)

	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestGenerateCommand_Errors(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		errorString string
	}{
		{
			name:        "job and job-url together",
			args:        []string{"generate", "--job", "job.txt", "--job-url", "https://example.com/job"},
			errorString: "none of the others can be",
		},
		{
			name:        "invalid email",
			args:        []string{"generate", "--email", "not-an-email"},
			errorString: "email must be a valid email address",
		},
		{
			name:        "missing job file",
			args:        []string{"generate", "--job", "does-not-exist.txt"},
			errorString: "file not found",
		},
		{
			name:        "unknown profile field",
			args:        []string{"generate", "--profile", filepath.Join("testdata", "bad_profile.json")},
			errorString: "invalid profile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := runBinary(t, tt.args...)
			assert.Error(t, err)
			assert.Contains(t, output, tt.errorString)
		})
	}
}

func TestServeCommand_InvalidPort(t *testing.T) {
	output, err := runBinary(t, "serve", "--port", "70000")
	assert.Error(t, err)
	assert.Contains(t, output, "port")
}
