package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// getBinaryPath returns the path to the resume_builder binary for testing
func getBinaryPath(t *testing.T) string {
	binaryName := "resume_builder"
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", binaryName)
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'make build'", binaryPath)
	}

	return binaryPath
}

// offlineEnv is the current environment without model API keys, so runs use
// the fallback bullets.
func offlineEnv() []string {
	var env []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "GEMINI_API_KEY=") || strings.HasPrefix(e, "OPENAI_API_KEY=") ||
			strings.HasPrefix(e, "RESUME_") {
			continue
		}
		env = append(env, e)
	}
	return env
}
