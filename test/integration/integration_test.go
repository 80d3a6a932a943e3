//go:build integration

// Copyright (c) 2026 John Dewey

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	apiKey      = "anon-integration-key"
	accessToken = "integration-access-token"
)

var (
	binaryPath  string
	configPath  string
	missingPath string
	backend     *httptest.Server
	tempDir     string
)

func TestMain(
	m *testing.M,
) {
	var err error

	tempDir, err = os.MkdirTemp("", "tether-integration-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create temp dir: %v\n", err)
		os.Exit(1)
	}

	binaryPath = filepath.Join(tempDir, "tether")
	buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
	buildCmd.Dir = repoRoot()
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "build binary: %v\n", err)
		os.Exit(1)
	}

	backend = httptest.NewServer(newBackend())

	configPath, err = writeConfig("tether.yaml", fmt.Sprintf(`
environment: development
backend:
  url: %s
  api_key: %s
timeouts:
  rpc: 1s
session:
  dir: %s
`, backend.URL, apiKey, filepath.Join(tempDir, "session")))
	if err != nil {
		fmt.Fprintf(os.Stderr, "write config: %v\n", err)
		os.Exit(1)
	}

	missingPath, err = writeConfig("missing.yaml", fmt.Sprintf(`
environment: development
session:
  dir: %s
`, filepath.Join(tempDir, "missing-session")))
	if err != nil {
		fmt.Fprintf(os.Stderr, "write config: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "integration: backend=%s dir=%s\n", backend.URL, tempDir)

	code := m.Run()

	backend.Close()
	os.RemoveAll(tempDir)
	os.Exit(code)
}

// newBackend fakes the hosted backend's auth, rest and rpc endpoints.
func newBackend() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /auth/v1/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "hunter2" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  accessToken,
			"refresh_token": "integration-refresh-token",
			"token_type":    "bearer",
			"expires_in":    3600,
			"expires_at":    time.Now().Add(time.Hour).Unix(),
			"user":          map[string]any{"id": "u-1", "email": "it@example.com"},
		})
	})
	mux.HandleFunc("POST /auth/v1/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /rest/v1/todos", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != apiKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":1,"title":"write tests"}]`)
	})
	mux.HandleFunc("POST /rest/v1/rpc/echo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.Copy(w, r.Body)
	})
	mux.HandleFunc("POST /rest/v1/rpc/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

func writeConfig(
	name string,
	content string,
) (string, error) {
	path := filepath.Join(tempDir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", err
	}

	return path, nil
}

func repoRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("get working directory: %v", err))
	}

	// test/integration/ is two levels below repo root
	return filepath.Join(wd, "..", "..")
}

func runCLI(
	args ...string,
) (string, string, int) {
	return runCLIWith(configPath, args...)
}

func runCLIWith(
	config string,
	args ...string,
) (string, string, int) {
	fullArgs := append([]string{"-f", config}, args...)
	cmd := exec.Command(binaryPath, fullArgs...)
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	return stdout.String(), stderr.String(), exitCode
}

func parseJSON(
	raw string,
	target any,
) error {
	return json.Unmarshal([]byte(strings.TrimSpace(raw)), target)
}
