//go:build integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestBinaryCompactStdin pipes a document through the built binary.
func TestBinaryCompactStdin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	binaryPath := buildMdastBinary(t)

	cmd := exec.Command(binaryPath, "--compact")
	cmd.Stdin = strings.NewReader("# Grüße 🌍\n\n- a\n- b\n")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("mdast failed: %v\nStderr: %s", err, stderr.String())
	}
	if bytes.Contains(stdout.Bytes(), []byte("\n")) {
		t.Errorf("compact output contains a newline: %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "Grüße 🌍") {
		t.Errorf("unicode not preserved: %s", stdout.String())
	}

	var tree map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &tree); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if tree["type"] != "root" {
		t.Errorf("type = %v, want root", tree["type"])
	}
}

// TestBinaryMissingInput checks the exit status and that stdout stays clean.
func TestBinaryMissingInput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	binaryPath := buildMdastBinary(t)

	cmd := exec.Command(binaryPath, filepath.Join(t.TempDir(), "absent.md"))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout should be empty: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "not found") {
		t.Errorf("stderr = %q, want not found", stderr.String())
	}
}

// TestBinaryVersion checks the version flag.
func TestBinaryVersion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	binaryPath := buildMdastBinary(t)

	output, err := exec.Command(binaryPath, "--version").CombinedOutput()
	if err != nil {
		t.Fatalf("version failed: %v\nOutput: %s", err, output)
	}
	if !bytes.HasPrefix(output, []byte("mdast ")) {
		t.Errorf("version output = %q", output)
	}
}

// TestBinaryWatchInterrupt runs watch mode, edits the input and stops the
// process with SIGINT.
func TestBinaryWatchInterrupt(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	binaryPath := buildMdastBinary(t)
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "doc.md")
	output := filepath.Join(tmpDir, "doc.json")
	if err := os.WriteFile(input, []byte("# First"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, input, "--watch", "-o", output)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	}()

	if !waitForContent(output, "First", 10*time.Second) {
		t.Fatalf("initial output not written\nStderr: %s", stderr.String())
	}

	if err := os.WriteFile(input, []byte("# Second"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !waitForContent(output, "Second", 10*time.Second) {
		t.Fatalf("output not rewritten after edit\nStderr: %s", stderr.String())
	}

	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		t.Fatalf("failed to send SIGINT: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Logf("watch exited with %v\nStderr: %s", err, stderr.String())
		}
	case <-time.After(5 * time.Second):
		t.Error("watch did not stop within 5 seconds")
	}
}

// buildMdastBinary builds the mdast binary once per test into a temp dir.
func buildMdastBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "mdast")
	t.Log("Building mdast binary...")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build mdast: %v\nOutput: %s", err, output)
	}
	return binaryPath
}

// waitForContent polls path until it contains want.
func waitForContent(path, want string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil && bytes.Contains(data, []byte(want)) {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}
