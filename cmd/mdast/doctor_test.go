package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/mdast/pkg/cli"
)

func TestDoctor_Defaults(t *testing.T) {
	r := execute(t, "", "doctor")
	if r.code != cli.ExitOK {
		t.Fatalf("exit code = %d, stdout = %s, stderr = %s", r.code, r.stdout, r.stderr)
	}

	for _, want := range []string{"config", "bundle", "cache", "schema", "tracing", "status: ready"} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("report missing %q:\n%s", want, r.stdout)
		}
	}
	if !strings.Contains(r.stdout, "disabled") {
		t.Errorf("cache should be reported disabled:\n%s", r.stdout)
	}
}

func TestDoctor_JSON(t *testing.T) {
	r := execute(t, "", "doctor", "--json")
	if r.code != cli.ExitOK {
		t.Fatalf("exit code = %d, stderr = %s", r.code, r.stderr)
	}

	var report struct {
		Status string `json:"status"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	if err := json.Unmarshal([]byte(r.stdout), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, r.stdout)
	}
	if report.Status != "ready" {
		t.Errorf("status = %q", report.Status)
	}

	statuses := map[string]string{}
	for _, c := range report.Checks {
		statuses[c.Name] = c.Status
	}
	if statuses["bundle"] != "ok" || statuses["config"] != "ok" {
		t.Errorf("statuses = %v", statuses)
	}
	if statuses["cache"] != "disabled" || statuses["tracing"] != "disabled" {
		t.Errorf("statuses = %v", statuses)
	}
}

func TestDoctor_Unhealthy(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name      string
		args      []string
		unhealthy string
	}{
		{
			name:      "missing bundle",
			args:      []string{"doctor", "--bundle", filepath.Join(dir, "missing.js")},
			unhealthy: "bundle",
		},
		{
			name:      "broken bundle",
			args:      []string{"doctor", "--bundle", writeFile(t, dir, "broken.js", "var parseMd = function( {")},
			unhealthy: "bundle",
		},
		{
			name:      "missing config",
			args:      []string{"doctor", "--config", filepath.Join(dir, "missing.yaml")},
			unhealthy: "config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := execute(t, "", tt.args...)
			if r.code != cli.ExitFailure {
				t.Fatalf("exit code = %d, want %d", r.code, cli.ExitFailure)
			}
			if !strings.Contains(r.stdout, "status: degraded") {
				t.Errorf("report should be degraded:\n%s", r.stdout)
			}
			if !strings.Contains(r.stderr, "unhealthy: "+tt.unhealthy) {
				t.Errorf("stderr = %q, want unhealthy %s", r.stderr, tt.unhealthy)
			}
		})
	}
}

func TestDoctor_RejectsArgs(t *testing.T) {
	r := execute(t, "", "doctor", "extra")
	if r.code == cli.ExitOK {
		t.Fatal("doctor should reject positional arguments")
	}
}
