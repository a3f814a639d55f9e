package logging

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestContextFields(t *testing.T) {
	ctx := context.Background()
	if fields := extractContextFields(ctx); len(fields) != 0 {
		t.Errorf("empty context produced fields: %v", fields)
	}

	ctx = WithRunID(ctx, "run-1")
	ctx = WithInput(ctx, "-")
	ctx = WithBundle(ctx, "embedded:parsemd.js")

	if GetRunID(ctx) != "run-1" {
		t.Errorf("GetRunID() = %q", GetRunID(ctx))
	}
	if GetInput(ctx) != "-" {
		t.Errorf("GetInput() = %q", GetInput(ctx))
	}
	if GetBundle(ctx) != "embedded:parsemd.js" {
		t.Errorf("GetBundle() = %q", GetBundle(ctx))
	}

	fields := extractContextFields(ctx)
	want := []any{"run_id", "run-1", "input", "-", "bundle", "embedded:parsemd.js"}
	if len(fields) != len(want) {
		t.Fatalf("extractContextFields() = %v", fields)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("field %d = %v, want %v", i, fields[i], want[i])
		}
	}
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b {
		t.Error("run IDs should be unique")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("run ID is not a UUID: %v", err)
	}
}

func TestWithContext_NoFields(t *testing.T) {
	logger := Nop()
	if logger.WithContext(context.Background()) != logger {
		t.Error("WithContext without fields should return the same logger")
	}
}
