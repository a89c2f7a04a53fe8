package logger

import "testing"

func TestRedactMasksCredentialKeys(t *testing.T) {
	in := []interface{}{"email", "a@b.c", "password", "hunter2", "sb-access-token", "abc", "odd"}
	out := redact(in)
	if out[1] != "a@b.c" {
		t.Fatalf("email should pass through, got %v", out[1])
	}
	if out[3] != "[REDACTED]" || out[5] != "[REDACTED]" {
		t.Fatalf("secrets not masked: %v", out)
	}
	if in[3] != "hunter2" {
		t.Fatal("input slice must not be mutated")
	}
	if len(out) != len(in) {
		t.Fatalf("length changed: %d", len(out))
	}
}
