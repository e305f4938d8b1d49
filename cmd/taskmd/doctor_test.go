package main

import (
	"context"
	"testing"
)

func TestRunDoctorCommand_NoFailuresOnFreshHome(t *testing.T) {
	t.Setenv("TASKMD_HOME", t.TempDir())

	if code := runDoctorCommand(context.Background(), nil); code != 0 {
		t.Fatalf("doctor exit code = %d, want 0", code)
	}
}

func TestRunDoctorCommand_JSONOutput(t *testing.T) {
	t.Setenv("TASKMD_HOME", t.TempDir())

	if code := runDoctorCommand(context.Background(), []string{"-json"}); code != 0 {
		t.Fatalf("doctor -json exit code = %d, want 0", code)
	}
}
