package config_test

import (
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/sprintathon/sprintathon/internal/platform/config"
)

// os.Exit cannot be intercepted in-process, so the test re-runs itself.
func TestExitfExitsWithCode1(t *testing.T) {
	if os.Getenv("SPRINTATHON_EXITF_SUBPROCESS") == "1" {
		config.Exitf("healthcheck: %s", "not serving")
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestExitfExitsWithCode1$")
	cmd.Env = append(os.Environ(), "SPRINTATHON_EXITF_SUBPROCESS=1")

	out, err := cmd.CombinedOutput()
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected *exec.ExitError, got %T: %v", err, err)
	}
	if exitErr.ExitCode() != 1 {
		t.Fatalf("exit code = %d, want 1", exitErr.ExitCode())
	}
	if !strings.Contains(string(out), "healthcheck: not serving") {
		t.Fatalf("expected stderr to contain the message, got %q", string(out))
	}
}
