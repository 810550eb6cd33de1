package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCmd_Output(t *testing.T) {
	cmd := versionCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := out.String()
	if !strings.Contains(output, version) {
		t.Errorf("expected output to contain version %q, got: %s", version, output)
	}
	if !strings.Contains(output, "Go version:") {
		t.Errorf("expected output to contain the Go version, got: %s", output)
	}
}
