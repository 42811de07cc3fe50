package main

import (
	"strings"
	"testing"
)

func TestRun_RejectsSurplusCommitOperands(t *testing.T) {
	rootCmd.SetArgs([]string{"1a2b3c4d", "4d5e6f7a"})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("Execute() accepted two commit operands")
	}
	if !strings.Contains(err.Error(), "single commit operand") {
		t.Errorf("error = %q; want single-operand usage error", err)
	}
}
