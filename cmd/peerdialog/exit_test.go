package main

import (
	"errors"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestExitErrHandler_NilError(_ *testing.T) {
	// Must not exit on nil error.
	exitErrHandler(nil, nil)
}

func TestExitMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      cli.ExitCoder
		wantCode int
		wantMsg  string
	}{
		{"selected", cli.Exit("", 0), 0, ""},
		{"canceled", cli.Exit("", 1), 1, ""},
		{"failed", cli.Exit("dialog failed: peer crashed", 1), 1, "dialog failed: peer crashed"},
		{"usage", cli.Exit("unknown toolkit \"qt\"", 2), 2, "unknown toolkit \"qt\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.ExitCode(); got != tt.wantCode {
				t.Errorf("exit code = %d, want %d", got, tt.wantCode)
			}
			if got := exitMessage(tt.err); got != tt.wantMsg {
				t.Errorf("exitMessage = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestExitErrHandler_WrappedExitCoder(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), cli.Exit("inner error", 2))

	var exitCoder cli.ExitCoder
	if !errors.As(wrapped, &exitCoder) {
		t.Fatal("wrapped error should still match cli.ExitCoder")
	}
	if exitCoder.ExitCode() != 2 {
		t.Errorf("exit code = %d, want 2", exitCoder.ExitCode())
	}
}

func TestExitErrHandler_RegularError(t *testing.T) {
	var exitCoder cli.ExitCoder
	if errors.As(errors.New("regular error"), &exitCoder) {
		t.Fatal("regular error should not be cli.ExitCoder")
	}
}
