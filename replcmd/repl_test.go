package replcmd

import (
	"strings"
	"testing"
)

func TestRunDispatchesRegisteredCommand(t *testing.T) {
	r := New()
	r.AddCommand("echo", func(line string, _ *Session) (string, error) {
		return strings.TrimPrefix(line, "echo "), nil
	}, "echo <text>: print text back")

	var out strings.Builder
	r.Run("", strings.NewReader("echo hello\n"), &out)

	if !strings.Contains(out.String(), "hello") {
		t.Fatalf("Run() output %q does not contain the echoed text", out.String())
	}
}

func TestRunReportsUnknownCommand(t *testing.T) {
	r := New()
	var out strings.Builder
	r.Run("", strings.NewReader("bogus\n"), &out)

	if !strings.Contains(out.String(), ErrorPrefix) {
		t.Fatalf("Run() output %q does not contain the error prefix for an unknown command", out.String())
	}
}

func TestRunPrefixesCommandErrors(t *testing.T) {
	r := New()
	r.AddCommand("fail", func(string, *Session) (string, error) {
		return "", errBoom
	}, "fail: always errors")

	var out strings.Builder
	r.Run("", strings.NewReader("fail\n"), &out)

	if !strings.Contains(out.String(), ErrorPrefix+"boom") {
		t.Fatalf("Run() output %q does not contain the expected prefixed error", out.String())
	}
}

func TestHelpStringListsEveryCommand(t *testing.T) {
	r := New()
	r.AddCommand("a", func(string, *Session) (string, error) { return "", nil }, "a: does a")
	r.AddCommand("b", func(string, *Session) (string, error) { return "", nil }, "b: does b")

	help := r.HelpString()
	if !strings.Contains(help, "a: does a") || !strings.Contains(help, "b: does b") {
		t.Fatalf("HelpString() = %q, want both registered commands listed", help)
	}
}

func TestAddCommandIgnoresHelpTrigger(t *testing.T) {
	r := New()
	called := false
	r.AddCommand(TriggerHelp, func(string, *Session) (string, error) {
		called = true
		return "", nil
	}, "should never be registered")

	var out strings.Builder
	r.Run("", strings.NewReader(".help\n"), &out)
	if called {
		t.Fatalf("registering under TriggerHelp should be a no-op; the built-in help handler should have run instead")
	}
}

var errBoom = boomError{}

type boomError struct{}

func (boomError) Error() string { return "boom" }
