package lua

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSandboxRemovesLoaders(t *testing.T) {
	state := NewState()
	defer state.Close()

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		if err := state.DoString(`assert(` + name + ` == nil)`); err != nil {
			t.Errorf("%s is still available: %v", name, err)
		}
	}
}

func TestSandboxClosedLibraries(t *testing.T) {
	state := NewState()
	defer state.Close()

	for _, name := range []string{"io", "os", "debug"} {
		if err := state.DoString(`assert(` + name + ` == nil)`); err != nil {
			t.Errorf("%s is available: %v", name, err)
		}
	}
}

func TestSandboxRequire(t *testing.T) {
	state := NewState()
	defer state.Close()

	if err := state.DoString(`local s = require("string"); assert(s.upper("a") == "A")`); err != nil {
		t.Errorf("require(string) error = %v", err)
	}

	if err := state.DoString(`require("os")`); err == nil {
		t.Error("require(os) should fail")
	}
	if err := state.DoString(`require("socket")`); err == nil {
		t.Error("require(socket) should fail")
	}
}

func TestSandboxAllow(t *testing.T) {
	sb := NewSandbox(nil)
	if sb.Allowed("notos") {
		t.Error("notos allowed before Allow")
	}
	sb.Allow("notos")
	if !sb.Allowed("notos") {
		t.Error("notos not allowed after Allow")
	}
}

func TestSandboxPrintGoesToLog(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.InfoLevel)

	state := NewState(WithSandbox(NewSandbox(logrus.NewEntry(logger))))
	defer state.Close()

	if err := state.DoString(`print("hello", 42)`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	if !strings.Contains(buf.String(), "hello\t42") && !strings.Contains(buf.String(), `hello\t42`) {
		t.Errorf("log output %q missing printed text", buf.String())
	}
}
