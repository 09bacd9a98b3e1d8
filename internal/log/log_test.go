package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestInit_DefaultLevelSuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Stderr: &buf})

	Debug("hidden")
	Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug output not suppressed at default level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn output missing")
	}
}

func TestInit_Verbose(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Verbose: true, Stderr: &buf})

	Debug("visible", "key", "value")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug output missing in verbose mode")
	}
	if !strings.Contains(buf.String(), "key=value") {
		t.Error("attributes missing from text output")
	}
}

func TestInit_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{JSONFormat: true, Stderr: &buf})

	Error("boom", "code", 7)
	out := buf.String()
	if !strings.Contains(out, `"msg":"boom"`) || !strings.Contains(out, `"code":7`) {
		t.Errorf("unexpected JSON output: %s", out)
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	With("request_id", "req_1").Info("handled")
	if !strings.Contains(buf.String(), "request_id=req_1") {
		t.Errorf("contextual attribute missing: %s", buf.String())
	}
}
