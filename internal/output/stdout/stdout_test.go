package stdout

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/crimson-sun/sieve/internal/output"
)

func testResult() output.Result {
	zero := 0
	return output.Result{
		Line:     3,
		Hostname: "host-a",
		Process:  "sshd",
		Message:  "Accepted publickey",
		Anomaly:  &zero,
	}
}

func TestOutputCompactJSON(t *testing.T) {
	var buf bytes.Buffer
	out := NewWriter(&buf, output.Standard, false)
	if err := out.Write(context.Background(), testResult()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "\n") {
		t.Errorf("compact output spans lines: %q", line)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(line), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got["anomaly_prediction"] != float64(0) {
		t.Errorf("anomaly_prediction = %v, want 0", got["anomaly_prediction"])
	}
	if got["message"] != "Accepted publickey" {
		t.Errorf("message = %v", got["message"])
	}
	if _, ok := got["error"]; ok {
		t.Error("error key present on success")
	}
}

func TestOutputPretty(t *testing.T) {
	var buf bytes.Buffer
	out := NewWriter(&buf, output.Standard, true)
	if err := out.Write(context.Background(), testResult()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"line\": 3") {
		t.Errorf("output not indented: %q", buf.String())
	}
}

func TestOutputMinimalOmitsMessage(t *testing.T) {
	var buf bytes.Buffer
	out := NewWriter(&buf, output.Minimal, false)
	if err := out.Write(context.Background(), testResult()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if strings.Contains(buf.String(), "message") {
		t.Errorf("minimal output contains message: %q", buf.String())
	}
}

func TestOutputErrorResult(t *testing.T) {
	var buf bytes.Buffer
	out := NewWriter(&buf, output.Standard, false)
	r := output.Result{Line: 4, Error: "Missing required fields: Message", Category: "invalid_request"}
	if err := out.Write(context.Background(), r); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if strings.Contains(buf.String(), "anomaly_prediction") {
		t.Errorf("error result carries a prediction: %q", buf.String())
	}
	if !strings.Contains(buf.String(), `"category":"invalid_request"`) {
		t.Errorf("category missing: %q", buf.String())
	}
}
