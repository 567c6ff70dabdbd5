package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestStatusServer(t *testing.T, logPath string) *StatusServer {
	t.Helper()
	cfg := defaultConfig()
	cfg.Status.Username = "ops"
	cfg.Status.PasswordHash = hashPassword("s3cret")
	logger := newEventLoggerWith(zap.NewNop())
	logger.filePath = logPath
	return NewStatusServer(cfg, logger)
}

func TestStatusServer_RequiresAuth(t *testing.T) {
	srv := httptest.NewServer(newTestStatusServer(t, "").Handler())
	defer srv.Close()

	for _, creds := range [][2]string{{"", ""}, {"ops", "wrong"}, {"admin", "s3cret"}} {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/status", nil)
		if creds[0] != "" {
			req.SetBasicAuth(creds[0], creds[1])
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%v: want 401, got %d", creds, resp.StatusCode)
		}
	}
}

func TestStatusServer_ReportsLastCycle(t *testing.T) {
	s := newTestStatusServer(t, "")
	s.Observe(Cycle{Time: time.Now(), Reading: 300, Threshold: 500, Condition: ConditionSafe})
	s.Observe(Cycle{Time: time.Now(), Reading: 501, Threshold: 500, Condition: ConditionDanger, Notified: true})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/status", nil)
	req.SetBasicAuth("ops", "s3cret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Cycles != 2 || body.DangerCycles != 1 || body.Threshold != 500 {
		t.Fatalf("counters: %+v", body)
	}
	if body.Last == nil || body.Last.Reading != 501 || !body.Last.Notified {
		t.Fatalf("last: %+v", body.Last)
	}
}

func TestStatusServer_RejectsWrites(t *testing.T) {
	srv := httptest.NewServer(newTestStatusServer(t, "").Handler())
	defer srv.Close()
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/status", nil)
	req.SetBasicAuth("ops", "s3cret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("want 405, got %d", resp.StatusCode)
	}
}

func TestStatusServer_LogTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0644); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(newTestStatusServer(t, path).Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/logs?lines=2", nil)
	req.SetBasicAuth("ops", "s3cret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var lines []string
	if err := json.NewDecoder(resp.Body).Decode(&lines); err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("tail: %v", lines)
	}
}

func TestTailLines_ReadsOnlyTheEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	var sb strings.Builder
	for i := 0; i < 10000; i++ {
		fmt.Fprintf(&sb, "line-%05d\n", i)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		t.Fatal(err)
	}

	// 100 bytes covers nine 11-byte lines and a cut one.
	lines, err := tailLines(path, 200, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 9 {
		t.Fatalf("want 9 whole lines from a 100 byte window, got %d: %v", len(lines), lines)
	}
	for _, l := range lines {
		if len(l) != len("line-00000") {
			t.Fatalf("partial line returned: %q", l)
		}
	}
	if lines[len(lines)-1] != "line-09999" || lines[0] != "line-09991" {
		t.Fatalf("wrong window: %v", lines)
	}

	lines, err = tailLines(path, 3, logTailBytes)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 3 || lines[0] != "line-09997" {
		t.Fatalf("line limit: %v", lines)
	}
}

func TestTailLines_MissingFile(t *testing.T) {
	if _, err := tailLines(filepath.Join(t.TempDir(), "nope.log"), 10, logTailBytes); err == nil {
		t.Fatal("expected error")
	}
}
