package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"slidecast/internal/api"
	"slidecast/internal/testsupport"
)

func writeDeck(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kickoff.pptx")
	if err := os.WriteFile(path, []byte("pptx"), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}
	return path
}

func startTestDaemon(t *testing.T, token string) (*Daemon, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIToken = token
	d := newTestDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)

	addr := d.APIAddr()
	if addr == "" {
		t.Fatal("missing api address")
	}
	return d, "http://" + addr
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, buf.Bytes()
}

func TestAPISubmitListAndProgress(t *testing.T) {
	_, base := startTestDaemon(t, "")

	resp, body := doJSON(t, http.MethodPost, base+"/api/runs", "", api.SubmitRequest{
		SourcePath: writeDeck(t),
		DeckTitle:  "Kickoff",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status %d: %s", resp.StatusCode, body)
	}
	var view api.RunView
	if err := json.Unmarshal(body, &view); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	if view.ID == "" || view.DeckTitle != "Kickoff" {
		t.Fatalf("unexpected run view: %+v", view)
	}

	resp, body = doJSON(t, http.MethodGet, base+"/api/runs", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status %d", resp.StatusCode)
	}
	var views []api.RunView
	if err := json.Unmarshal(body, &views); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(views) != 1 || views[0].ID != view.ID {
		t.Fatalf("unexpected list: %+v", views)
	}

	resp, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/runs/%s/progress", base, view.ID), "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("progress status %d: %s", resp.StatusCode, body)
	}
	var snapshot api.ProgressView
	if err := json.Unmarshal(body, &snapshot); err != nil {
		t.Fatalf("decode progress: %v", err)
	}
	if snapshot.RunID != view.ID {
		t.Fatalf("unexpected progress: %+v", snapshot)
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, body = doJSON(t, http.MethodGet, base+"/api/runs/"+view.ID, "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("describe status %d", resp.StatusCode)
		}
		var detail api.RunDetail
		if err := json.Unmarshal(body, &detail); err != nil {
			t.Fatalf("decode detail: %v", err)
		}
		if detail.Status == "completed" {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("run did not complete via API polling")
}

func TestAPIStatusEndpoint(t *testing.T) {
	_, base := startTestDaemon(t, "")

	resp, body := doJSON(t, http.MethodGet, base+"/api/status", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var status statusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running || len(status.Stages) != 5 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestAPIUnknownRunReturns404(t *testing.T) {
	_, base := startTestDaemon(t, "")

	resp, _ := doJSON(t, http.MethodGet, base+"/api/runs/nope", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status %d, want 404", resp.StatusCode)
	}
}

func TestAPIRetryNonFailedRunConflicts(t *testing.T) {
	_, base := startTestDaemon(t, "")

	resp, _ := doJSON(t, http.MethodPost, base+"/api/runs/nope/retry", "", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status %d, want 409", resp.StatusCode)
	}
}

func TestAPIBearerTokenRequired(t *testing.T) {
	_, base := startTestDaemon(t, "secret")

	resp, _ := doJSON(t, http.MethodGet, base+"/api/status", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, base+"/api/status", "wrong", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, base+"/api/status", "secret", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
}

func TestAPILogsEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	logPath := filepath.Join(cfg.Paths.LogDir, "slidecast.log")
	if err := os.WriteFile(logPath, []byte("first line\nsecond line\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	d := newTestDaemon(t, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)

	resp, body := doJSON(t, http.MethodGet, "http://"+d.APIAddr()+"/api/logs?limit=1", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
	var payload struct {
		Lines  []string `json:"lines"`
		Offset int64    `json:"offset"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode logs response: %v", err)
	}
	if len(payload.Lines) != 1 || payload.Lines[0] != "second line" {
		t.Fatalf("unexpected lines: %#v", payload.Lines)
	}
	if payload.Offset == 0 {
		t.Fatal("expected offset to advance")
	}
}
