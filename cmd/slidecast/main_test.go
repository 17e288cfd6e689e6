package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	inboxDir   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		inboxDir:   filepath.Join(base, "inbox"),
	}

	content := fmt.Sprintf(
		"[paths]\ninbox_dir = %q\nstaging_dir = %q\noutput_dir = %q\nlog_dir = %q\n\n[gemini]\napi_keys = [\"test-key\"]\n",
		env.inboxDir,
		filepath.Join(base, "staging"),
		filepath.Join(base, "output"),
		filepath.Join(base, "logs"),
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (env *cliTestEnv) writeDeck(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(env.baseDir, name)
	if err := os.WriteFile(path, []byte("stub deck"), 0o644); err != nil {
		t.Fatalf("write deck: %v", err)
	}
	return path
}

func TestSubmitCommandQueuesDeck(t *testing.T) {
	env := setupCLITestEnv(t)
	deck := env.writeDeck(t, "kickoff.pptx")

	out, err := env.run(t, "submit", deck, "--tone", "casual")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !strings.Contains(out, "Queued kickoff.pptx as run ") {
		t.Fatalf("unexpected submit output: %q", out)
	}

	listOut, err := env.run(t, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(listOut, "kickoff") || !strings.Contains(listOut, "queued") {
		t.Fatalf("queue list missing submitted run: %q", listOut)
	}
}

func TestSubmitCommandRejectsUnsupportedFile(t *testing.T) {
	env := setupCLITestEnv(t)
	notes := env.writeDeck(t, "notes.txt")

	if _, err := env.run(t, "submit", notes); err == nil {
		t.Fatal("expected submit of .txt to fail")
	}
}

func TestSubmitCommandRejectsDuplicate(t *testing.T) {
	env := setupCLITestEnv(t)
	deck := env.writeDeck(t, "quarterly.pptx")

	if _, err := env.run(t, "submit", deck); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := env.run(t, "submit", deck); err == nil {
		t.Fatal("expected duplicate submit to fail")
	}
}

func TestShowCommandRendersRun(t *testing.T) {
	env := setupCLITestEnv(t)
	deck := env.writeDeck(t, "roadmap.pptx")

	out, err := env.run(t, "submit", deck, "--title", "Roadmap Review")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	runID := extractRunID(t, out)

	showOut, err := env.run(t, "show", runID)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(showOut, "Roadmap Review") {
		t.Fatalf("show output missing deck title: %q", showOut)
	}
	if !strings.Contains(showOut, "queued") {
		t.Fatalf("show output missing status: %q", showOut)
	}
}

func TestShowCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	deck := env.writeDeck(t, "launch.pptx")

	out, err := env.run(t, "submit", deck)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	runID := extractRunID(t, out)

	jsonOut, err := env.run(t, "show", runID, "--json")
	if err != nil {
		t.Fatalf("show --json: %v", err)
	}
	if !strings.Contains(jsonOut, `"id": "`+runID+`"`) {
		t.Fatalf("json output missing run id: %q", jsonOut)
	}
	if !strings.Contains(jsonOut, `"status": "queued"`) {
		t.Fatalf("json output missing status: %q", jsonOut)
	}
}

func TestShowCommandUnknownRun(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.run(t, "show", "missing-run"); err == nil {
		t.Fatal("expected show of unknown run to fail")
	}
}

func TestQueueListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "Queue is empty") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestQueueListRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.run(t, "queue", "list", "--status", "bogus"); err == nil {
		t.Fatal("expected unknown status filter to fail")
	}
}

func TestQueueClearRemovesRuns(t *testing.T) {
	env := setupCLITestEnv(t)
	deck := env.writeDeck(t, "allhands.pptx")

	if _, err := env.run(t, "submit", deck); err != nil {
		t.Fatalf("submit: %v", err)
	}
	out, err := env.run(t, "queue", "clear")
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	if !strings.Contains(out, "Cleared 1 runs") {
		t.Fatalf("unexpected clear output: %q", out)
	}

	listOut, err := env.run(t, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(listOut, "Queue is empty") {
		t.Fatalf("queue not empty after clear: %q", listOut)
	}
}

func TestQueueRemoveCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	deck := env.writeDeck(t, "training.pptx")

	out, err := env.run(t, "submit", deck)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	runID := extractRunID(t, out)

	removeOut, err := env.run(t, "queue", "remove", runID)
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	if !strings.Contains(removeOut, "Removed run "+runID) {
		t.Fatalf("unexpected remove output: %q", removeOut)
	}

	if _, err := env.run(t, "queue", "remove", runID); err == nil {
		t.Fatal("expected second remove to fail")
	}
}

func TestQueueProgressCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	deck := env.writeDeck(t, "retro.pptx")

	out, err := env.run(t, "submit", deck)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	runID := extractRunID(t, out)

	progressOut, err := env.run(t, "queue", "progress", runID)
	if err != nil {
		t.Fatalf("queue progress: %v", err)
	}
	if !strings.Contains(progressOut, `"run_id": "`+runID+`"`) {
		t.Fatalf("progress output missing run id: %q", progressOut)
	}
}

func TestRetryCommandWithoutFailures(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "retry")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !strings.Contains(out, "No failed runs to retry") {
		t.Fatalf("unexpected retry output: %q", out)
	}
}

func TestStatusCommandReportsQueue(t *testing.T) {
	env := setupCLITestEnv(t)
	deck := env.writeDeck(t, "summit.pptx")

	if _, err := env.run(t, "submit", deck); err != nil {
		t.Fatalf("submit: %v", err)
	}

	out, err := env.run(t, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Slidecast Status") {
		t.Fatalf("status output missing header: %q", out)
	}
	if !strings.Contains(out, "stopped") {
		t.Fatalf("status output should report stopped daemon: %q", out)
	}
	if !strings.Contains(out, "queued") {
		t.Fatalf("status output missing queue counts: %q", out)
	}
}

func extractRunID(t *testing.T, submitOutput string) string {
	t.Helper()
	const marker = " as run "
	idx := strings.Index(submitOutput, marker)
	if idx < 0 {
		t.Fatalf("submit output missing run id: %q", submitOutput)
	}
	return strings.TrimSpace(submitOutput[idx+len(marker):])
}
