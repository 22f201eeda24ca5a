package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/alfredjeanlab/confvault/internal/model"
)

// runCLI executes cv with args against the store in dir and returns stdout.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONFVAULT_CONFIG", "")
	t.Setenv("CONFVAULT_DATABASE_URL", "")
	t.Setenv("CONFVAULT_NATS_URL", "")
	t.Setenv("CONFVAULT_BACKEND", "file")
	t.Setenv("CONFVAULT_DATA_DIR", dir)
	t.Setenv("CONFVAULT_BOOTSTRAP", "false")
	t.Setenv("CONFVAULT_LOG_LEVEL", "error")

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags restores every flag to its default so values from one run do
// not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCLI_SaveHistoryRollback(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")

	x := writeFile(t, "x.toml", "id = \"a1\"\nname = \"A1\"\nrole = \"X\"\ntemperature = 0.5\n")
	y := writeFile(t, "y.yaml", "id: a1\nname: A1\nrole: \"Y\"\ntemperature: 0.5\n")

	out, err := runCLI(t, dir, "save", "agent", "-f", x, "-m", "first")
	if err != nil {
		t.Fatalf("save x: %v", err)
	}
	if !strings.Contains(out, "version 1") {
		t.Errorf("save output = %q", out)
	}
	if _, err := runCLI(t, dir, "save", "agents", "-f", y, "--actor", "alice"); err != nil {
		t.Fatalf("save y: %v", err)
	}

	out, err = runCLI(t, dir, "history", "agent", "a1", "--json")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var hist []*model.VersionRecord
	if err := json.Unmarshal([]byte(out), &hist); err != nil {
		t.Fatalf("history output: %v\n%s", err, out)
	}
	if len(hist) != 2 || hist[0].Version != 2 || hist[0].CreatedBy != "alice" || hist[1].ChangeDescription != "first" {
		t.Fatalf("history = %+v", hist)
	}

	out, err = runCLI(t, dir, "diff", "agent", "a1", "1", "2", "--json")
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(out, `"field": "role"`) {
		t.Errorf("diff output = %s", out)
	}

	if _, err := runCLI(t, dir, "rollback", "agent", "a1", "v1"); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	out, err = runCLI(t, dir, "show", "agent", "a1", "--json")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var a model.Agent
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		t.Fatal(err)
	}
	if a.Role != "X" || a.Version != 3 {
		t.Errorf("after rollback = %+v", a)
	}

	if _, err := runCLI(t, dir, "rollback", "agent", "a1", "9"); err == nil {
		t.Error("rollback to a missing version should fail")
	}
}

func TestCLI_InitListDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")

	out, err := runCLI(t, dir, "init")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Initialized file store") {
		t.Errorf("init output = %q", out)
	}
	out, _ = runCLI(t, dir, "init")
	if !strings.Contains(out, "already initialized") {
		t.Errorf("second init output = %q", out)
	}

	out, err = runCLI(t, dir, "list", "agent")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, id := range []string{"researcher", "writer", "reviewer", "3 agents"} {
		if !strings.Contains(out, id) {
			t.Errorf("list output missing %q:\n%s", id, out)
		}
	}

	if _, err := runCLI(t, dir, "delete", "agent", "writer"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := runCLI(t, dir, "show", "agent", "writer"); err == nil {
		t.Error("show after delete should fail")
	}
	out, err = runCLI(t, dir, "history", "agent", "writer")
	if err != nil || !strings.Contains(out, "Initial bootstrap") {
		t.Errorf("history after delete = %q, %v", out, err)
	}
	if _, err := runCLI(t, dir, "delete", "agent", "writer"); err == nil {
		t.Error("deleting a missing entity should fail")
	}
}

func TestCLI_BackupRestoreExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	backup := filepath.Join(t.TempDir(), "backup")
	tool := writeFile(t, "t.json", `{"id":"calc","name":"Calc","provider":"builtin","enabled":true}`)

	if _, err := runCLI(t, dir, "save", "tool", "-f", tool); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, dir, "backup", backup); err != nil {
		t.Fatalf("backup: %v", err)
	}
	if _, err := runCLI(t, dir, "delete", "tool", "calc"); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, dir, "restore", backup); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, err := runCLI(t, dir, "show", "tool", "calc"); err != nil {
		t.Errorf("tool missing after restore: %v", err)
	}

	out, err := runCLI(t, dir, "export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.Contains(lines[0], `"entity_count":1`) {
		t.Errorf("export = %s", out)
	}

	syncFile := filepath.Join(t.TempDir(), "mirror.jsonl")
	t.Setenv("CONFVAULT_SYNC_FILE", syncFile)
	if _, err := runCLI(t, dir, "sync"); err != nil {
		t.Fatalf("sync: %v", err)
	}
	data, err := os.ReadFile(syncFile)
	if err != nil || !strings.Contains(string(data), `"calc"`) {
		t.Errorf("sync file = %q, %v", data, err)
	}
}

func TestCLI_TestResults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	prompt := writeFile(t, "p.json", `{"id":"greet","name":"Greet","template":"Hello {name}","variables":["name"]}`)
	if _, err := runCLI(t, dir, "save", "prompt", "-f", prompt); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, dir, "test", "record", "prompt", "greet", "--input", "Ada", "--output", "Hello Ada", "--duration", "15ms"); err != nil {
		t.Fatalf("test record: %v", err)
	}
	if _, err := runCLI(t, dir, "test", "record", "prompt", "greet", "--input", "", "--error", "boom"); err != nil {
		t.Fatalf("test record error: %v", err)
	}
	if _, err := runCLI(t, dir, "test", "record", "prompt", "missing"); err == nil {
		t.Error("recording against a missing entity should fail")
	}

	out, err := runCLI(t, dir, "test", "list", "prompt", "greet", "--json")
	if err != nil {
		t.Fatalf("test list: %v", err)
	}
	var results []*model.TestResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("test list output: %v\n%s", err, out)
	}
	if len(results) != 2 || results[0].Status != model.TestError || results[1].Output != "Hello Ada" {
		t.Errorf("results = %+v", results)
	}
}
