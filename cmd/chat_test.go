package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/askdata/testutil"
)

func TestChatCommand_Session(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	csv := testutil.CreateSalesCSV(t)
	out := testutil.CreateTempDir(t)
	export := filepath.Join(out, "chat.jsonl")

	input := strings.Join([]string{
		"/schema",
		"total by region",
		"",
		"/history",
		"/charts " + filepath.Join(out, "charts"),
		"/export " + export,
		"/quit",
		"never sent",
	}, "\n")

	stdout, stderr, err := executeCommand(t, input, "--api-base", backend.URL, "chat", csv)
	if err != nil {
		t.Fatalf("chat failed: %v\n%s\n%s", err, stdout, stderr)
	}

	for _, want := range []string{
		"askdata chat",
		"Dataset: ds-sales",
		"Total per region",
		"[2/2]",
		"Saved ",
		"Exported 2 message(s)",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output should contain %q\n%s", want, stdout)
		}
	}

	if got := backend.Questions(); len(got) != 1 {
		t.Errorf("backend got %d questions, want 1: %+v", len(got), got)
	}

	data, err := os.ReadFile(export)
	if err != nil {
		t.Fatalf("export not written: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 2 {
		t.Errorf("export has %d lines, want 2", lines)
	}
	if _, err := os.Stat(filepath.Join(out, "charts", "message-2-chart-1.png")); err != nil {
		t.Errorf("chart not saved: %v", err)
	}
}

func TestChatCommand_QuestionBeforeUpload(t *testing.T) {
	backend := testutil.NewFakeBackend(t)

	_, stderr, err := executeCommand(t, "how many rows?\n/bogus\n", "--api-base", backend.URL, "chat")
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if !strings.Contains(stderr, "Upload a dataset first") {
		t.Errorf("stderr should ask for an upload, got %q", stderr)
	}
	if !strings.Contains(stderr, "Unknown command /bogus") {
		t.Errorf("stderr should flag the unknown command, got %q", stderr)
	}
	if len(backend.Questions()) != 0 {
		t.Error("no question may reach the backend without a dataset")
	}
}

func TestChatCommand_UploadReplacesConversation(t *testing.T) {
	backend := testutil.NewFakeBackend(t)
	csv := testutil.CreateSalesCSV(t)
	dir := testutil.CreateTempDir(t)
	bad := testutil.WriteFile(t, dir, "notes.pdf", []byte("x"))
	export := filepath.Join(dir, "after.json")

	input := strings.Join([]string{
		"first question",
		"/upload " + bad,
		"/upload " + csv,
		"/export " + export,
	}, "\n")

	stdout, stderr, err := executeCommand(t, input, "--api-base", backend.URL, "chat", csv)
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}
	if !strings.Contains(stderr, "Please upload a .csv or .xlsx file") {
		t.Errorf("stderr should reject the pdf, got %q", stderr)
	}
	if got := len(backend.Uploads()); got != 2 {
		t.Errorf("backend got %d uploads, want 2", got)
	}
	if !strings.Contains(stdout, "Exported 0 message(s)") {
		t.Errorf("the second upload should clear the conversation\n%s", stdout)
	}
}

func TestIsInteractive(t *testing.T) {
	if isInteractive(strings.NewReader("")) {
		t.Error("a string reader is not interactive")
	}
}
