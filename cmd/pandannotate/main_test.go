package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExecute_Version(t *testing.T) {
	err := Execute("1.0.0", "abc123", "pandannotate", []string{"--version"})
	if err != nil {
		t.Errorf("Expected no error for --version, got: %v", err)
	}
}

func TestExecute_Help(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"serve", "--help"}} {
		if err := Execute("1.0.0", "abc123", "pandannotate", args); err != nil {
			t.Errorf("Expected no error for %v, got: %v", args, err)
		}
	}
}

func TestExecute_InvalidFlag(t *testing.T) {
	err := Execute("1.0.0", "abc123", "pandannotate", []string{"--invalid-flag"})
	if err == nil {
		t.Error("Expected error for invalid flag")
	}
}

func TestExecute_MissingRequiredSettings(t *testing.T) {
	t.Setenv("PANDANNOTATE_FASTA", "")
	err := Execute("1.0.0", "abc123", "pandannotate", []string{"-c", "control.tsv", "-o", "out.tsv"})
	if err == nil {
		t.Fatal("Expected error for missing fasta")
	}
	if !strings.Contains(err.Error(), "fasta") {
		t.Errorf("Expected error about fasta, got: %v", err)
	}
}

func TestExecute_ServeMissingTable(t *testing.T) {
	t.Setenv("PANDANNOTATE_SERVE_TABLE", "")
	err := Execute("1.0.0", "abc123", "pandannotate", []string{"serve"})
	if err == nil {
		t.Fatal("Expected error for missing table")
	}
	if !strings.Contains(err.Error(), "table") {
		t.Errorf("Expected error about table, got: %v", err)
	}
}

func TestExecute_BuildRun(t *testing.T) {
	dir := t.TempDir()
	fasta := filepath.Join(dir, "q.fa")
	control := filepath.Join(dir, "control.tsv")
	out := filepath.Join(dir, "out.tsv")
	if err := os.WriteFile(fasta, []byte(">q1\nMK\n>q2\nMK\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(control, []byte("# no sources yet\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := Execute("1.0.0", "abc123", "pandannotate", []string{"-f", fasta, "-c", control, "-o", out, "-l", "error"})
	if err != nil {
		t.Fatalf("Expected build run to succeed, got: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if string(data) != "queryname\nq1\nq2\n" {
		t.Errorf("Unexpected output: %q", data)
	}
}

func TestRunMain_Success(t *testing.T) {
	exitCode := -1
	mockExit := func(code int) {
		exitCode = code
	}

	runMain([]string{"pandannotate", "--help"}, mockExit)

	if exitCode != -1 {
		t.Errorf("Expected no exit call for --help, got exit code: %d", exitCode)
	}
}

func TestRunMain_Failure(t *testing.T) {
	exitCode := -1
	mockExit := func(code int) {
		exitCode = code
	}

	runMain([]string{"pandannotate", "--invalid"}, mockExit)

	if exitCode != 1 {
		t.Errorf("Expected exit code 1 for invalid flag, got: %d", exitCode)
	}
}
