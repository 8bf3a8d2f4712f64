package fileutil_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"inkwell/internal/fileutil"
)

func TestWriteTextCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "chapter.txt")
	if err := fileutil.WriteText(path, "hello"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	got, err := fileutil.ReadText(path)
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if got != "hello" {
		t.Fatalf("round trip = %q", got)
	}
}

func TestWriteTextLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := fileutil.WriteText(path, "x"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "out.txt" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}

func TestAppendLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.log")
	for _, line := range []string{"first", "second"} {
		if err := fileutil.AppendLine(path, line); err != nil {
			t.Fatalf("AppendLine: %v", err)
		}
	}
	got, err := fileutil.ReadText(path)
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}
	if got != "first\nsecond\n" {
		t.Fatalf("appended contents = %q", got)
	}
	if strings.Count(got, "\n") != 2 {
		t.Fatalf("expected two lines, got %q", got)
	}
}
